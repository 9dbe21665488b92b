package storage

import (
	"context"
	"time"

	"github.com/M-Afifff/coingecko-project/internal/domain"
)

// MarketStore persists cleaned market records as an append-only time
// series. Rows are only ever added by the pipeline, never updated or
// deleted; correction is by appending, not editing.
type MarketStore interface {
	// EnsureSchema idempotently provisions the target table, its
	// indexes and positivity constraints. Safe to call on every run.
	EnsureSchema(ctx context.Context) error

	// Append bulk-inserts the batch in a single transaction and
	// returns the number of rows written. An empty batch returns 0
	// without touching the store. A failed call commits nothing.
	Append(ctx context.Context, records []domain.CleanedRecord) (int, error)

	// CountForDate returns the number of rows already persisted for
	// the given extraction date. Used as a run-level dedup check.
	CountForDate(ctx context.Context, date time.Time) (int64, error)

	// LatestStats aggregates the most recent extraction date's
	// partition. An empty table yields zero stats, not an error.
	LatestStats(ctx context.Context) (*domain.MarketStats, error)

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error
}
