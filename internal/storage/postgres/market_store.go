package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/M-Afifff/coingecko-project/internal/domain"
	"github.com/M-Afifff/coingecko-project/internal/storage"
	"github.com/M-Afifff/coingecko-project/internal/storage/migrations"
)

// MarketStore implements storage.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *Pool
}

// NewMarketStore creates a new MarketStore.
func NewMarketStore(pool *Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// EnsureSchema applies the embedded migrations. All DDL uses IF NOT
// EXISTS, so repeated calls are no-ops.
func (s *MarketStore) EnsureSchema(ctx context.Context) error {
	files, err := migrations.PostgresFiles()
	if err != nil {
		return &storage.PersistenceError{Op: "ensure schema", Err: err}
	}

	for _, ddl := range files {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return &storage.PersistenceError{Op: "ensure schema", Err: err}
		}
	}
	return nil
}

// Append bulk-inserts the batch inside a single transaction. The whole
// batch commits or nothing does; there is no partial success.
func (s *MarketStore) Append(ctx context.Context, records []domain.CleanedRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &storage.PersistenceError{Op: "begin append tx", Err: err}
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO crypto_prices (
			crypto_id, symbol, name, current_price, market_cap, rank,
			volume_24h, price_change_24h, circulating_supply, last_updated,
			price_category, market_cap_billions, extracted_at, extracted_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for _, r := range records {
		_, err := tx.Exec(ctx, query,
			r.CryptoID,
			r.Symbol,
			r.Name,
			r.CurrentPrice,
			r.MarketCap,
			r.Rank,
			r.Volume24h,
			r.PriceChange24h,
			r.CirculatingSupply,
			r.LastUpdated,
			r.PriceCategory,
			r.MarketCapBillions,
			r.ExtractedAt,
			r.ExtractedDate,
		)
		if err != nil {
			if isCheckViolation(err) {
				return 0, &storage.PersistenceError{
					Op:  fmt.Sprintf("append %s", r.CryptoID),
					Err: fmt.Errorf("positivity constraint violated: %w", err),
				}
			}
			return 0, &storage.PersistenceError{Op: fmt.Sprintf("append %s", r.CryptoID), Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &storage.PersistenceError{Op: "commit append tx", Err: err}
	}

	return len(records), nil
}

// CountForDate returns the number of rows persisted for an extraction date.
func (s *MarketStore) CountForDate(ctx context.Context, date time.Time) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM crypto_prices WHERE extracted_date = $1`,
		date,
	).Scan(&count)
	if err != nil {
		return 0, &storage.PersistenceError{Op: "count for date", Err: err}
	}
	return count, nil
}

// LatestStats aggregates the most recent extraction date's partition.
func (s *MarketStore) LatestStats(ctx context.Context) (*domain.MarketStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_records,
			COUNT(DISTINCT crypto_id) AS unique_cryptos,
			COALESCE(MAX(extracted_date), 'epoch'::date) AS latest_date,
			COALESCE(AVG(current_price), 0) AS avg_price,
			COALESCE(SUM(market_cap_billions), 0) AS total_market_cap_billions
		FROM crypto_prices
		WHERE extracted_date = (SELECT MAX(extracted_date) FROM crypto_prices)
	`

	var stats domain.MarketStats
	err := s.pool.QueryRow(ctx, query).Scan(
		&stats.TotalRecords,
		&stats.UniqueCryptos,
		&stats.LatestDate,
		&stats.AvgPrice,
		&stats.TotalMarketCapBillions,
	)
	if err != nil {
		return nil, &storage.PersistenceError{Op: "latest stats", Err: err}
	}
	return &stats, nil
}

// Ping verifies database connectivity.
func (s *MarketStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
