// Package extract fetches market snapshots from the pricing source.
package extract

import (
	"context"
	"fmt"
	"log"

	"github.com/M-Afifff/coingecko-project/internal/domain"
)

// MarketsClient is the transport surface the extractor needs.
// Satisfied by coingecko.Client.
type MarketsClient interface {
	FetchMarkets(ctx context.Context, limit int) ([]domain.RawMarketRecord, error)
	Ping(ctx context.Context) error
}

// Extractor pulls bounded market snapshots. Stateless across
// invocations; it owns no retry policy.
type Extractor struct {
	client MarketsClient
	logger *log.Logger
}

// New creates an Extractor. A nil logger falls back to log.Default().
func New(client MarketsClient, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{client: client, logger: logger}
}

// FetchSnapshot fetches the top limit assets by market capitalization.
func (e *Extractor) FetchSnapshot(ctx context.Context, limit int) ([]domain.RawMarketRecord, error) {
	e.logger.Printf("Extracting top %d cryptocurrencies", limit)

	records, err := e.client.FetchMarkets(ctx, limit)
	if err != nil {
		return nil, err
	}

	e.logger.Printf("Successfully extracted %d records", len(records))
	return records, nil
}

// FetchHistoricalRange aggregates one snapshot per day over a trailing
// window of daysBack days. Any sub-request failure fails the whole
// call; there is no partial-success return.
func (e *Extractor) FetchHistoricalRange(ctx context.Context, daysBack, limit int) ([]domain.RawMarketRecord, error) {
	if daysBack <= 0 {
		return nil, fmt.Errorf("daysBack must be positive, got %d", daysBack)
	}

	e.logger.Printf("Extracting %d days of market history (top %d)", daysBack, limit)

	all := make([]domain.RawMarketRecord, 0, daysBack*limit)
	for day := 0; day < daysBack; day++ {
		records, err := e.client.FetchMarkets(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("historical day %d of %d: %w", day+1, daysBack, err)
		}
		all = append(all, records...)
	}

	e.logger.Printf("Successfully extracted %d historical records", len(all))
	return all, nil
}

// Healthy probes the source. It never returns an error: every failure
// becomes false, with the underlying reason logged for observability.
func (e *Extractor) Healthy(ctx context.Context) bool {
	if err := e.client.Ping(ctx); err != nil {
		e.logger.Printf("Market API health check failed: %v", err)
		return false
	}
	return true
}
