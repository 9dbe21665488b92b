package clickhouse

import (
	"context"
	"time"

	"github.com/M-Afifff/coingecko-project/internal/domain"
	"github.com/M-Afifff/coingecko-project/internal/storage"
	"github.com/M-Afifff/coingecko-project/internal/storage/migrations"
)

// MarketStore implements storage.MarketStore using ClickHouse. It is
// an alternative deployment target for analytics-heavy installs; the
// table stays append-only, positivity is enforced upstream by the
// transformer since MergeTree has no CHECK constraints.
type MarketStore struct {
	conn *Conn
}

// NewMarketStore creates a new MarketStore.
func NewMarketStore(conn *Conn) *MarketStore {
	return &MarketStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// EnsureSchema applies the embedded migrations statement by statement.
func (s *MarketStore) EnsureSchema(ctx context.Context) error {
	stmts, err := migrations.ClickhouseStatements()
	if err != nil {
		return &storage.PersistenceError{Op: "ensure schema", Err: err}
	}

	for _, stmt := range stmts {
		if err := s.conn.Exec(ctx, stmt); err != nil {
			return &storage.PersistenceError{Op: "ensure schema", Err: err}
		}
	}
	return nil
}

// Append sends the whole batch in one prepared batch; ClickHouse
// commits it atomically on Send.
func (s *MarketStore) Append(ctx context.Context, records []domain.CleanedRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO crypto_prices (
			crypto_id, symbol, name, current_price, market_cap, rank,
			volume_24h, price_change_24h, circulating_supply, last_updated,
			price_category, market_cap_billions, extracted_at, extracted_date
		)
	`)
	if err != nil {
		return 0, &storage.PersistenceError{Op: "prepare append batch", Err: err}
	}

	for _, r := range records {
		err := batch.Append(
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
			return 0, &storage.PersistenceError{Op: "append batch row", Err: err}
		}
	}

	if err := batch.Send(); err != nil {
		return 0, &storage.PersistenceError{Op: "send append batch", Err: err}
	}

	return len(records), nil
}

// CountForDate returns the number of rows persisted for an extraction date.
func (s *MarketStore) CountForDate(ctx context.Context, date time.Time) (int64, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM crypto_prices WHERE extracted_date = ?`,
		date,
	).Scan(&count)
	if err != nil {
		return 0, &storage.PersistenceError{Op: "count for date", Err: err}
	}
	return int64(count), nil
}

// LatestStats aggregates the most recent extraction date's partition.
func (s *MarketStore) LatestStats(ctx context.Context) (*domain.MarketStats, error) {
	query := `
		SELECT
			count() AS total_records,
			uniqExact(crypto_id) AS unique_cryptos,
			max(extracted_date) AS latest_date,
			avg(current_price) AS avg_price,
			sum(market_cap_billions) AS total_market_cap_billions
		FROM crypto_prices
		WHERE extracted_date = (SELECT max(extracted_date) FROM crypto_prices)
	`

	var (
		totalRecords  uint64
		uniqueCryptos uint64
		latestDate    time.Time
		avgPrice      float64
		totalBillions float64
	)
	err := s.conn.QueryRow(ctx, query).Scan(
		&totalRecords, &uniqueCryptos, &latestDate, &avgPrice, &totalBillions,
	)
	if err != nil {
		return nil, &storage.PersistenceError{Op: "latest stats", Err: err}
	}

	stats := &domain.MarketStats{
		TotalRecords:           int64(totalRecords),
		UniqueCryptos:          int64(uniqueCryptos),
		LatestDate:             latestDate,
		AvgPrice:               avgPrice,
		TotalMarketCapBillions: totalBillions,
	}
	// avg over zero rows is NaN in ClickHouse; normalize to zero stats
	if totalRecords == 0 {
		stats.AvgPrice = 0
		stats.LatestDate = time.Time{}
	}
	return stats, nil
}

// Ping verifies database connectivity.
func (s *MarketStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}
