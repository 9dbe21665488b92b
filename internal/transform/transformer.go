// Package transform projects raw market records onto the storage
// schema, drops invalid rows and derives computed fields.
package transform

import (
	"fmt"
	"log"
	"time"

	"github.com/M-Afifff/coingecko-project/internal/domain"
)

// Price tier thresholds. Boundaries are inclusive on the upper side:
// 1.0 is Medium, 100.0 is High.
const (
	lowPriceCeiling    = 1.0
	mediumPriceCeiling = 100.0
)

// SchemaError reports a required source field missing during
// projection. Missing critical fields fail the batch rather than
// being silently defaulted.
type SchemaError struct {
	Field    string
	CryptoID string
}

func (e *SchemaError) Error() string {
	if e.CryptoID != "" {
		return fmt.Sprintf("schema: required field %q missing on record %q", e.Field, e.CryptoID)
	}
	return fmt.Sprintf("schema: required field %q missing", e.Field)
}

// Transformer is a deterministic three-stage transformation:
// projection, cleaning, enrichment. It holds no state besides an
// injected clock and logger.
type Transformer struct {
	now    func() time.Time
	logger *log.Logger
}

// Option configures Transformer.
type Option func(*Transformer)

// WithClock overrides the processing-timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) {
		t.now = now
	}
}

// WithLogger sets the logger handle.
func WithLogger(logger *log.Logger) Option {
	return func(t *Transformer) {
		t.logger = logger
	}
}

// New creates a Transformer.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform runs projection, cleaning and enrichment in order.
// It returns the cleaned records and the number of rows removed
// during cleaning. An empty input yields an empty output, no error.
func (t *Transformer) Transform(raw []domain.RawMarketRecord) ([]domain.CleanedRecord, int, error) {
	t.logger.Printf("Transforming %d records", len(raw))

	projected, err := project(raw)
	if err != nil {
		return nil, 0, err
	}

	cleaned, removed := clean(projected)
	if removed > 0 {
		t.logger.Printf("Removed %d records during cleaning", removed)
	}

	t.enrich(cleaned)

	t.logger.Printf("Transformation completed: %d records ready", len(cleaned))
	return cleaned, removed, nil
}

// project validates required identity fields and maps raw records to
// the target shape. Nullable numeric fields stay untouched here;
// cleaning decides their fate.
func project(raw []domain.RawMarketRecord) ([]projectedRecord, error) {
	projected := make([]projectedRecord, 0, len(raw))

	for _, r := range raw {
		if r.CryptoID == "" {
			return nil, &SchemaError{Field: "id"}
		}
		if r.Symbol == "" {
			return nil, &SchemaError{Field: "symbol", CryptoID: r.CryptoID}
		}
		if r.Name == "" {
			return nil, &SchemaError{Field: "name", CryptoID: r.CryptoID}
		}
		if r.LastUpdated == nil || r.LastUpdated.IsZero() {
			return nil, &SchemaError{Field: "last_updated", CryptoID: r.CryptoID}
		}

		projected = append(projected, projectedRecord{
			cryptoID:          r.CryptoID,
			symbol:            r.Symbol,
			name:              r.Name,
			currentPrice:      r.CurrentPrice,
			marketCap:         r.MarketCap,
			rank:              r.Rank,
			volume24h:         r.Volume24h,
			priceChange24h:    r.PriceChange24h,
			circulatingSupply: r.CirculatingSupply,
			lastUpdated:       *r.LastUpdated,
		})
	}

	return projected, nil
}

// projectedRecord is the intermediate shape between projection and
// cleaning, still carrying nullable numerics.
type projectedRecord struct {
	cryptoID          string
	symbol            string
	name              string
	currentPrice      *float64
	marketCap         *float64
	rank              *int64
	volume24h         *float64
	priceChange24h    *float64
	circulatingSupply *float64
	lastUpdated       time.Time
}

// clean drops records with missing, zero or negative price or market
// cap. Lossy by design: completeness is traded for the positivity
// invariant on persisted rows.
func clean(projected []projectedRecord) ([]domain.CleanedRecord, int) {
	cleaned := make([]domain.CleanedRecord, 0, len(projected))

	for _, p := range projected {
		if p.currentPrice == nil || *p.currentPrice <= 0 {
			continue
		}
		if p.marketCap == nil || *p.marketCap <= 0 {
			continue
		}

		cleaned = append(cleaned, domain.CleanedRecord{
			CryptoID:          p.cryptoID,
			Symbol:            p.symbol,
			Name:              p.name,
			CurrentPrice:      *p.currentPrice,
			MarketCap:         *p.marketCap,
			Rank:              deref(p.rank),
			Volume24h:         deref(p.volume24h),
			PriceChange24h:    deref(p.priceChange24h),
			CirculatingSupply: deref(p.circulatingSupply),
			LastUpdated:       p.lastUpdated,
		})
	}

	return cleaned, len(projected) - len(cleaned)
}

// enrich assigns the price tier, market cap in billions and the
// processing timestamps. Records are stamped with the clock time of
// transformation, not extraction.
func (t *Transformer) enrich(records []domain.CleanedRecord) {
	now := t.now()
	date := now.UTC().Truncate(24 * time.Hour)

	for i := range records {
		records[i].PriceCategory = categorizePrice(records[i].CurrentPrice)
		records[i].MarketCapBillions = records[i].MarketCap / 1e9
		records[i].ExtractedAt = now
		records[i].ExtractedDate = date
	}
}

// categorizePrice buckets a price into its tier.
func categorizePrice(price float64) string {
	switch {
	case price < lowPriceCeiling:
		return domain.PriceCategoryLow
	case price < mediumPriceCeiling:
		return domain.PriceCategoryMedium
	default:
		return domain.PriceCategoryHigh
	}
}

// QualityReport aggregates a cleaned batch. Pure; an empty batch
// produces zero counts and empty distributions, never an error.
func (t *Transformer) QualityReport(cleaned []domain.CleanedRecord, removed int) *domain.QualityReport {
	report := &domain.QualityReport{
		TotalRecords:    len(cleaned),
		RecordsRemoved:  removed,
		PriceCategories: make(map[string]int),
	}

	for i, r := range cleaned {
		report.PriceCategories[r.PriceCategory]++

		// NullPrices/NullMarketCaps stay zero by construction; a
		// non-zero count here would mean cleaning let a bad row through.
		if r.CurrentPrice == 0 {
			report.NullPrices++
		}
		if r.MarketCap == 0 {
			report.NullMarketCaps++
		}

		if i == 0 || r.LastUpdated.Before(report.LastUpdatedMin) {
			report.LastUpdatedMin = r.LastUpdated
		}
		if i == 0 || r.LastUpdated.After(report.LastUpdatedMax) {
			report.LastUpdatedMax = r.LastUpdated
		}
	}

	return report
}

func deref[T int64 | float64](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
