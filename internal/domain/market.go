package domain

import "time"

// RawMarketRecord is one asset's market snapshot as returned by the
// pricing API. Nullable upstream fields are pointers; the transformer
// decides what to do with missing values. Records are immutable once
// fetched and live only for the duration of a single pipeline run.
type RawMarketRecord struct {
	CryptoID          string     `json:"id"`
	Symbol            string     `json:"symbol"`
	Name              string     `json:"name"`
	CurrentPrice      *float64   `json:"current_price"`
	MarketCap         *float64   `json:"market_cap"`
	Rank              *int64     `json:"market_cap_rank"`
	Volume24h         *float64   `json:"total_volume"`
	PriceChange24h    *float64   `json:"price_change_percentage_24h"`
	CirculatingSupply *float64   `json:"circulating_supply"`
	LastUpdated       *time.Time `json:"last_updated"`
}

// CleanedRecord is a RawMarketRecord after projection, cleaning and
// enrichment. Corresponds 1:1 to a row of the crypto_prices table.
// Invariant: CurrentPrice > 0 and MarketCap > 0.
type CleanedRecord struct {
	CryptoID          string
	Symbol            string
	Name              string
	CurrentPrice      float64
	MarketCap         float64
	Rank              int64
	Volume24h         float64
	PriceChange24h    float64
	CirculatingSupply float64
	LastUpdated       time.Time
	PriceCategory     string    // Low | Medium | High
	MarketCapBillions float64   // MarketCap / 1e9
	ExtractedAt       time.Time // transform-time instant
	ExtractedDate     time.Time // transform-time date, truncated to day UTC
}

// Price category labels. Thresholds live in the transformer.
const (
	PriceCategoryLow    = "Low"
	PriceCategoryMedium = "Medium"
	PriceCategoryHigh   = "High"
)
