package domain

import "time"

// QualityReport summarizes one cleaned batch. Non-zero null counts
// after cleaning indicate a transformer bug, not bad upstream data.
type QualityReport struct {
	TotalRecords    int            `json:"total_records"`
	NullPrices      int            `json:"null_prices"`
	NullMarketCaps  int            `json:"null_market_caps"`
	RecordsRemoved  int            `json:"records_removed"`
	PriceCategories map[string]int `json:"price_categories"`
	LastUpdatedMin  time.Time      `json:"last_updated_min"`
	LastUpdatedMax  time.Time      `json:"last_updated_max"`
}

// MarketStats aggregates the most recent extraction date's partition.
type MarketStats struct {
	TotalRecords           int64     `json:"total_records"`
	UniqueCryptos          int64     `json:"unique_cryptos"`
	LatestDate             time.Time `json:"latest_date"`
	AvgPrice               float64   `json:"avg_price"`
	TotalMarketCapBillions float64   `json:"total_market_cap_billions"`
}
