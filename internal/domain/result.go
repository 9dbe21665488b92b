package domain

// RunResult is the outcome of one orchestrator execution. It is the
// contract honored by any scheduler, CLI, or dashboard run control.
type RunResult struct {
	RunID            string         `json:"run_id"`
	Success          bool           `json:"success"`
	RecordsProcessed int            `json:"records_processed"`
	DaysProcessed    int            `json:"days_processed,omitempty"` // historical runs only
	DurationSeconds  float64        `json:"duration_seconds"`
	DataQuality      *QualityReport `json:"data_quality,omitempty"`
	DatabaseStats    *MarketStats   `json:"database_stats,omitempty"`
	Error            string         `json:"error,omitempty"`
}
