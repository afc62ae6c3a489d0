package model

import "time"

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	Status           string        `json:"status"` // "started", "completed", "failed"
	StartTime        time.Time     `json:"start_time"`
	EndTime          *time.Time    `json:"end_time,omitempty"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	ErrorCount       int64         `json:"error_count"`
}

// SourceMetrics represents metrics for a specific data source
type SourceMetrics struct {
	Source          string        `json:"source"`
	Path            string        `json:"path"`
	RecordsIngested int64         `json:"records_ingested"`
	IngestionTime   time.Duration `json:"ingestion_time"`
}

// ErrorDetail represents a detailed error with context
type ErrorDetail struct {
	Stage     string    `json:"stage"`
	ErrorType string    `json:"error_type"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Retryable bool      `json:"retryable"`
}

// RunReport is what one pipeline run hands back to its caller.
type RunReport struct {
	RunID       string                   `json:"run_id"`
	Status      string                   `json:"status"`
	Empty       bool                     `json:"empty"`
	StartTime   time.Time                `json:"start_time"`
	EndTime     time.Time                `json:"end_time"`
	Stages      []StageMetrics           `json:"stages"`
	Sources     map[string]SourceMetrics `json:"sources"`
	Summary     *RunSummary              `json:"summary,omitempty"`
	Exports     []ExportResult           `json:"exports"`
	ClusterUsed int                      `json:"cluster_used"`
}
