package model

import "time"

// AggregatedResult summarizes the master rows sharing one group value.
type AggregatedResult struct {
	GroupKey    string             `json:"group_key"`
	GroupValue  string             `json:"group_value"`
	Metrics     map[string]float64 `json:"metrics"`
	RecordCount int                `json:"record_count"`
}

// RunSummary is the dataset-level report written next to the master file.
type RunSummary struct {
	RunID             string             `json:"run_id"`
	SourceCount       int                `json:"source_count"`
	IngestedRecords   int                `json:"ingested_records"`
	RecordsWithSalary int                `json:"records_with_salary"`
	SalaryCoveragePct float64            `json:"salary_coverage_pct"`
	MasterRecords     int                `json:"master_records"`
	DuplicatesRemoved int                `json:"duplicates_removed"`
	Clusters          int                `json:"clusters"`
	RuleLabeledTitles int                `json:"rule_labeled_titles"`
	Currency          string             `json:"currency"`
	Period            string             `json:"period"`
	ByTitle           []AggregatedResult `json:"by_title"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "database", "csv", "json"
	Path        string    `json:"path"` // file path or table name
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
