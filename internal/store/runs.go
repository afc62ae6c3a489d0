package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-jobmarket-pipeline/internal/model"
)

// ErrNotFound is returned when a run or file does not exist.
var ErrNotFound = errors.New("not found")

// Run statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusEmpty     = "empty"
	StatusFailed    = "failed"
)

// RunInfo is one row of the runs table.
type RunInfo struct {
	ID        string                `json:"id"`
	Status    string                `json:"status"`
	Config    *model.PipelineConfig `json:"config,omitempty"`
	Report    *model.RunReport      `json:"report,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// LogEntry is one persisted pipeline log line.
type LogEntry struct {
	Stage     string                 `json:"stage"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// CreateRun stores a new pending run with its configuration.
func (s *Store) CreateRun(runID string, cfg model.PipelineConfig) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(`INSERT INTO runs (id, config, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, string(cfgJSON), StatusPending, now, now)
	return err
}

// UpdateRunStatus sets the status of a run.
func (s *Store) UpdateRunStatus(runID, status string) error {
	_, err := s.db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UTC(), runID)
	return err
}

// SaveRunReport stores the final report, and its summary separately.
func (s *Store) SaveRunReport(runID string, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return err
	}
	var summaryJSON []byte
	if report.Summary != nil {
		if summaryJSON, err = json.Marshal(report.Summary); err != nil {
			return err
		}
	}
	_, err = s.db.Exec(`UPDATE runs SET report = ?, summary = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(reportJSON), nullString(summaryJSON), report.Status, time.Now().UTC(), runID)
	return err
}

// ListRuns returns all runs, newest first, without config or report.
func (s *Store) ListRuns() ([]RunInfo, error) {
	rows, err := s.db.Query(`SELECT id, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.ID, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun fetches one run with its config and report.
func (s *Store) GetRun(runID string) (*RunInfo, error) {
	var cfgJSON string
	var reportJSON sql.NullString
	r := RunInfo{ID: runID}
	err := s.db.QueryRow(`SELECT config, status, report, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&cfgJSON, &r.Status, &reportJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var cfg model.PipelineConfig
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return nil, fmt.Errorf("decode run config: %w", err)
	}
	r.Config = &cfg
	if reportJSON.Valid && reportJSON.String != "" {
		var rep model.RunReport
		if err := json.Unmarshal([]byte(reportJSON.String), &rep); err != nil {
			return nil, fmt.Errorf("decode run report: %w", err)
		}
		r.Report = &rep
	}
	return &r, nil
}

// GetRunSummary returns the dataset summary of a finished run.
func (s *Store) GetRunSummary(runID string) (*model.RunSummary, error) {
	var summaryJSON sql.NullString
	err := s.db.QueryRow(`SELECT summary FROM runs WHERE id = ?`, runID).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !summaryJSON.Valid) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sum model.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON.String), &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// SaveRunError records an error for a run.
func (s *Store) SaveRunError(runID string, detail model.ErrorDetail) error {
	if detail.Timestamp.IsZero() {
		detail.Timestamp = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO run_errors (run_id, stage, error_type, error_message, source, retryable, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, detail.Stage, detail.ErrorType, detail.Message, detail.Source, detail.Retryable, detail.Timestamp)
	return err
}

// GetRunErrors returns the errors of a run in insertion order.
func (s *Store) GetRunErrors(runID string) ([]model.ErrorDetail, error) {
	rows, err := s.db.Query(`SELECT stage, error_type, error_message, source, retryable, created_at
		FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ErrorDetail{}
	for rows.Next() {
		var d model.ErrorDetail
		if err := rows.Scan(&d.Stage, &d.ErrorType, &d.Message, &d.Source, &d.Retryable, &d.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveStageProgress upserts the progress row of one stage.
func (s *Store) SaveStageProgress(runID string, m model.StageMetrics) error {
	_, err := s.db.Exec(`INSERT INTO stage_progress (run_id, stage, status, start_time, end_time, records_processed, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, stage) DO UPDATE SET
			status = excluded.status,
			end_time = excluded.end_time,
			records_processed = excluded.records_processed,
			error_count = excluded.error_count`,
		runID, m.StageName, m.Status, m.StartTime, m.EndTime, m.RecordsProcessed, m.ErrorCount)
	return err
}

// GetStageProgress returns the stages of a run in start order.
func (s *Store) GetStageProgress(runID string) ([]model.StageMetrics, error) {
	rows, err := s.db.Query(`SELECT stage, status, start_time, end_time, records_processed, error_count
		FROM stage_progress WHERE run_id = ? ORDER BY start_time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.StageMetrics{}
	for rows.Next() {
		var m model.StageMetrics
		var end sql.NullTime
		if err := rows.Scan(&m.StageName, &m.Status, &m.StartTime, &end, &m.RecordsProcessed, &m.ErrorCount); err != nil {
			return nil, err
		}
		if end.Valid {
			t := end.Time
			m.EndTime = &t
			m.Duration = t.Sub(m.StartTime)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SavePipelineLog persists one log line.
func (s *Store) SavePipelineLog(runID, stage, level, message string, details map[string]interface{}) error {
	var detailsJSON []byte
	if len(details) > 0 {
		var err error
		if detailsJSON, err = json.Marshal(details); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(`INSERT INTO pipeline_logs (run_id, stage, level, message, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, level, message, nullString(detailsJSON), time.Now().UTC())
	return err
}

// GetPipelineLogs returns the log lines of a run, optionally for one stage.
func (s *Store) GetPipelineLogs(runID, stage string) ([]LogEntry, error) {
	query := `SELECT stage, level, message, details, created_at FROM pipeline_logs WHERE run_id = ?`
	args := []interface{}{runID}
	if stage != "" {
		query += ` AND stage = ?`
		args = append(args, stage)
	}
	rows, err := s.db.Query(query+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LogEntry{}
	for rows.Next() {
		var e LogEntry
		var details sql.NullString
		if err := rows.Scan(&e.Stage, &e.Level, &e.Message, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
