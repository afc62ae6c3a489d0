package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/store"
)

// Stage names.
const (
	StageIngestion = "ingestion"
	StagePrepare   = "preparation"
	StageTitles    = "clustering"
	StageSalary    = "salary"
	StageUnify     = "unification"
	StageAggregate = "aggregation"
	StageExport    = "export"
)

// RunStore persists run progress and results. *store.Store implements it.
type RunStore interface {
	UpdateRunStatus(runID, status string) error
	SaveRunReport(runID string, report *model.RunReport) error
	SaveStageProgress(runID string, m model.StageMetrics) error
	SavePipelineLog(runID, stage, level, message string, details map[string]interface{}) error
	SaveRunError(runID string, detail model.ErrorDetail) error
	SaveClusterLabels(runID string, labels []store.ClusterLabel) error
	SaveMasterRecords(ctx context.Context, runID string, records []model.MasterJobRecord) (int, error)
	SaveOutputFile(runID string, f store.OutputFile) error
}

// Tracker records stage timings, source metrics and errors of one run and
// mirrors them into the run store when there is one.
type Tracker struct {
	runID string
	store RunStore

	mu      sync.Mutex
	stages  []model.StageMetrics
	sources map[string]model.SourceMetrics
	errors  []model.ErrorDetail
}

// NewTracker returns a tracker for runID. st may be nil.
func NewTracker(runID string, st RunStore) *Tracker {
	return &Tracker{
		runID:   runID,
		store:   st,
		sources: make(map[string]model.SourceMetrics),
	}
}

// StartStage marks the start of a pipeline stage.
func (t *Tracker) StartStage(stage string) {
	t.mu.Lock()
	m := model.StageMetrics{StageName: stage, Status: "started", StartTime: time.Now().UTC()}
	t.stages = append(t.stages, m)
	t.mu.Unlock()

	fmt.Printf("📊 Stage '%s' started\n", stage)
	t.persistStage(m)
	t.setStatus(stage)
}

// EndStage marks the end of a pipeline stage.
func (t *Tracker) EndStage(stage string, recordsProcessed int64) {
	m, ok := t.finish(stage, "completed", recordsProcessed)
	if !ok {
		return
	}
	fmt.Printf("📊 Stage '%s' completed: %d records processed in %v\n", stage, recordsProcessed, m.Duration)
	t.persistStage(m)
	t.Log(stage, "info", fmt.Sprintf("Stage %s completed", stage), map[string]interface{}{
		"records":     recordsProcessed,
		"duration_ms": m.Duration.Milliseconds(),
	})
}

// FailStage marks a stage failed and records err.
func (t *Tracker) FailStage(stage string, err error) {
	if m, ok := t.finish(stage, "failed", 0); ok {
		t.persistStage(m)
	}
	t.RecordError(stage, err)
}

func (t *Tracker) finish(stage, status string, records int64) (model.StageMetrics, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.stages) - 1; i >= 0; i-- {
		if t.stages[i].StageName != stage {
			continue
		}
		now := time.Now().UTC()
		m := &t.stages[i]
		m.EndTime = &now
		m.Duration = now.Sub(m.StartTime)
		m.Status = status
		m.RecordsProcessed = records
		if status == "failed" {
			m.ErrorCount++
		}
		return *m, true
	}
	return model.StageMetrics{}, false
}

// RecordError records err with its classified type.
func (t *Tracker) RecordError(stage string, err error) {
	errType, retryable := classifyError(err)
	d := model.ErrorDetail{
		Stage:     stage,
		ErrorType: errType,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	}
	var srcErr *model.SourceReadError
	if errors.As(err, &srcErr) {
		d.Source = srcErr.Path
	}

	t.mu.Lock()
	t.errors = append(t.errors, d)
	t.mu.Unlock()

	log.Printf("❌ [%s] %s: %v", stage, errType, err)
	if t.store != nil {
		if e := t.store.SaveRunError(t.runID, d); e != nil {
			log.Printf("⚠️ failed to save error for run %s: %v", t.runID, e)
		}
	}
}

// UpdateSourceMetrics stores the ingestion numbers of one source.
func (t *Tracker) UpdateSourceMetrics(name, path string, records int64, took time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources[name] = model.SourceMetrics{
		Source:          name,
		Path:            path,
		RecordsIngested: records,
		IngestionTime:   took,
	}
}

// Log persists a stage message in the run store.
func (t *Tracker) Log(stage, level, message string, details map[string]interface{}) {
	if t == nil || t.store == nil {
		return
	}
	if err := t.store.SavePipelineLog(t.runID, stage, level, message, details); err != nil {
		log.Printf("⚠️ failed to save log for run %s: %v", t.runID, err)
	}
}

// Stages returns a copy of the stage metrics.
func (t *Tracker) Stages() []model.StageMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.StageMetrics(nil), t.stages...)
}

// Sources returns a copy of the source metrics.
func (t *Tracker) Sources() map[string]model.SourceMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]model.SourceMetrics, len(t.sources))
	for k, v := range t.sources {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the recorded errors.
func (t *Tracker) Errors() []model.ErrorDetail {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.ErrorDetail(nil), t.errors...)
}

func (t *Tracker) persistStage(m model.StageMetrics) {
	if t.store == nil {
		return
	}
	if err := t.store.SaveStageProgress(t.runID, m); err != nil {
		log.Printf("⚠️ failed to save stage %s for run %s: %v", m.StageName, t.runID, err)
	}
}

func (t *Tracker) setStatus(status string) {
	if t.store == nil {
		return
	}
	if err := t.store.UpdateRunStatus(t.runID, status); err != nil {
		log.Printf("⚠️ failed to update status for run %s: %v", t.runID, err)
	}
}

// classifyError maps an error onto its reported type and whether a retry
// with different parameters can succeed.
func classifyError(err error) (string, bool) {
	var srcErr *model.SourceReadError
	var cfgErr *model.ConfigurationError
	var insErr *model.InsufficientDataError
	switch {
	case errors.As(err, &srcErr):
		return "source_read", false
	case errors.As(err, &cfgErr):
		return "configuration", false
	case errors.As(err, &insErr):
		return "insufficient_data", true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled", true
	default:
		return "internal", false
	}
}
