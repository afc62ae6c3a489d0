package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"go-jobmarket-pipeline/internal/config"
	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/pipeline"
	"go-jobmarket-pipeline/internal/store"
	"go-jobmarket-pipeline/pkg/utils"
)

// Options tune the pipeline API.
type Options struct {
	// RunTimeout bounds one pipeline run.
	RunTimeout time.Duration
	// SubmitRate and SubmitBurst limit run submissions per second.
	SubmitRate  float64
	SubmitBurst int
	// DataDir is where submitted configurations may point sources,
	// input_dir and stopword files. Paths of the base configuration are
	// always allowed.
	DataDir string
}

// PipelineHandler serves the pipeline run API.
type PipelineHandler struct {
	store   *store.Store
	base    model.PipelineConfig
	opts    Options
	limiter *rate.Limiter
	output  *utils.OutputManager

	ctx context.Context
	wg  sync.WaitGroup
}

// NewPipelineHandler creates a handler. Submitted runs start from base and
// write below base.Export.OutputDir, one directory per run. Runs are
// cancelled when ctx is.
func NewPipelineHandler(ctx context.Context, st *store.Store, base model.PipelineConfig, opts Options) *PipelineHandler {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 10 * time.Minute
	}
	if opts.SubmitRate <= 0 {
		opts.SubmitRate = 1
	}
	if opts.SubmitBurst <= 0 {
		opts.SubmitBurst = 5
	}
	base.Export.PerRun = true
	return &PipelineHandler{
		store:   st,
		base:    base,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.SubmitRate), opts.SubmitBurst),
		output:  utils.NewOutputManager(base.Export.OutputDir, true),
		ctx:     ctx,
	}
}

// Wait blocks until every started run has finished.
func (h *PipelineHandler) Wait() { h.wg.Wait() }

// CreatePipeline submits a new pipeline run
// @Summary Submit a pipeline run
// @Description Start a run of the job-market pipeline. The body may override any field of the server configuration.
// @Tags pipelines
// @Accept json
// @Produce json
// @Param config body model.PipelineConfig false "Configuration overrides"
// @Success 202 {object} map[string]interface{} "Run accepted"
// @Failure 400 {object} map[string]interface{} "Invalid configuration"
// @Failure 429 {object} map[string]interface{} "Too many submissions"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /pipelines [post]
func (h *PipelineHandler) CreatePipeline(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many pipeline submissions, try again later")
		return
	}

	cfg, err := h.decodeConfig(r.Body)
	if err != nil {
		var cfgErr *model.ConfigurationError
		if errors.As(err, &cfgErr) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":    "Invalid configuration",
				"problems": cfgErr.Problems,
			})
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	runID, err := h.start(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save run")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   "Pipeline run accepted",
		"run_id":    runID,
		"status":    store.StatusPending,
		"createdAt": time.Now().UTC(),
	})
}

// decodeConfig overlays the request body on the base configuration and
// validates the result. An empty body runs the base configuration.
func (h *PipelineHandler) decodeConfig(body io.Reader) (model.PipelineConfig, error) {
	// decode onto a deep copy: unmarshalling into h.base directly would
	// write through its slices and maps
	var cfg model.PipelineConfig
	b, err := json.Marshal(h.base)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.Currency.Rates = nil // a body with rates replaces them instead of merging

	raw, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return cfg, err
	}
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := h.confinePaths(cfg); err != nil {
		return cfg, err
	}
	if cfg.Currency.Rates == nil {
		cfg.Currency.Rates = h.base.Currency.Rates
	}
	cfg.Export.OutputDir = h.base.Export.OutputDir
	cfg.Export.PerRun = true

	config.ApplyDefaults(&cfg)
	cfg, v := config.NormalizeAndValidate(cfg)
	if err := v.Err(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// confinePaths rejects file paths in cfg that the base configuration does
// not name and that lie outside the data directory.
func (h *PipelineHandler) confinePaths(cfg model.PipelineConfig) error {
	known := map[string]bool{}
	for _, src := range h.base.Sources {
		known[filepath.Clean(src.Path)] = true
	}
	for _, p := range []string{h.base.InputDir, h.base.Stopwords.File} {
		if p != "" {
			known[filepath.Clean(p)] = true
		}
	}

	var problems []string
	check := func(field, p string) {
		if p == "" || known[filepath.Clean(p)] || h.inDataDir(p) {
			return
		}
		problems = append(problems, fmt.Sprintf("%s %q is outside the data directory", field, p))
	}
	for i, src := range cfg.Sources {
		check(fmt.Sprintf("sources[%d].path", i), src.Path)
	}
	check("input_dir", cfg.InputDir)
	check("stopwords.file", cfg.Stopwords.File)

	if len(problems) > 0 {
		return &model.ConfigurationError{Problems: problems}
	}
	return nil
}

func (h *PipelineHandler) inDataDir(p string) bool {
	if h.opts.DataDir == "" {
		return false
	}
	root, err := filepath.Abs(h.opts.DataDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// start records a run and executes it in the background.
func (h *PipelineHandler) start(cfg model.PipelineConfig) (string, error) {
	runID := uuid.New().String()
	if err := h.store.CreateRun(runID, cfg); err != nil {
		log.Printf("❌ Failed to save run %s: %v", runID, err)
		return "", err
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(h.ctx, h.opts.RunTimeout)
		defer cancel()
		if _, err := pipeline.Run(ctx, runID, cfg, h.store); err != nil {
			log.Printf("❌ Pipeline run %s failed: %v", runID, err)
		}
	}()
	return runID, nil
}

// ListPipelines lists all pipeline runs
// @Summary List pipeline runs
// @Description Get all runs with their current status, newest first
// @Tags pipelines
// @Produce json
// @Success 200 {array} store.RunInfo "Runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /pipelines [get]
func (h *PipelineHandler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch pipelines")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetPipeline returns one run
// @Summary Get pipeline run
// @Description Retrieve the configuration, status and report of a run
// @Tags pipelines
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} store.RunInfo "Run details"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /pipelines/{id} [get]
func (h *PipelineHandler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFrom(w, r, "")
	if !ok {
		return
	}
	run, err := h.store.GetRun(runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetPipelineErrors returns the errors of a run
// @Summary Get pipeline errors
// @Description Retrieve every error recorded during a run
// @Tags pipelines
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run errors"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /pipelines/{id}/errors [get]
func (h *PipelineHandler) GetPipelineErrors(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFrom(w, r, "errors")
	if !ok {
		return
	}
	errs, err := h.store.GetRunErrors(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve errors")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"errors": errs,
		"count":  len(errs),
	})
}

// GetPipelineLabels returns the title groups of a run
// @Summary Get standardized title groups
// @Description Retrieve the clusters and rule groups of a run with their labels
// @Tags pipelines
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Title groups"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /pipelines/{id}/labels [get]
func (h *PipelineHandler) GetPipelineLabels(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFrom(w, r, "labels")
	if !ok {
		return
	}
	labels, err := h.store.GetClusterLabels(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve labels")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"labels": labels,
		"count":  len(labels),
	})
}

// GetPipelineSummary returns the dataset summary of a run
// @Summary Get run summary
// @Description Salary coverage and per-title salary statistics of a finished run
// @Tags pipelines
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.RunSummary "Summary"
// @Failure 404 {object} map[string]interface{} "No summary for this run"
// @Router /pipelines/{id}/summary [get]
func (h *PipelineHandler) GetPipelineSummary(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFrom(w, r, "summary")
	if !ok {
		return
	}
	summary, err := h.store.GetRunSummary(runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No summary for this run")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetPipelineProgress returns the stage progress of a run
// @Summary Get run progress
// @Tags pipelines
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Stage progress"
// @Router /pipelines/{id}/progress [get]
func (h *PipelineHandler) GetPipelineProgress(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFrom(w, r, "progress")
	if !ok {
		return
	}
	progress, err := h.store.GetStageProgress(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":   runID,
		"progress": progress,
		"count":    len(progress),
	})
}

// GET /api/v1/pipelines/{id}/logs?stage=clustering
func (h *PipelineHandler) GetPipelineLogs(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFrom(w, r, "logs")
	if !ok {
		return
	}
	logs, err := h.store.GetPipelineLogs(runID, r.URL.Query().Get("stage"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"logs":   logs,
		"count":  len(logs),
	})
}

// GET /api/v1/pipelines/{id}/files
func (h *PipelineHandler) GetPipelineFiles(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFrom(w, r, "files")
	if !ok {
		return
	}
	files, err := h.store.ListOutputFiles(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve files")
		return
	}
	out := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		out = append(out, map[string]interface{}{
			"name":         f.Name,
			"kind":         f.Kind,
			"size":         f.Size,
			"created_at":   f.CreatedAt,
			"download_url": h.output.GetDownloadURL(runID, f.Name),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"files":  out,
		"count":  len(out),
	})
}

// RetryPipeline re-runs a pipeline
// @Summary Retry pipeline run
// @Description Start a new run with the configuration of an earlier one. With clusters > 0 the cluster count is replaced; without it the cluster count is reduced automatically when the titles cannot support it.
// @Tags pipelines
// @Produce json
// @Param id path string true "Run ID"
// @Param clusters query int false "Cluster count for the new run"
// @Success 202 {object} map[string]interface{} "Retry accepted"
// @Failure 400 {object} map[string]interface{} "Invalid cluster count"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /pipelines/{id}/retry [post]
func (h *PipelineHandler) RetryPipeline(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFrom(w, r, "retry")
	if !ok {
		return
	}
	if !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many pipeline submissions, try again later")
		return
	}

	clusters := 0
	if s := r.URL.Query().Get("clusters"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "clusters must be a positive integer")
			return
		}
		clusters = n
	}

	prev, err := h.store.GetRun(runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch run")
		return
	}

	cfg := pipeline.ReducedConfig(*prev.Config, clusters)
	newID, err := h.start(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save run")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":  "Retry initiated",
		"run_id":   newID,
		"retry_of": runID,
		"clusters": cfg.Clustering.Clusters,
		"status":   store.StatusPending,
	})
}

// DownloadFile serves an output file of a run
// @Summary Download file
// @Description Download an output file written by a run
// @Tags files
// @Produce application/octet-stream
// @Param id path string true "Run ID"
// @Param filename path string true "File name"
// @Success 200 {file} file "File download"
// @Failure 404 {object} map[string]interface{} "File not found"
// @Router /download/{id}/{filename} [get]
func (h *PipelineHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	// URL format: /api/v1/download/{id}/{filename}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 5 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid URL format. Expected 5 parts, got %d", len(parts)))
		return
	}
	runID, fileName := parts[3], parts[4]

	f, err := h.store.GetOutputFile(runID, fileName)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up file")
		return
	}
	if _, err := os.Stat(f.Path); os.IsNotExist(err) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, f.Path)
}

// runIDFrom extracts the run id of /api/v1/pipelines/{id}[/suffix].
func runIDFrom(w http.ResponseWriter, r *http.Request, suffix string) (string, bool) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	want := 4
	if suffix != "" {
		want = 5
	}
	if len(parts) != want || parts[3] == "" || (suffix != "" && parts[4] != suffix) {
		writeError(w, http.StatusNotFound, "Not Found")
		return "", false
	}
	return parts[3], true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"error": msg})
}
