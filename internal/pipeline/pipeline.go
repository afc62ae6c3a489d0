package pipeline

import (
	"context"
	"fmt"
	"time"

	"go-jobmarket-pipeline/internal/config"
	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/nlp"
	"go-jobmarket-pipeline/internal/store"
)

// Run executes one pipeline run: it reads every source, labels titles,
// parses salaries, unifies the datasets into the master schema, summarizes
// and exports the result. st may be nil for a run without a ledger.
//
// A run with no source datasets completes with an empty report and writes
// nothing. Any fatal error leaves no master file behind.
func Run(ctx context.Context, runID string, cfg model.PipelineConfig, st RunStore) (report *model.RunReport, err error) {
	start := time.Now()
	fmt.Printf("🚀 Starting pipeline run: %s\n", runID)

	tr := NewTracker(runID, st)
	report = &model.RunReport{RunID: runID, StartTime: start.UTC(), Status: store.StatusRunning}

	defer func() {
		report.EndTime = time.Now().UTC()
		report.Stages = tr.Stages()
		report.Sources = tr.Sources()
		if err != nil {
			report.Status = store.StatusFailed
		}
		if st != nil {
			if e := st.SaveRunReport(runID, report); e != nil {
				fmt.Printf("❌ Failed to save report for run %s: %v\n", runID, e)
			}
		}
	}()

	cfg, validation := config.NormalizeAndValidate(cfg)
	if verr := validation.Err(); verr != nil {
		tr.RecordError(StageIngestion, verr)
		return report, verr
	}
	for _, w := range validation.Warnings {
		fmt.Printf("⚠️ %s\n", w)
	}

	sw, err := BuildStopwords(cfg.Stopwords)
	if err != nil {
		tr.RecordError(StageIngestion, err)
		return report, err
	}
	fmt.Printf("🔤 Stopword set ready: %d entries\n", sw.Len())

	// --- INGESTION STAGE ---
	tr.StartStage(StageIngestion)
	sources, err := ResolveSources(cfg)
	if err != nil {
		tr.FailStage(StageIngestion, err)
		return report, err
	}
	datasets, err := ReadSources(ctx, sources, cfg.Workers.Ingest, tr)
	if err != nil {
		tr.FailStage(StageIngestion, err)
		return report, err
	}
	ingested := 0
	for _, ds := range datasets {
		ingested += len(ds.Records)
	}
	tr.EndStage(StageIngestion, int64(ingested))

	if len(datasets) == 0 {
		fmt.Printf("📄 No source datasets found for run %s, nothing to export\n", runID)
		tr.Log(StageIngestion, "warning", "No source datasets found", nil)
		report.Status = store.StatusEmpty
		report.Empty = true
		return report, nil
	}

	// --- PREPARATION STAGE ---
	tr.StartStage(StagePrepare)
	var all []model.GenericRecord
	for i := range datasets {
		ApplySourceDefaults(&datasets[i], cfg)
		all = append(all, datasets[i].Records...)
	}
	tr.EndStage(StagePrepare, int64(len(all)))

	// --- CLUSTERING STAGE ---
	tr.StartStage(StageTitles)
	titles, err := NormalizeTitles(all, cfg, sw, tr)
	if err != nil {
		tr.FailStage(StageTitles, err)
		return report, err
	}
	Relabel(all, titles.Labels)
	report.ClusterUsed = titles.ClustersUsed
	if st != nil {
		if e := withRetry(ctx, StoreRetry, "save cluster labels", func() error {
			return st.SaveClusterLabels(runID, titles.Groups)
		}); e != nil {
			tr.RecordError(StageTitles, fmt.Errorf("save cluster labels: %w", e))
		}
	}
	tr.EndStage(StageTitles, int64(len(titles.Labels)))
	tr.Log(StageTitles, "info", "Titles standardized", map[string]interface{}{
		"clusters":     titles.ClustersUsed,
		"rule_labeled": titles.RuleLabeled,
		"groups":       len(titles.Groups),
	})

	// --- SALARY STAGE ---
	tr.StartStage(StageSalary)
	var stats SalaryStats
	for i := range datasets {
		ParseSalaries(&datasets[i], cfg, &stats)
	}
	tr.EndStage(StageSalary, int64(stats.Parsed+stats.FromRange))
	tr.Log(StageSalary, "info", "Salaries parsed", map[string]interface{}{
		"parsed":      stats.Parsed,
		"missing":     stats.Missing,
		"unparseable": stats.Unparseable,
		"from_range":  stats.FromRange,
	})

	if err := ctx.Err(); err != nil {
		tr.RecordError(StageSalary, err)
		return report, err
	}

	// --- UNIFICATION STAGE ---
	tr.StartStage(StageUnify)
	unified, err := NewUnifier(cfg).Unify(datasets)
	if err != nil {
		tr.FailStage(StageUnify, err)
		return report, err
	}
	tr.EndStage(StageUnify, int64(len(unified.Records)))
	tr.Log(StageUnify, "info", "Datasets unified", map[string]interface{}{
		"input_rows":             unified.InputRows,
		"dropped_no_salary":      unified.DroppedNoSalary,
		"duplicates_removed":     unified.DuplicatesRemoved,
		"url_duplicates_removed": unified.URLDuplicatesRemoved,
	})

	// --- AGGREGATION STAGE ---
	tr.StartStage(StageAggregate)
	summary := BuildSummary(runID, cfg, unified, titles)
	report.Summary = summary
	tr.EndStage(StageAggregate, int64(len(summary.ByTitle)))

	// --- EXPORT STAGE ---
	tr.StartStage(StageExport)
	exports, err := NewExportManager(runID, cfg.Export, st, tr).Export(ctx, unified, summary)
	if err != nil {
		tr.FailStage(StageExport, err)
		return report, err
	}
	report.Exports = exports
	tr.EndStage(StageExport, int64(len(unified.Records)))

	report.Status = store.StatusCompleted
	fmt.Printf("🏁 Pipeline completed successfully for run: %s in %v\n", runID, time.Since(start))
	return report, nil
}

// BuildStopwords assembles the stopword set a run uses: the built-in list
// when enabled, the entries of the stopword file, and the extra entries.
func BuildStopwords(c model.StopwordConfig) (*nlp.StopwordSet, error) {
	sw := nlp.NewStopwordSet()
	if c.UseDefault {
		sw = nlp.DefaultStopwords()
	}
	if c.File != "" {
		entries, err := nlp.LoadStopwordFile(c.File)
		if err != nil {
			return nil, model.NewConfigurationError("stopwords.file: %v", err)
		}
		sw.Add(entries...)
	}
	sw.Add(c.Extra...)
	return sw, nil
}
