package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/store"
	"go-jobmarket-pipeline/pkg/utils"
)

// SummaryFile is the name of the run summary written next to the master file.
const SummaryFile = "summary.json"

const lockFile = ".export.lock"

// ExportManager writes the master dataset and its companions for one run.
// Files are staged as temporaries and only renamed into place once every
// one of them was written, so readers never see a partial master file.
type ExportManager struct {
	RunID  string
	Spec   model.ExportConfig
	Output *utils.OutputManager

	store   RunStore
	tracker *Tracker
}

// NewExportManager creates an export manager. st may be nil, in which case
// the database export is skipped.
func NewExportManager(runID string, spec model.ExportConfig, st RunStore, tr *Tracker) *ExportManager {
	return &ExportManager{
		RunID:   runID,
		Spec:    spec,
		Output:  utils.NewOutputManager(spec.OutputDir, spec.PerRun),
		store:   st,
		tracker: tr,
	}
}

type stagedFile struct {
	name string
	tmp  string
	path string
	rows int
}

// Export writes the master file (and JSON / summary when enabled), then
// stores the master rows in the run store. File errors are fatal and leave
// no output behind; a database failure is reported in its ExportResult only.
func (em *ExportManager) Export(ctx context.Context, unified *UnifyResult, summary *model.RunSummary) ([]model.ExportResult, error) {
	dir, err := em.Output.RunDir(em.RunID)
	if err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock output directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("output directory %s is locked by another run", dir)
	}
	defer lock.Unlock()

	master := unified.Master()
	var staged []stagedFile
	cleanup := func() {
		for _, f := range staged {
			os.Remove(f.tmp)
		}
	}

	stage := func(name string, rows int, write func(io.Writer) error) error {
		path, err := em.Output.GetOutputFilePath(em.RunID, name)
		if err != nil {
			return err
		}
		tmp, err := writeTemp(dir, name, write)
		if err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		staged = append(staged, stagedFile{name: name, tmp: tmp, path: path, rows: rows})
		return nil
	}

	if err := stage(em.Spec.File, len(unified.Records), func(w io.Writer) error {
		return writeMasterCSV(w, unified.Records)
	}); err != nil {
		cleanup()
		return nil, err
	}
	if em.Spec.JSON {
		if err := stage(jsonName(em.Spec.File), len(master), func(w io.Writer) error {
			return em.writeMasterJSON(w, master)
		}); err != nil {
			cleanup()
			return nil, err
		}
	}
	if em.Spec.Summary && summary != nil {
		if err := stage(SummaryFile, len(summary.ByTitle), func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}); err != nil {
			cleanup()
			return nil, err
		}
	}

	var results []model.ExportResult
	for i, f := range staged {
		if err := os.Rename(f.tmp, f.path); err != nil {
			// unpublish what is already in place so no partial set remains
			for _, done := range staged[:i] {
				os.Remove(done.path)
			}
			for _, rest := range staged[i:] {
				os.Remove(rest.tmp)
			}
			return nil, fmt.Errorf("publish %s: %w", f.name, err)
		}
		results = append(results, model.ExportResult{
			Type:        em.Output.GetFileType(f.path),
			Path:        f.path,
			RecordCount: f.rows,
			Success:     true,
			Timestamp:   time.Now(),
		})
	}
	for _, f := range staged {
		fmt.Printf("✅ Export to file successful: %d records exported to %s\n", f.rows, f.path)
		em.registerFile(f.path)
	}

	if em.Spec.DB && em.store != nil {
		results = append(results, em.exportToDatabase(ctx, master))
	}
	return results, nil
}

// exportToDatabase stores the master rows of the run.
func (em *ExportManager) exportToDatabase(ctx context.Context, master []model.MasterJobRecord) model.ExportResult {
	var n int
	err := withRetry(ctx, StoreRetry, "save master records", func() error {
		var err error
		n, err = em.store.SaveMasterRecords(ctx, em.RunID, master)
		return err
	})

	result := model.ExportResult{
		Type:        "database",
		Path:        "master_records",
		RecordCount: n,
		Success:     err == nil,
		Timestamp:   time.Now(),
	}
	if err != nil {
		result.Error = err.Error()
		fmt.Printf("❌ Export to database failed: %v\n", err)
		em.tracker.RecordError(StageExport, fmt.Errorf("database export: %w", err))
	} else {
		fmt.Printf("✅ Export to database successful: %d records exported\n", n)
	}
	return result
}

func (em *ExportManager) registerFile(path string) {
	if em.store == nil {
		return
	}
	size, _ := em.Output.GetFileSize(path)
	err := em.store.SaveOutputFile(em.RunID, store.OutputFile{
		Name: filepath.Base(path),
		Path: path,
		Kind: em.Output.GetFileType(path),
		Size: size,
	})
	if err != nil {
		fmt.Printf("❌ Failed to register output file %s: %v\n", path, err)
	}
}

// writeMasterJSON writes the typed master rows with export metadata.
func (em *ExportManager) writeMasterJSON(w io.Writer, master []model.MasterJobRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"export_info": map[string]interface{}{
			"run_id":       em.RunID,
			"exported_at":  time.Now().UTC(),
			"record_count": len(master),
			"export_type":  "master_dataset",
		},
		"data": master,
	})
}

// writeMasterCSV writes the master header and one line per record. Null
// cells are written as empty fields.
func writeMasterCSV(w io.Writer, records []model.GenericRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(model.MasterFields); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	row := make([]string, len(model.MasterFields))
	for i, rec := range records {
		for j, f := range model.MasterFields {
			row[j] = model.FormatCell(rec[f])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeTemp writes a temporary sibling of name in dir and returns its path.
func writeTemp(dir, name string, write func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(dir, "."+filepath.Base(name)+"-*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

func jsonName(file string) string {
	base := filepath.Base(file)
	return base[:len(base)-len(filepath.Ext(base))] + ".json"
}
