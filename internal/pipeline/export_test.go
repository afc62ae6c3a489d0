package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobmarket-pipeline/internal/model"
)

func unifiedFixture(t *testing.T) *UnifyResult {
	t.Helper()
	res, err := NewUnifier(testPipelineConfig()).Unify([]Dataset{dataset("a",
		listing("Analista", "2000", "3000", "PEN", "Monthly"),
		listing("Chef", "1200", "NA", "USD", "Monthly"),
	)})
	require.NoError(t, err)
	return res
}

func TestExportWritesMasterFiles(t *testing.T) {
	dir := t.TempDir()
	spec := model.ExportConfig{OutputDir: dir, File: "dataset_master.csv", JSON: true, Summary: true}
	unified := unifiedFixture(t)
	summary := BuildSummary("run-1", testPipelineConfig(), unified, nil)

	results, err := NewExportManager("run-1", spec, nil, NewTracker("run-1", nil)).Export(context.Background(), unified, summary)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.Success)
	}

	f, err := os.Open(filepath.Join(dir, "dataset_master.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.MasterFields, rows[0])
	assert.Equal(t, "Analista", rows[1][0])
	assert.Equal(t, "", rows[1][2], "null company is an empty cell")
	assert.Equal(t, "4440", rows[2][6])

	var sum model.RunSummary
	b, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &sum))
	assert.Equal(t, 2, sum.MasterRecords)

	_, err = os.Stat(filepath.Join(dir, "dataset_master.json"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestExportPerRunDirectory(t *testing.T) {
	dir := t.TempDir()
	spec := model.ExportConfig{OutputDir: dir, File: "out.csv", PerRun: true}

	results, err := NewExportManager("run-7", spec, nil, NewTracker("run-7", nil)).Export(context.Background(), unifiedFixture(t), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "run-7", "out.csv"), results[0].Path)
	assert.Equal(t, "csv", results[0].Type)
}

func TestExportRefusesLockedDirectory(t *testing.T) {
	dir := t.TempDir()
	held := flock.New(filepath.Join(dir, lockFile))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	spec := model.ExportConfig{OutputDir: dir, File: "out.csv"}
	_, err = NewExportManager("run", spec, nil, NewTracker("run", nil)).Export(ctx, unifiedFixture(t), nil)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "out.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportFailedPublishRemovesEarlierFiles(t *testing.T) {
	dir := t.TempDir()
	// a non-empty directory where the JSON file goes makes its rename fail
	// after the CSV has already been moved into place
	blocker := filepath.Join(dir, "out.json")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0755))

	spec := model.ExportConfig{OutputDir: dir, File: "out.csv", JSON: true}
	_, err := NewExportManager("run", spec, nil, NewTracker("run", nil)).Export(context.Background(), unifiedFixture(t), nil)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "out.csv"))
	assert.True(t, os.IsNotExist(statErr), "master file must not survive a failed export")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}
