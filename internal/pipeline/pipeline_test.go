package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/store"
)

const computrabajoCSV = `puesto_trabajo,empresa,salario_min,salario_max,url
Python Developer,Acme,"4,000","5,000",https://ct.example/1
Senior Python Developer,Initech,5500,6000,https://ct.example/2
Data Analyst,Globex,No disponible,No disponible,https://ct.example/3
Junior Data Analyst,Umbrella,2500,3000,https://ct.example/4
Python Developer,Acme,"4,000","5,000",https://ct.example/1
`

const adzunaJSON = `[
 {"title": "Data Analyst", "redirect_url": "https://az.example/9?utm_source=feed",
  "salary_min": 24000, "salary_max": 36000, "company": {"display_name": "Hooli"},
  "location": {"area": ["Peru", "Lima"]}, "category": {"label": "IT Jobs"}}
]`

func e2eConfig(t *testing.T) model.PipelineConfig {
	t.Helper()
	in := t.TempDir()
	cfg := testPipelineConfig()
	cfg.Sources = []model.SourceConfig{
		{
			Name:              "computrabajo",
			Path:              writeFile(t, in, "computrabajo.csv", computrabajoCSV),
			Format:            "csv",
			Kind:              model.SourceKindScrape,
			DefaultCurrency:   "PEN",
			DefaultPeriod:     "Monthly",
			DecimalConvention: model.DecimalAuto,
			Columns: map[string]string{
				"puesto_trabajo": model.FieldTitle,
				"empresa":        model.FieldCompany,
				"salario_min":    model.FieldSalaryMin,
				"salario_max":    model.FieldSalaryMax,
				"url":            model.FieldListingURL,
			},
		},
		{
			Name:              "adzuna",
			Path:              writeFile(t, in, "adzuna.json", adzunaJSON),
			Format:            "json",
			Layout:            "adzuna",
			Kind:              model.SourceKindAPI,
			DefaultCurrency:   "USD",
			DefaultPeriod:     "Annual",
			DecimalConvention: model.DecimalPeriod,
		},
	}
	cfg.Export.OutputDir = t.TempDir()
	cfg.Export.DB = true
	cfg.Dedupe.ByListingURL = true
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := e2eConfig(t)
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.CreateRun("run-e2e", cfg))

	report, err := Run(context.Background(), "run-e2e", cfg, st)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, report.Status)
	assert.False(t, report.Empty)
	assert.Equal(t, 2, report.ClusterUsed)
	assert.Len(t, report.Sources, 2)

	s := report.Summary
	require.NotNil(t, s)
	assert.Equal(t, 6, s.IngestedRecords)
	assert.Equal(t, 5, s.RecordsWithSalary)
	assert.Equal(t, 1, s.DuplicatesRemoved)
	assert.Equal(t, 4, s.MasterRecords)
	assert.Equal(t, "PEN", s.Currency)

	_, err = os.Stat(filepath.Join(cfg.Export.OutputDir, "dataset_master.csv"))
	require.NoError(t, err)

	n, err := st.CountMasterRecords("run-e2e")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	labels, err := st.GetClusterLabels("run-e2e")
	require.NoError(t, err)
	assert.Len(t, labels, 2)

	files, err := st.ListOutputFiles("run-e2e")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	run, err := st.GetRun("run-e2e")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, run.Status)
}

func TestRunConvertsAnnualUSD(t *testing.T) {
	cfg := e2eConfig(t)
	_, err := Run(context.Background(), "run-usd", cfg, nil)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(cfg.Export.OutputDir, cfg.Export.File))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	var hooli []string
	for _, row := range rows[1:] {
		if row[2] == "Hooli" {
			hooli = row
		}
	}
	require.NotNil(t, hooli)
	assert.Equal(t, "7400", hooli[6])
	assert.Equal(t, "11100", hooli[7])
	assert.Equal(t, "PEN", hooli[8])
	assert.Equal(t, "Monthly", hooli[9])
	assert.Equal(t, "adzuna", hooli[12])
	assert.Equal(t, "API", hooli[13])
}

func TestRunWithoutSourcesIsEmpty(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.InputDir = filepath.Join(t.TempDir(), "nothing-here")
	cfg.Export.OutputDir = t.TempDir()

	report, err := Run(context.Background(), "run-empty", cfg, nil)
	require.NoError(t, err)
	assert.True(t, report.Empty)
	assert.Equal(t, store.StatusEmpty, report.Status)
	assert.Nil(t, report.Summary)

	_, err = os.Stat(filepath.Join(cfg.Export.OutputDir, cfg.Export.File))
	assert.True(t, os.IsNotExist(err))
}

func TestRunFatalErrorsLeaveNoOutput(t *testing.T) {
	t.Run("unreadable source", func(t *testing.T) {
		cfg := e2eConfig(t)
		cfg.Sources[1].Path = filepath.Join(t.TempDir(), "missing.json")

		report, err := Run(context.Background(), "run-bad", cfg, nil)
		var srcErr *model.SourceReadError
		require.True(t, errors.As(err, &srcErr))
		assert.Equal(t, store.StatusFailed, report.Status)
		_, statErr := os.Stat(filepath.Join(cfg.Export.OutputDir, cfg.Export.File))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("bad cluster count", func(t *testing.T) {
		cfg := e2eConfig(t)
		cfg.Clustering.Clusters = 0

		_, err := Run(context.Background(), "run-k0", cfg, nil)
		var cfgErr *model.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
	})

	t.Run("missing exchange rate", func(t *testing.T) {
		cfg := e2eConfig(t)
		cfg.Currency.Rates = map[string]float64{"EUR": 4.1}

		_, err := Run(context.Background(), "run-rate", cfg, nil)
		var cfgErr *model.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		_, statErr := os.Stat(filepath.Join(cfg.Export.OutputDir, cfg.Export.File))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestBuildStopwords(t *testing.T) {
	file := writeFile(t, t.TempDir(), "stop.txt", "# company names\nacme\n\nglobex corp\n")

	sw, err := BuildStopwords(model.StopwordConfig{File: file, Extra: []string{"remoto"}})
	require.NoError(t, err)
	assert.True(t, sw.Contains("acme"))
	assert.True(t, sw.Contains("remoto"))
	assert.False(t, sw.Contains("urgente"))
	// acme, the "globex corp" phrase and remoto
	assert.Equal(t, 3, sw.Len())

	_, err = BuildStopwords(model.StopwordConfig{File: filepath.Join(t.TempDir(), "none.txt")})
	var cfgErr *model.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}
