package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobmarket-pipeline/internal/model"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 100, cfg.Clustering.Clusters)
	require.NotNil(t, cfg.Clustering.Seed)
	assert.Equal(t, uint64(42), *cfg.Clustering.Seed)
	assert.Equal(t, "PEN", cfg.Currency.Reference)
	assert.Equal(t, model.PeriodMonthly, cfg.Currency.Period)
	assert.Equal(t, 3.70, cfg.Currency.Rates["USD"])
	assert.Equal(t, []string{"NA", "N/A", "No disponible"}, cfg.MissingSentinels)
	assert.True(t, cfg.Stopwords.UseDefault)
	assert.NoError(t, Validate(cfg))
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "pipeline.yml"))
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "title", cfg.Sources[0].Columns["puesto_trabajo"])
	assert.Equal(t, "adzuna", cfg.Sources[1].Layout)
	assert.Equal(t, model.PeriodAnnual, cfg.Sources[1].DefaultPeriod)
	assert.True(t, cfg.Dedupe.ByListingURL)
	assert.Len(t, cfg.TitleRules, 3)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yml")
	require.NoError(t, os.WriteFile(path, []byte("clustering:\n  clusters: 5\ncurrency:\n  rates:\n    usd: 3.8\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Clustering.Clusters)
	assert.Equal(t, 300, cfg.Clustering.MaxIter)
	assert.Equal(t, 3.8, cfg.Currency.Rates["USD"])
	assert.Equal(t, "dataset_master.csv", cfg.Export.File)
}

func TestLoadKeepsExplicitZeroSeed(t *testing.T) {
	dir := t.TempDir()
	zero := filepath.Join(dir, "zero.yml")
	require.NoError(t, os.WriteFile(zero, []byte("clustering:\n  clusters: 5\n  seed: 0\n"), 0o644))
	unset := filepath.Join(dir, "unset.yml")
	require.NoError(t, os.WriteFile(unset, []byte("clustering:\n  clusters: 5\n"), 0o644))

	cfg, err := Load(zero)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cfg.Clustering.SeedValue())

	cfg, err = Load(unset)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSeed, cfg.Clustering.SeedValue())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Clustering.Clusters = -1
	cfg.Currency.Period = "Weekly"
	cfg.Currency.Rates["EUR"] = 0
	cfg.Sources = []model.SourceConfig{
		{Name: "a", Path: "a.csv", Format: "xml", DecimalConvention: model.DecimalAuto},
		{Name: "a", Path: "", Format: "csv", DecimalConvention: "weird", DefaultCurrency: "GBP",
			Columns: map[string]string{"x": "nope"}},
	}
	cfg.TitleRules = []model.TitleRule{{Label: "", Any: nil}}

	err := Validate(cfg)
	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.GreaterOrEqual(t, len(cfgErr.Problems), 10)
	assert.Contains(t, err.Error(), "clustering.clusters")
	assert.Contains(t, err.Error(), "sources[1].default_currency GBP")
}

func TestNormalizePeriod(t *testing.T) {
	for _, in := range []string{"Annual", "anual", "YEARLY"} {
		p, ok := NormalizePeriod(in)
		assert.True(t, ok)
		assert.Equal(t, model.PeriodAnnual, p)
	}
	p, ok := NormalizePeriod("Mensual")
	assert.True(t, ok)
	assert.Equal(t, model.PeriodMonthly, p)

	_, ok = NormalizePeriod("hourly")
	assert.False(t, ok)
}

func TestSaveAtomicAndEnsureUserConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg", "pipeline.yml")

	cfg := Defaults()
	cfg.Clustering.Clusters = 12
	require.NoError(t, SaveAtomic(path, cfg))
	require.NoError(t, SaveAtomic(path, cfg))
	_, err := os.Stat(path + ".bak")
	assert.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Clustering.Clusters)

	bad := Defaults()
	bad.Clustering.Clusters = -3
	assert.Error(t, SaveAtomic(path, bad))

	userDir := filepath.Join(dir, "data")
	userPath, err := EnsureUserConfig(userDir, path)
	require.NoError(t, err)
	assert.FileExists(t, userPath)

	again, err := EnsureUserConfig(userDir, "does-not-exist.yml")
	require.NoError(t, err)
	assert.Equal(t, userPath, again)
}
