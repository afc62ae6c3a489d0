// Package config loads the YAML pipeline configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"go-jobmarket-pipeline/internal/model"
)

// Defaults returns a configuration with every optional field filled in.
func Defaults() model.PipelineConfig {
	var cfg model.PipelineConfig
	cfg.Stopwords.UseDefault = true
	cfg.Export.Summary = true
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills zero values with their defaults. Explicitly set values are kept.
func ApplyDefaults(cfg *model.PipelineConfig) {
	c := &cfg.Clustering
	if c.Clusters == 0 {
		c.Clusters = 100
	}
	if c.Seed == nil {
		c.Seed = model.Uint64(model.DefaultSeed)
	}
	if c.MaxIter == 0 {
		c.MaxIter = 300
	}
	if c.NInit == 0 {
		c.NInit = 1
	}
	if c.Tolerance == 0 {
		c.Tolerance = 1e-4
	}
	if c.MinTokenLength == 0 {
		c.MinTokenLength = 2
	}

	if cfg.MissingSentinels == nil {
		cfg.MissingSentinels = []string{"NA", "N/A", "No disponible"}
	}

	if cfg.Currency.Reference == "" {
		cfg.Currency.Reference = "PEN"
	}
	if cfg.Currency.Period == "" {
		cfg.Currency.Period = model.PeriodMonthly
	}
	if len(cfg.Currency.Rates) == 0 {
		cfg.Currency.Rates = map[string]float64{"USD": 3.70}
	}

	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "output"
	}
	if cfg.Export.File == "" {
		cfg.Export.File = "dataset_master.csv"
	}
	if cfg.Workers.Ingest == 0 {
		cfg.Workers.Ingest = 4
	}

	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		if s.Format == "" {
			s.Format = "csv"
		}
		if s.Format == "json" && s.Layout == "" {
			s.Layout = "flat"
		}
		if s.DecimalConvention == "" {
			s.DecimalConvention = model.DecimalAuto
		}
	}
}

// Load reads path, applies defaults and validates the result.
func Load(path string) (model.PipelineConfig, error) {
	var cfg model.PipelineConfig
	cfg.Stopwords.UseDefault = true
	cfg.Export.Summary = true

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	ApplyDefaults(&cfg)

	cfg, v := NormalizeAndValidate(cfg)
	if err := v.Err(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
