package model

// DecimalConvention selects how a source writes salary separators.
type DecimalConvention string

const (
	// DecimalAuto guesses per value: a comma in the last three characters is decimal.
	DecimalAuto DecimalConvention = "auto"
	// DecimalComma treats commas as decimal points and periods as thousands separators.
	DecimalComma DecimalConvention = "comma"
	// DecimalPeriod treats periods as decimal points and commas as thousands separators.
	DecimalPeriod DecimalConvention = "period"
)

// Pay periods recognized by the unifier.
const (
	PeriodAnnual  = "Annual"
	PeriodMonthly = "Monthly"
)

// SourceConfig describes one per-source dataset file.
type SourceConfig struct {
	Name     string     `yaml:"name" json:"name"`
	Path     string     `yaml:"path" json:"path"`
	Format   string     `yaml:"format" json:"format"`                     // csv, json
	Layout   string     `yaml:"layout,omitempty" json:"layout,omitempty"` // json only: flat, adzuna
	Platform string     `yaml:"platform" json:"platform"`
	Kind     SourceKind `yaml:"kind" json:"kind"`

	DefaultCurrency   string            `yaml:"default_currency,omitempty" json:"default_currency,omitempty"`
	DefaultPeriod     string            `yaml:"default_period,omitempty" json:"default_period,omitempty"`
	DecimalConvention DecimalConvention `yaml:"decimal_convention,omitempty" json:"decimal_convention,omitempty"`

	RequiredColumns []string          `yaml:"required_columns,omitempty" json:"required_columns,omitempty"`
	Columns         map[string]string `yaml:"columns,omitempty" json:"columns,omitempty"` // source header -> master field
}

// ClusteringConfig drives the title clustering stage.
type ClusteringConfig struct {
	Clusters                 int     `yaml:"clusters" json:"clusters"`
	Seed                     *uint64 `yaml:"seed" json:"seed"` // nil means DefaultSeed; 0 is a valid seed
	MaxIter                  int     `yaml:"max_iter" json:"max_iter"`
	NInit                    int     `yaml:"n_init" json:"n_init"`
	Tolerance                float64 `yaml:"tolerance" json:"tolerance"`
	MinTokenLength           int     `yaml:"min_token_length" json:"min_token_length"`
	ReduceOnInsufficientData bool    `yaml:"reduce_on_insufficient_data" json:"reduce_on_insufficient_data"`
}

// DefaultSeed seeds clustering when the configuration names no seed.
const DefaultSeed uint64 = 42

// SeedValue returns the configured seed, or DefaultSeed when unset.
func (c ClusteringConfig) SeedValue() uint64 {
	if c.Seed == nil {
		return DefaultSeed
	}
	return *c.Seed
}

// Uint64 returns a pointer to v, for optional config fields.
func Uint64(v uint64) *uint64 { return &v }

// TitleRule labels every title containing any of its phrases, bypassing clustering.
type TitleRule struct {
	Label string   `yaml:"label" json:"label"`
	Any   []string `yaml:"any" json:"any"`
}

// StopwordConfig selects the noise tokens removed before vectorizing.
type StopwordConfig struct {
	UseDefault bool     `yaml:"use_default" json:"use_default"`
	Extra      []string `yaml:"extra,omitempty" json:"extra,omitempty"`
	File       string   `yaml:"file,omitempty" json:"file,omitempty"`
}

// CurrencyConfig holds the reference currency/period and the rate table.
// Rates are expressed as reference-currency units per one unit of the keyed currency.
type CurrencyConfig struct {
	Reference string             `yaml:"reference" json:"reference"`
	Period    string             `yaml:"period" json:"period"`
	Rates     map[string]float64 `yaml:"rates" json:"rates"`
}

// DedupeConfig controls extra deduplication beyond exact full-row duplicates.
type DedupeConfig struct {
	ByListingURL bool `yaml:"by_listing_url" json:"by_listing_url"`
}

// ExportConfig defines export targets
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	File      string `yaml:"file" json:"file"`       // e.g., dataset_master.csv
	JSON      bool   `yaml:"json" json:"json"`       // also write records as JSON
	DB        bool   `yaml:"db" json:"db"`           // also persist rows in the run store
	Summary   bool   `yaml:"summary" json:"summary"` // write summary.json
	PerRun    bool   `yaml:"per_run" json:"per_run"` // write into output_dir/<run id>
}

// Workers defines number of workers per stage
type Workers struct {
	Ingest int `yaml:"ingest" json:"ingest"`
}

// PipelineConfig is the immutable configuration of one pipeline run.
type PipelineConfig struct {
	Sources          []SourceConfig   `yaml:"sources" json:"sources"`
	InputDir         string           `yaml:"input_dir,omitempty" json:"input_dir,omitempty"`
	Clustering       ClusteringConfig `yaml:"clustering" json:"clustering"`
	TitleRules       []TitleRule      `yaml:"title_rules,omitempty" json:"title_rules,omitempty"`
	Stopwords        StopwordConfig   `yaml:"stopwords" json:"stopwords"`
	MissingSentinels []string         `yaml:"missing_sentinels" json:"missing_sentinels"`
	Currency         CurrencyConfig   `yaml:"currency" json:"currency"`
	Dedupe           DedupeConfig     `yaml:"dedupe" json:"dedupe"`
	Export           ExportConfig     `yaml:"export" json:"export"`
	Workers          Workers          `yaml:"workers" json:"workers"`
}

// IsMissing reports whether s is one of the configured missing sentinels.
func (c PipelineConfig) IsMissing(s string) bool {
	if s == "" {
		return true
	}
	for _, m := range c.MissingSentinels {
		if s == m {
			return true
		}
	}
	return false
}
