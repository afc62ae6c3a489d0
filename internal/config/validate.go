package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"go-jobmarket-pipeline/internal/model"
)

// Validation collects problems found in a configuration.
type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) addWarn(format string, args ...interface{}) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err returns the errors as one *model.ConfigurationError, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return &model.ConfigurationError{Problems: v.Errors}
}

// Validate checks cfg without normalizing it.
func Validate(cfg model.PipelineConfig) error {
	_, v := NormalizeAndValidate(cfg)
	return v.Err()
}

// NormalizeAndValidate returns a normalized copy of cfg along with every
// problem found. Currency codes are upper cased and lists are trimmed.
func NormalizeAndValidate(cfg model.PipelineConfig) (model.PipelineConfig, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" || seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Stopwords.Extra = trimList(out.Stopwords.Extra)
	out.Currency.Reference = strings.ToUpper(strings.TrimSpace(out.Currency.Reference))

	rates := make(map[string]float64, len(out.Currency.Rates))
	for cur, rate := range out.Currency.Rates {
		code := strings.ToUpper(strings.TrimSpace(cur))
		if rate <= 0 {
			res.addErr("currency.rates.%s must be > 0, got %v", code, rate)
		}
		rates[code] = rate
	}
	out.Currency.Rates = rates

	// ---- clustering ----
	c := out.Clustering
	if c.Clusters <= 0 {
		res.addErr("clustering.clusters must be > 0, got %d", c.Clusters)
	}
	if c.MaxIter <= 0 {
		res.addErr("clustering.max_iter must be > 0")
	}
	if c.NInit <= 0 {
		res.addErr("clustering.n_init must be > 0")
	}
	if c.Tolerance < 0 {
		res.addErr("clustering.tolerance must be >= 0")
	}
	if c.MinTokenLength <= 0 {
		res.addErr("clustering.min_token_length must be > 0")
	}

	// ---- currency ----
	if out.Currency.Reference == "" {
		res.addErr("currency.reference is required")
	}
	if p, ok := NormalizePeriod(out.Currency.Period); !ok {
		res.addErr("currency.period %q is not a known period", out.Currency.Period)
	} else {
		out.Currency.Period = p
	}

	// ---- sources ----
	if len(out.Sources) == 0 && out.InputDir == "" {
		res.addWarn("no sources and no input_dir configured; runs will produce an empty result")
	}
	names := map[string]bool{}
	out.Sources = append([]model.SourceConfig(nil), out.Sources...)
	for i := range out.Sources {
		s := &out.Sources[i]
		where := fmt.Sprintf("sources[%d]", i)
		if s.Name == "" {
			res.addErr("%s.name is required", where)
		} else if names[s.Name] {
			res.addErr("%s.name %q is duplicated", where, s.Name)
		}
		names[s.Name] = true
		if s.Path == "" {
			res.addErr("%s.path is required", where)
		}
		switch s.Format {
		case "csv":
		case "json":
			if s.Layout != "flat" && s.Layout != "adzuna" {
				res.addErr("%s.layout must be flat or adzuna, got %q", where, s.Layout)
			}
		default:
			res.addErr("%s.format must be csv or json, got %q", where, s.Format)
		}
		switch s.Kind {
		case "", model.SourceKindAPI, model.SourceKindScrape:
		default:
			res.addErr("%s.kind must be API or SCRAPE, got %q", where, s.Kind)
		}
		switch s.DecimalConvention {
		case model.DecimalAuto, model.DecimalComma, model.DecimalPeriod:
		default:
			res.addErr("%s.decimal_convention must be auto, comma or period", where)
		}
		if s.DefaultCurrency != "" {
			s.DefaultCurrency = strings.ToUpper(strings.TrimSpace(s.DefaultCurrency))
			if s.DefaultCurrency != out.Currency.Reference {
				if _, ok := out.Currency.Rates[s.DefaultCurrency]; !ok {
					res.addErr("%s.default_currency %s has no exchange rate", where, s.DefaultCurrency)
				}
			}
		}
		if s.DefaultPeriod != "" {
			if p, ok := NormalizePeriod(s.DefaultPeriod); ok {
				s.DefaultPeriod = p
			} else {
				res.addErr("%s.default_period %q is not a known period", where, s.DefaultPeriod)
			}
		}
		for col, field := range s.Columns {
			if !model.IsMasterField(field) {
				res.addErr("%s.columns.%s maps to unknown field %q", where, col, field)
			}
		}
		if s.DecimalConvention == model.DecimalAuto {
			res.addWarn("%s uses the auto decimal convention; values like 1,234 are read as thousands", where)
		}
	}

	// ---- title rules ----
	for i, r := range out.TitleRules {
		if strings.TrimSpace(r.Label) == "" {
			res.addErr("title_rules[%d].label is required", i)
		}
		if len(r.Any) == 0 {
			res.addErr("title_rules[%d].any must have at least 1 term", i)
		}
		for j, term := range r.Any {
			if strings.TrimSpace(term) == "" {
				res.addErr("title_rules[%d].any[%d] cannot be empty", i, j)
			}
		}
	}

	// ---- export ----
	if out.Export.File == "" {
		res.addErr("export.file is required")
	} else if strings.ContainsAny(out.Export.File, `/\`) {
		res.addErr("export.file must be a bare file name")
	} else if out.Export.JSON && strings.EqualFold(filepath.Ext(out.Export.File), ".json") {
		res.addErr("export.file must not be a .json file when export.json is enabled")
	}
	if out.Workers.Ingest < 0 {
		res.addErr("workers.ingest must be >= 0")
	}

	return out, res
}

// NormalizePeriod maps period spellings onto Annual or Monthly.
func NormalizePeriod(p string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "annual", "anual", "yearly", "year", "año", "ano":
		return model.PeriodAnnual, true
	case "monthly", "mensual", "month", "mes":
		return model.PeriodMonthly, true
	}
	return "", false
}
