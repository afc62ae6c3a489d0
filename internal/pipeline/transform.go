package pipeline

import (
	"strings"

	"go-jobmarket-pipeline/internal/config"
	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/salary"
)

// SalaryStats counts salary parsing outcomes across a run.
type SalaryStats struct {
	Parsed      int `json:"parsed"`
	Missing     int `json:"missing"`
	Unparseable int `json:"unparseable"`
	FromRange   int `json:"from_range"`
}

// ApplySourceDefaults fills currency, period, platform and kind from the
// source configuration wherever a record leaves them empty, and sanitizes
// the text fields.
func ApplySourceDefaults(ds *Dataset, cfg model.PipelineConfig) {
	src := ds.Source
	platform := src.Platform
	if platform == "" {
		platform = src.Name
	}
	for _, rec := range ds.Records {
		SanitizeRecord(rec)
		fill := func(field, value string) {
			if value == "" {
				return
			}
			if s, ok := rec[field].(string); ok && !cfg.IsMissing(strings.TrimSpace(s)) {
				return
			}
			rec[field] = value
		}
		fill(model.FieldCurrency, src.DefaultCurrency)
		fill(model.FieldPeriod, src.DefaultPeriod)
		fill(model.FieldSourcePlatform, platform)
		fill(model.FieldSourceKind, string(src.Kind))

		if p, ok := rec[model.FieldPeriod].(string); ok {
			if norm, known := config.NormalizePeriod(p); known {
				rec[model.FieldPeriod] = norm
			}
		}
	}
}

// ParseSalaries turns salary_min / salary_max text into numbers using the
// source's decimal convention. Records with neither but a raw salary text
// get both from the range parser. Unparseable text becomes null.
func ParseSalaries(ds *Dataset, cfg model.PipelineConfig, stats *SalaryStats) {
	p := salary.NewParser(ds.Source.DecimalConvention, cfg.MissingSentinels)
	for _, rec := range ds.Records {
		lo := parseField(p, rec, model.FieldSalaryMin, stats)
		hi := parseField(p, rec, model.FieldSalaryMax, stats)
		if lo != nil || hi != nil {
			continue
		}
		raw, ok := rec[model.FieldRawSalary].(string)
		if !ok {
			continue
		}
		low, high := p.ParseRange(raw)
		if low.OK() || high.OK() {
			stats.FromRange++
			rec[model.FieldSalaryMin] = ptrValue(low.Ptr())
			rec[model.FieldSalaryMax] = ptrValue(high.Ptr())
		} else if low.Status == salary.Unparseable {
			stats.Unparseable++
		}
	}
}

func parseField(p *salary.Parser, rec model.GenericRecord, field string, stats *SalaryStats) *float64 {
	v, present := rec[field]
	if !present {
		return nil
	}
	r := p.ParseValue(v)
	switch r.Status {
	case salary.Parsed:
		stats.Parsed++
	case salary.Unparseable:
		stats.Unparseable++
	default:
		stats.Missing++
	}
	rec[field] = ptrValue(r.Ptr())
	return r.Ptr()
}

func ptrValue(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
