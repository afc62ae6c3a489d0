package pipeline

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"go-jobmarket-pipeline/internal/config"
	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/salary"
)

// UnifyResult is the master dataset plus what happened on the way.
type UnifyResult struct {
	Records              []model.GenericRecord
	SourceCount          int
	InputRows            int
	DroppedNoSalary      int
	DuplicatesRemoved    int
	URLDuplicatesRemoved int
}

// Empty reports that there were no source datasets at all. A run whose
// sources had rows but none with a salary is not empty.
func (r *UnifyResult) Empty() bool { return r.SourceCount == 0 }

// Master returns the records in their typed form.
func (r *UnifyResult) Master() []model.MasterJobRecord {
	out := make([]model.MasterJobRecord, len(r.Records))
	for i, rec := range r.Records {
		out[i] = model.MasterFromRecord(rec)
	}
	return out
}

var currencyAliases = map[string]string{
	"S/":    "PEN",
	"S/.":   "PEN",
	"SOLES": "PEN",
	"SOL":   "PEN",
	"US$":   "USD",
	"$":     "USD",
	"USD$":  "USD",
}

// Unifier merges per-source datasets into the master schema.
type Unifier struct {
	cfg model.PipelineConfig
}

func NewUnifier(cfg model.PipelineConfig) *Unifier {
	return &Unifier{cfg: cfg}
}

// Unify conforms every dataset to the master schema, concatenates them,
// nulls missing sentinels, drops rows without a salary, converts salaries to
// the reference currency and period, and removes duplicates. Rows come back
// sorted by their content, so the order of datasets does not matter.
func (u *Unifier) Unify(datasets []Dataset) (*UnifyResult, error) {
	res := &UnifyResult{SourceCount: len(datasets)}
	if res.Empty() {
		return res, nil
	}

	var rows []model.GenericRecord
	for _, ds := range datasets {
		p := salary.NewParser(ds.Source.DecimalConvention, u.cfg.MissingSentinels)
		for _, rec := range ds.Records {
			rows = append(rows, u.conform(rec, p))
		}
	}
	res.InputRows = len(rows)

	kept := rows[:0]
	for _, rec := range rows {
		if fillSalaryRange(rec) {
			kept = append(kept, rec)
		}
	}
	res.DroppedNoSalary = len(rows) - len(kept)
	rows = kept

	problems := map[string]bool{}
	for _, rec := range rows {
		if err := u.standardize(rec); err != "" {
			problems[err] = true
		}
	}
	if len(problems) > 0 {
		cfgErr := &model.ConfigurationError{}
		for p := range problems {
			cfgErr.Problems = append(cfgErr.Problems, p)
		}
		sort.Strings(cfgErr.Problems)
		return nil, cfgErr
	}

	rows, res.DuplicatesRemoved = dedupeRows(rows)
	if u.cfg.Dedupe.ByListingURL {
		rows, res.URLDuplicatesRemoved = dedupeByURL(rows)
	}
	res.Records = rows
	return res, nil
}

// conform builds a master-shaped copy of rec: every master field present,
// nothing else, missing sentinels as nil, salary text parsed.
func (u *Unifier) conform(rec model.GenericRecord, p *salary.Parser) model.GenericRecord {
	out := make(model.GenericRecord, len(model.MasterFields))
	for _, f := range model.MasterFields {
		v := rec[f]
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if u.cfg.IsMissing(s) {
				v = nil
			} else {
				v = s
			}
		}
		switch f {
		case model.FieldSalaryMin, model.FieldSalaryMax:
			v = ptrValue(p.ParseValue(v).Ptr())
		default:
			if n, ok := v.(float64); ok {
				v = model.FormatCell(n)
			}
		}
		out[f] = v
	}
	return out
}

// fillSalaryRange fills a missing salary_max from salary_min and orders
// the pair. It reports whether the row keeps a salary: salary_min is the
// primary figure, so a row without it is dropped even if salary_max is set.
func fillSalaryRange(rec model.GenericRecord) bool {
	lo, hasLo := rec[model.FieldSalaryMin].(float64)
	if !hasLo {
		return false
	}
	hi, hasHi := rec[model.FieldSalaryMax].(float64)
	if !hasHi {
		hi = lo
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	rec[model.FieldSalaryMin] = lo
	rec[model.FieldSalaryMax] = hi
	return true
}

// standardize converts the salary of rec into the reference currency and
// period. It returns a problem description for unknown currencies or periods.
func (u *Unifier) standardize(rec model.GenericRecord) string {
	ref := u.cfg.Currency.Reference
	refPeriod := u.cfg.Currency.Period

	cur := ref
	if s, ok := rec[model.FieldCurrency].(string); ok {
		cur = strings.ToUpper(s)
		if alias, ok := currencyAliases[cur]; ok {
			cur = alias
		}
	}
	period := refPeriod
	if s, ok := rec[model.FieldPeriod].(string); ok {
		p, known := config.NormalizePeriod(s)
		if !known {
			return fmt.Sprintf("unknown salary period %q", s)
		}
		period = p
	}

	factor := 1.0
	switch {
	case period == model.PeriodAnnual && refPeriod == model.PeriodMonthly:
		factor /= 12
	case period == model.PeriodMonthly && refPeriod == model.PeriodAnnual:
		factor *= 12
	}
	if cur != ref {
		rate, ok := u.cfg.Currency.Rates[cur]
		if !ok {
			return fmt.Sprintf("no exchange rate for currency %q into %s", cur, ref)
		}
		factor *= rate
	}

	for _, f := range []string{model.FieldSalaryMin, model.FieldSalaryMax} {
		rec[f] = roundCents(rec[f].(float64) * factor)
	}
	rec[model.FieldCurrency] = ref
	rec[model.FieldPeriod] = refPeriod
	return ""
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// rowKey renders a row in master field order for sorting and exact duplicate detection.
func rowKey(rec model.GenericRecord) string {
	parts := make([]string, len(model.MasterFields))
	for i, f := range model.MasterFields {
		v := rec[f]
		if v == nil {
			parts[i] = "\x00"
			continue
		}
		parts[i] = model.FormatCell(v)
	}
	return strings.Join(parts, "\x1f")
}

// dedupeRows sorts rows by content and drops exact duplicates.
func dedupeRows(rows []model.GenericRecord) ([]model.GenericRecord, int) {
	keys := make([]string, len(rows))
	idx := make([]int, len(rows))
	for i, r := range rows {
		keys[i] = rowKey(r)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })

	out := make([]model.GenericRecord, 0, len(rows))
	prev := ""
	for n, i := range idx {
		if n > 0 && keys[i] == prev {
			continue
		}
		prev = keys[i]
		out = append(out, rows[i])
	}
	return out, len(rows) - len(out)
}

// dedupeByURL keeps the first row, in content order, per canonical listing URL.
// Rows without a URL are all kept.
func dedupeByURL(rows []model.GenericRecord) ([]model.GenericRecord, int) {
	seen := make(map[string]bool, len(rows))
	out := make([]model.GenericRecord, 0, len(rows))
	for _, r := range rows {
		raw, ok := r[model.FieldListingURL].(string)
		if !ok {
			out = append(out, r)
			continue
		}
		key := canonicalizeURL(raw)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}

func canonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" || lk == "mkt_tok" {
			q.Del(k)
		}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}
