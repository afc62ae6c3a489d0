package pipeline

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"go-jobmarket-pipeline/internal/model"
)

// Summary metric names carried in AggregatedResult.Metrics.
const (
	MetricSalaryMin = "salary_min"
	MetricSalaryAvg = "salary_avg"
	MetricSalaryMax = "salary_max"
)

// titleGroup accumulates the salary columns of one standardized title.
type titleGroup struct {
	count int
	mins  []float64
	maxs  []float64
	mids  []float64
}

// AggregateByTitle groups master rows by standardized title and computes the
// row count and salary min/avg/max of each group. The average is taken over
// the midpoints of each row's range. Rows without a standardized title are
// grouped under the empty string.
func AggregateByTitle(rows []model.MasterJobRecord) []model.AggregatedResult {
	groups := make(map[string]*titleGroup)
	for _, r := range rows {
		key := ""
		if r.StandardizedTitle != nil {
			key = *r.StandardizedTitle
		}
		g, ok := groups[key]
		if !ok {
			g = &titleGroup{}
			groups[key] = g
		}
		g.count++
		if r.SalaryMin == nil || r.SalaryMax == nil {
			continue
		}
		g.mins = append(g.mins, *r.SalaryMin)
		g.maxs = append(g.maxs, *r.SalaryMax)
		g.mids = append(g.mids, (*r.SalaryMin+*r.SalaryMax)/2)
	}

	results := make([]model.AggregatedResult, 0, len(groups))
	for key, g := range groups {
		res := model.AggregatedResult{
			GroupKey:    model.FieldStandardizedTitle,
			GroupValue:  key,
			Metrics:     make(map[string]float64, 3),
			RecordCount: g.count,
		}
		if len(g.mins) > 0 {
			res.Metrics[MetricSalaryMin] = roundCents(floats.Min(g.mins))
			res.Metrics[MetricSalaryMax] = roundCents(floats.Max(g.maxs))
			res.Metrics[MetricSalaryAvg] = roundCents(floats.Sum(g.mids) / float64(len(g.mids)))
		}
		results = append(results, res)
	}
	return SortAggregatedResults(results, "count", false)
}

// SortAggregatedResults sorts results by "count", "value" or one of the
// salary metrics. Ties always fall back to the group value so the order is
// stable across runs.
func SortAggregatedResults(results []model.AggregatedResult, sortBy string, ascending bool) []model.AggregatedResult {
	less := func(a, b model.AggregatedResult) (bool, bool) {
		switch sortBy {
		case "count":
			if a.RecordCount != b.RecordCount {
				return a.RecordCount < b.RecordCount, true
			}
		case "value":
			// handled by the tie-break
		default:
			av, bv := a.Metrics[sortBy], b.Metrics[sortBy]
			if av != bv {
				return av < bv, true
			}
		}
		return false, false
	}
	sort.SliceStable(results, func(i, j int) bool {
		if l, decided := less(results[i], results[j]); decided {
			if ascending {
				return l
			}
			return !l
		}
		return results[i].GroupValue < results[j].GroupValue
	})
	return results
}

// BuildSummary derives the run summary from the unification result and the
// title normalization outcome.
func BuildSummary(runID string, cfg model.PipelineConfig, unified *UnifyResult, titles *TitleResult) *model.RunSummary {
	s := &model.RunSummary{
		RunID:       runID,
		SourceCount: unified.SourceCount,
		Currency:    cfg.Currency.Reference,
		Period:      cfg.Currency.Period,
	}
	s.IngestedRecords = unified.InputRows
	s.RecordsWithSalary = unified.InputRows - unified.DroppedNoSalary
	if s.IngestedRecords > 0 {
		s.SalaryCoveragePct = roundCents(100 * float64(s.RecordsWithSalary) / float64(s.IngestedRecords))
	}
	s.MasterRecords = len(unified.Records)
	s.DuplicatesRemoved = unified.DuplicatesRemoved + unified.URLDuplicatesRemoved
	if titles != nil {
		s.Clusters = titles.ClustersUsed
		s.RuleLabeledTitles = titles.RuleLabeled
	}
	s.ByTitle = AggregateByTitle(unified.Master())

	fmt.Printf("📊 Summary: %d/%d listings with salary (%.2f%%), %d master rows, %d title groups\n",
		s.RecordsWithSalary, s.IngestedRecords, s.SalaryCoveragePct, s.MasterRecords, len(s.ByTitle))
	return s
}
