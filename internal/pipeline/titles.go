package pipeline

import (
	"sort"
	"strings"

	"go-jobmarket-pipeline/internal/cluster"
	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/nlp"
	"go-jobmarket-pipeline/internal/store"
)

// TitleResult maps raw titles to their standardized label.
type TitleResult struct {
	Labels       map[string]string
	Groups       []store.ClusterLabel
	RuleLabeled  int // distinct titles labeled by a rule
	ClustersUsed int
}

// NormalizeTitles labels every title in records. Titles matching a title
// rule take the rule label. The remaining distinct titles are clustered and
// each cluster is named from its members, one member per record so frequent
// titles weigh more.
func NormalizeTitles(records []model.GenericRecord, cfg model.PipelineConfig, sw *nlp.StopwordSet, tr *Tracker) (*TitleResult, error) {
	var occurrences []string
	for _, rec := range records {
		if t, ok := rec[model.FieldTitle].(string); ok && !cfg.IsMissing(strings.TrimSpace(t)) {
			occurrences = append(occurrences, t)
		}
	}
	sort.Strings(occurrences)

	res := &TitleResult{Labels: make(map[string]string)}
	rules := cluster.NewRuleClassifier(cfg.TitleRules)

	ruleCounts := map[string]int{}
	var ruleOrder []string
	var rest []string
	for _, t := range occurrences {
		label, ok := rules.Classify(t)
		if !ok {
			rest = append(rest, t)
			continue
		}
		if _, seen := res.Labels[t]; !seen {
			res.RuleLabeled++
		}
		res.Labels[t] = label
		if ruleCounts[label] == 0 {
			ruleOrder = append(ruleOrder, label)
		}
		ruleCounts[label]++
	}

	if len(rest) > 0 {
		assign, m, err := clusterWithPolicy(rest, cfg.Clustering, sw, tr)
		if err != nil {
			return nil, err
		}
		res.ClustersUsed = m.K()

		members := make(map[int][]string)
		for _, t := range rest {
			c := assign[t]
			members[c] = append(members[c], t)
		}
		sel := &cluster.LabelSelector{Stopwords: sw, MinTokenLength: cfg.Clustering.MinTokenLength}
		for _, c := range assign.ClusterIDs() {
			label := sel.Select(members[c])
			res.Groups = append(res.Groups, store.ClusterLabel{
				ClusterID: c,
				Label:     label,
				Origin:    "cluster",
				Members:   len(members[c]),
				TopTerms:  m.TopTerms(c, 5),
			})
			for _, t := range members[c] {
				res.Labels[t] = label
			}
		}
	}

	next := res.ClustersUsed
	for _, label := range ruleOrder {
		res.Groups = append(res.Groups, store.ClusterLabel{
			ClusterID: next,
			Label:     label,
			Origin:    "rule",
			Members:   ruleCounts[label],
		})
		next++
	}
	return res, nil
}

// Relabel writes the standardized title of every record.
func Relabel(records []model.GenericRecord, labels map[string]string) {
	for _, rec := range records {
		t, _ := rec[model.FieldTitle].(string)
		if label, ok := labels[t]; ok {
			rec[model.FieldStandardizedTitle] = label
		} else {
			rec[model.FieldStandardizedTitle] = nil
		}
	}
}
