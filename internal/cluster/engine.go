// Package cluster groups free-text job titles and names the groups.
package cluster

import (
	"sort"

	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/nlp"
)

// Assignment maps each distinct raw title to its cluster id.
type Assignment map[string]int

// Members returns the titles of every cluster, each list sorted.
func (a Assignment) Members() map[int][]string {
	out := make(map[int][]string)
	for title, c := range a {
		out[c] = append(out[c], title)
	}
	for c := range out {
		sort.Strings(out[c])
	}
	return out
}

// ClusterIDs returns the distinct ids in use, ascending.
func (a Assignment) ClusterIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, c := range a {
		if !seen[c] {
			seen[c] = true
			ids = append(ids, c)
		}
	}
	sort.Ints(ids)
	return ids
}

// Engine vectorizes and partitions titles.
type Engine struct {
	cfg       model.ClusteringConfig
	stopwords *nlp.StopwordSet
}

// NewEngine returns an engine for one run's clustering settings.
func NewEngine(cfg model.ClusteringConfig, stopwords *nlp.StopwordSet) *Engine {
	return &Engine{cfg: cfg, stopwords: stopwords}
}

// Cluster assigns every distinct title in titles to one of cfg.Clusters clusters.
// Duplicate titles are collapsed first and the distinct set is sorted, so the
// result does not depend on input order.
func (e *Engine) Cluster(titles []string) (Assignment, *Model, error) {
	distinct := Distinct(titles)
	k := e.cfg.Clusters
	if k <= 0 {
		return nil, nil, model.NewConfigurationError("cluster count must be positive, got %d", k)
	}
	if k > len(distinct) {
		return nil, nil, model.NewConfigurationError(
			"cluster count %d exceeds the %d distinct titles", k, len(distinct))
	}

	vec := &Vectorizer{Stopwords: e.stopwords, MinTokenLength: e.cfg.MinTokenLength}
	mat := vec.FitTransform(distinct)
	if avail := mat.Informative(); avail < k {
		return nil, nil, &model.InsufficientDataError{Requested: k, Available: avail}
	}

	m := FitKMeans(mat.Rows, len(mat.Vocabulary), KMeansOptions{
		K:         k,
		Seed:      e.cfg.SeedValue(),
		MaxIter:   e.cfg.MaxIter,
		NInit:     e.cfg.NInit,
		Tolerance: e.cfg.Tolerance,
	})
	m.Vocabulary = mat.Vocabulary

	assign := make(Assignment, len(distinct))
	for i, t := range distinct {
		assign[t] = m.Assigned[i]
	}
	return assign, m, nil
}

// Distinct returns the unique values of titles, sorted.
func Distinct(titles []string) []string {
	seen := make(map[string]bool, len(titles))
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
