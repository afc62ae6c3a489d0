package cluster

import (
	"sort"

	"go-jobmarket-pipeline/internal/nlp"
)

// UnidentifiedRole labels a cluster with no members.
const UnidentifiedRole = "Unidentified Role"

// Labels maps cluster id to its display label. Labels may collide.
type Labels map[int]string

// LabelSelector derives a display label from the titles of one cluster.
type LabelSelector struct {
	Stopwords      *nlp.StopwordSet
	MinTokenLength int
}

// Select picks the label for one cluster. titles holds every member
// occurrence, duplicates included, in a stable order.
//
// Short titles (1 to 4 words) are the candidates. The most frequent 3 or
// 4 word phrase among them wins, title cased. When no phrase can be formed
// the most common candidate string is used as is.
func (s *LabelSelector) Select(titles []string) string {
	if len(titles) == 0 {
		return UnidentifiedRole
	}

	var candidates []string
	for _, t := range titles {
		if n := nlp.WordCount(t); n >= 1 && n <= 4 {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, titles...)
		sort.SliceStable(candidates, func(i, j int) bool {
			return nlp.WordCount(candidates[i]) < nlp.WordCount(candidates[j])
		})
	}

	minLen := s.MinTokenLength
	if minLen <= 0 {
		minLen = 2
	}
	grams := nlp.NewCounter()
	for _, c := range candidates {
		toks := s.Stopwords.Filter(nlp.Tokenize(c, minLen))
		grams.Add(nlp.NGrams(toks, 3)...)
		grams.Add(nlp.NGrams(toks, 4)...)
	}
	if best, _, ok := grams.MostCommon(); ok {
		return nlp.TitleCase(best)
	}

	raw := nlp.NewCounter()
	raw.Add(candidates...)
	best, _, _ := raw.MostCommon()
	if best == "" {
		return UnidentifiedRole
	}
	return best
}

// LabelAll labels every cluster in members.
func (s *LabelSelector) LabelAll(members map[int][]string) Labels {
	out := make(Labels, len(members))
	for c, titles := range members {
		out[c] = s.Select(titles)
	}
	return out
}
