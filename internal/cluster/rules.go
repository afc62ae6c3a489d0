package cluster

import (
	"strings"

	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/nlp"
)

// RuleClassifier labels titles by keyword before any clustering happens.
// Rules are tried in order; the first whose phrase appears as whole words wins.
type RuleClassifier struct {
	rules []compiledRule
}

type compiledRule struct {
	label   string
	phrases []string
}

// NewRuleClassifier compiles rules. Rules without a label or phrases are skipped.
func NewRuleClassifier(rules []model.TitleRule) *RuleClassifier {
	rc := &RuleClassifier{}
	for _, r := range rules {
		if strings.TrimSpace(r.Label) == "" {
			continue
		}
		cr := compiledRule{label: r.Label}
		for _, p := range r.Any {
			if k := matchKey(p); k != "" {
				cr.phrases = append(cr.phrases, " "+k+" ")
			}
		}
		if len(cr.phrases) > 0 {
			rc.rules = append(rc.rules, cr)
		}
	}
	return rc
}

// Classify returns the label of the first matching rule.
func (rc *RuleClassifier) Classify(title string) (string, bool) {
	if rc == nil || len(rc.rules) == 0 {
		return "", false
	}
	key := " " + matchKey(title) + " "
	for _, r := range rc.rules {
		for _, p := range r.phrases {
			if strings.Contains(key, p) {
				return r.label, true
			}
		}
	}
	return "", false
}

func matchKey(s string) string {
	return nlp.Fold(nlp.NormalizeText(s))
}
