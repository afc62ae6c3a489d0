package nlp

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// StopwordSet holds noise tokens and multi-word noise phrases. Matching is
// done on folded forms, so "Lurín" and "lurin" are the same entry.
type StopwordSet struct {
	words   map[string]struct{}
	phrases [][]string // folded tokens, longest first
}

// NewStopwordSet builds a set from raw entries. Entries with spaces become phrases.
func NewStopwordSet(entries ...[]string) *StopwordSet {
	s := &StopwordSet{words: make(map[string]struct{})}
	for _, list := range entries {
		s.Add(list...)
	}
	return s
}

// DefaultStopwords returns the built-in Spanish job-ad stopword set.
func DefaultStopwords() *StopwordSet {
	return NewStopwordSet(defaultSpanish, defaultEnglish)
}

// Add inserts entries into the set.
func (s *StopwordSet) Add(entries ...string) {
	for _, e := range entries {
		parts := strings.Fields(Fold(NormalizeText(e)))
		switch len(parts) {
		case 0:
			continue
		case 1:
			s.words[parts[0]] = struct{}{}
		default:
			s.phrases = append(s.phrases, parts)
		}
	}
	sort.SliceStable(s.phrases, func(i, j int) bool {
		return len(s.phrases[i]) > len(s.phrases[j])
	})
}

// Contains reports whether token is a single-word stopword.
func (s *StopwordSet) Contains(token string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[Fold(token)]
	return ok
}

// Len returns the number of entries, words and phrases.
func (s *StopwordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words) + len(s.phrases)
}

// Filter drops stopword phrases and stopwords from tokens, keeping the order
// and original spelling of what remains.
func (s *StopwordSet) Filter(tokens []string) []string {
	if s == nil || len(tokens) == 0 {
		return tokens
	}
	folded := make([]string, len(tokens))
	for i, t := range tokens {
		folded[i] = Fold(t)
	}
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if n := s.phraseAt(folded, i); n > 0 {
			i += n
			continue
		}
		if _, ok := s.words[folded[i]]; !ok {
			out = append(out, tokens[i])
		}
		i++
	}
	return out
}

func (s *StopwordSet) phraseAt(folded []string, i int) int {
	for _, p := range s.phrases {
		if i+len(p) > len(folded) {
			continue
		}
		match := true
		for k, w := range p {
			if folded[i+k] != w {
				match = false
				break
			}
		}
		if match {
			return len(p)
		}
	}
	return 0
}

// LoadStopwordFile reads one entry per line. Blank lines and lines starting
// with '#' are skipped.
func LoadStopwordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stopword file: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stopword file: %w", err)
	}
	return out, nil
}
