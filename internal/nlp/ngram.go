package nlp

import "strings"

// NGrams returns every contiguous run of n tokens joined by a single space.
func NGrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

// Counter counts strings and remembers the order they were first seen in,
// which breaks ties between equal counts.
type Counter struct {
	counts map[string]int
	order  []string
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

func (c *Counter) Add(items ...string) {
	for _, it := range items {
		if _, ok := c.counts[it]; !ok {
			c.order = append(c.order, it)
		}
		c.counts[it]++
	}
}

// MostCommon returns the highest count item, earliest first seen on ties.
func (c *Counter) MostCommon() (string, int, bool) {
	best, bestN := "", 0
	for _, it := range c.order {
		if n := c.counts[it]; n > bestN {
			best, bestN = it, n
		}
	}
	return best, bestN, bestN > 0
}
