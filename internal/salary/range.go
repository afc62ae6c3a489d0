package salary

import "strings"

var rangeSeparators = []string{" - ", " – ", "–", " a ", " to "}

// ParseRange splits texts like "S/ 2,000 - 3,000" into a low and a high
// figure. A single figure fills both sides. The two sides come back ordered.
func (p *Parser) ParseRange(s string) (low, high Result) {
	for _, sep := range rangeSeparators {
		parts := strings.SplitN(s, sep, 2)
		if len(parts) != 2 {
			continue
		}
		low, high = p.Parse(parts[0]), p.Parse(parts[1])
		if low.OK() && high.OK() && low.Value > high.Value {
			low, high = high, low
		}
		return low, high
	}
	r := p.Parse(s)
	return r, r
}
