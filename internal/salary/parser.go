// Package salary extracts numeric figures from free-text salary strings.
package salary

import (
	"regexp"
	"strconv"
	"strings"

	"go-jobmarket-pipeline/internal/model"
)

// Status tells a parsed value apart from the two kinds of null.
type Status int

const (
	// Missing means there was no salary text at all, or a missing sentinel.
	Missing Status = iota
	// Parsed means Value holds the figure.
	Parsed
	// Unparseable means text was present but no number could be read from it.
	Unparseable
)

func (s Status) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Unparseable:
		return "unparseable"
	default:
		return "missing"
	}
}

// Result is the outcome of parsing one salary cell.
type Result struct {
	Value  float64
	Status Status
	Raw    string
}

// OK reports whether a value was parsed.
func (r Result) OK() bool { return r.Status == Parsed }

// Ptr returns the value as a nullable float.
func (r Result) Ptr() *float64 {
	if r.Status != Parsed {
		return nil
	}
	v := r.Value
	return &v
}

var (
	reNonNumeric = regexp.MustCompile(`[^\d,.]`)
	// "S/." keeps its period after the letters are stripped.
	reSolesPrefix = regexp.MustCompile(`^\s*[Ss]/\.`)
)

// Parser parses salary strings for one source.
type Parser struct {
	Convention model.DecimalConvention
	Sentinels  []string
}

// NewParser returns a parser using the given convention. An empty convention means auto.
func NewParser(conv model.DecimalConvention, sentinels []string) *Parser {
	if conv == "" {
		conv = model.DecimalAuto
	}
	return &Parser{Convention: conv, Sentinels: sentinels}
}

// ParseValue accepts any cell value. Non-strings are Missing, except numbers
// which are already parsed.
func (p *Parser) ParseValue(v interface{}) Result {
	switch val := v.(type) {
	case string:
		return p.Parse(val)
	case float64:
		return Result{Value: val, Status: Parsed, Raw: strconv.FormatFloat(val, 'f', -1, 64)}
	case int:
		return Result{Value: float64(val), Status: Parsed, Raw: strconv.Itoa(val)}
	default:
		return Result{Status: Missing}
	}
}

// Parse reads one salary figure from s.
func (p *Parser) Parse(s string) Result {
	res := Result{Raw: s}
	if p.isMissing(s) {
		res.Status = Missing
		return res
	}

	num := reNonNumeric.ReplaceAllString(reSolesPrefix.ReplaceAllString(s, ""), "")
	if num == "" {
		res.Status = Missing
		return res
	}

	var clean string
	if p.decimalIsComma(num) {
		clean = strings.ReplaceAll(num, ".", "")
		if i := strings.LastIndex(clean, ","); i >= 0 {
			clean = clean[:i] + "." + clean[i+1:]
		}
	} else {
		clean = strings.ReplaceAll(num, ",", "")
	}

	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		res.Status = Unparseable
		return res
	}
	res.Value = f
	res.Status = Parsed
	return res
}

func (p *Parser) decimalIsComma(num string) bool {
	switch p.Convention {
	case model.DecimalComma:
		return true
	case model.DecimalPeriod:
		return false
	}
	tail := num
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	return strings.Contains(tail, ",")
}

func (p *Parser) isMissing(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	for _, m := range p.Sentinels {
		if s == m {
			return true
		}
	}
	return false
}

// Parse uses the auto convention and the default "No disponible" sentinel.
func Parse(s string) Result {
	return NewParser(model.DecimalAuto, []string{"No disponible"}).Parse(s)
}
