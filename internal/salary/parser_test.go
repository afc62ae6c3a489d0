package salary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-jobmarket-pipeline/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		status Status
	}{
		{"3,500.00", 3500, Parsed},
		{"3.500,00", 3500, Parsed},
		{"S/. 3.500,00 (Mensual)", 3500, Parsed},
		{"S/. 3,500.00", 3500, Parsed},
		{"$ 1,200", 1200, Parsed},
		{"1500", 1500, Parsed},
		{"2.500,5", 2500.5, Parsed},
		{"No disponible", 0, Missing},
		{"", 0, Missing},
		{"A convenir", 0, Missing},
		{"1.2.3", 0, Unparseable},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Parse(tt.in)
			assert.Equal(t, tt.status, got.Status)
			if tt.status == Parsed {
				assert.InDelta(t, tt.want, got.Value, 1e-9)
				assert.NotNil(t, got.Ptr())
			} else {
				assert.Nil(t, got.Ptr())
			}
		})
	}
}

func TestParseSolesPrefix(t *testing.T) {
	assert.InDelta(t, 3500, Parse("S/. 3500").Value, 1e-9)
	assert.InDelta(t, 3500, Parse("s/.3,500.00").Value, 1e-9)
	assert.InDelta(t, 3500, Parse("S/ 3500").Value, 1e-9)

	// only the currency prefix is dropped; a bare leading period is a decimal point
	r := Parse(".75")
	assert.Equal(t, Parsed, r.Status)
	assert.InDelta(t, 0.75, r.Value, 1e-9)

	// a period left by any other prefix still parses as written
	assert.InDelta(t, 0.35, Parse("Bs. 35").Value, 1e-9)
}

func TestParseConventions(t *testing.T) {
	comma := NewParser(model.DecimalComma, nil)
	period := NewParser(model.DecimalPeriod, nil)
	auto := NewParser("", nil)

	assert.InDelta(t, 1.234, comma.Parse("1,234").Value, 1e-9)
	assert.InDelta(t, 1234, period.Parse("1,234").Value, 1e-9)
	assert.InDelta(t, 1234, auto.Parse("1,234").Value, 1e-9)

	assert.InDelta(t, 1234, comma.Parse("1.234").Value, 1e-9)
	assert.InDelta(t, 1.234, period.Parse("1.234").Value, 1e-9)
}

func TestParseValue(t *testing.T) {
	p := NewParser(model.DecimalAuto, []string{"NA"})

	assert.Equal(t, Missing, p.ParseValue(nil).Status)
	assert.Equal(t, Missing, p.ParseValue(true).Status)
	assert.Equal(t, Missing, p.ParseValue("NA").Status)

	r := p.ParseValue(4200.5)
	assert.True(t, r.OK())
	assert.Equal(t, 4200.5, r.Value)

	assert.Equal(t, 3000.0, p.ParseValue("S/ 3000").Value)
}

func TestParseRange(t *testing.T) {
	p := NewParser(model.DecimalAuto, nil)

	low, high := p.ParseRange("S/ 2,000 - 3,000")
	assert.Equal(t, 2000.0, low.Value)
	assert.Equal(t, 3000.0, high.Value)

	low, high = p.ParseRange("5000 a 4000 soles")
	assert.Equal(t, 4000.0, low.Value)
	assert.Equal(t, 5000.0, high.Value)

	low, high = p.ParseRange("S/ 1.800,00")
	assert.Equal(t, 1800.0, low.Value)
	assert.Equal(t, low, high)

	low, _ = p.ParseRange("")
	assert.Equal(t, Missing, low.Status)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "parsed", Parsed.String())
	assert.Equal(t, "missing", Missing.String())
	assert.Equal(t, "unparseable", Unparseable.String())
}
