package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobmarket-pipeline/internal/config"
	"go-jobmarket-pipeline/internal/model"
)

func testPipelineConfig() model.PipelineConfig {
	cfg := config.Defaults()
	cfg.Clustering.Clusters = 2
	cfg.Clustering.NInit = 5
	return cfg
}

func dataset(name string, recs ...model.GenericRecord) Dataset {
	return Dataset{
		Source:  model.SourceConfig{Name: name, Path: name + ".csv", DecimalConvention: model.DecimalAuto},
		Records: recs,
	}
}

func listing(title, lo, hi, cur, period string) model.GenericRecord {
	return model.GenericRecord{
		model.FieldTitle:     title,
		model.FieldSalaryMin: lo,
		model.FieldSalaryMax: hi,
		model.FieldCurrency:  cur,
		model.FieldPeriod:    period,
	}
}

func TestUnifyConvertsToReferenceCurrencyAndPeriod(t *testing.T) {
	u := NewUnifier(testPipelineConfig())
	res, err := u.Unify([]Dataset{dataset("adzuna", listing("Data Analyst", "1200", "2400", "USD", "Annual"))})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, 370.0, rec[model.FieldSalaryMin])
	assert.Equal(t, 740.0, rec[model.FieldSalaryMax])
	assert.Equal(t, "PEN", rec[model.FieldCurrency])
	assert.Equal(t, model.PeriodMonthly, rec[model.FieldPeriod])
}

func TestUnifyCurrencyAliasesAndNullsUseReference(t *testing.T) {
	u := NewUnifier(testPipelineConfig())
	res, err := u.Unify([]Dataset{dataset("ct",
		listing("Contador", "2500", "3000", "S/.", "mensual"),
		listing("Vendedor", "1500", "1500", "NA", "NA"),
	)})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	for _, rec := range res.Records {
		assert.Equal(t, "PEN", rec[model.FieldCurrency])
		assert.Equal(t, model.PeriodMonthly, rec[model.FieldPeriod])
	}
	assert.Equal(t, 2500.0, res.Records[0][model.FieldSalaryMin])
	assert.Equal(t, 1500.0, res.Records[1][model.FieldSalaryMax])
}

func TestUnifyConformsToMasterSchema(t *testing.T) {
	rec := listing("Analista", "2000", "NA", "PEN", "Monthly")
	rec["fecha_publicacion"] = "2024-01-01"
	rec[model.FieldCompany] = "N/A"
	rec[model.FieldRegion] = "  Lima  "

	res, err := NewUnifier(testPipelineConfig()).Unify([]Dataset{dataset("ct", rec)})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	out := res.Records[0]
	assert.Len(t, out, len(model.MasterFields))
	assert.NotContains(t, out, "fecha_publicacion")
	assert.Nil(t, out[model.FieldCompany])
	assert.Nil(t, out[model.FieldListingURL])
	assert.Equal(t, "Lima", out[model.FieldRegion])
	// max copied from min
	assert.Equal(t, 2000.0, out[model.FieldSalaryMax])
}

func TestUnifyDropsRowsWithoutSalaryAndOrdersRange(t *testing.T) {
	res, err := NewUnifier(testPipelineConfig()).Unify([]Dataset{dataset("ct",
		listing("Cajero", "NA", "No disponible", "PEN", "Monthly"),
		listing("Mozo", "3000", "2000", "PEN", "Monthly"),
	)})
	require.NoError(t, err)

	assert.Equal(t, 2, res.InputRows)
	assert.Equal(t, 1, res.DroppedNoSalary)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Mozo", res.Records[0][model.FieldTitle])
	assert.Equal(t, 2000.0, res.Records[0][model.FieldSalaryMin])
	assert.Equal(t, 3000.0, res.Records[0][model.FieldSalaryMax])
}

func TestUnifyDropsRowsWithOnlySalaryMax(t *testing.T) {
	res, err := NewUnifier(testPipelineConfig()).Unify([]Dataset{dataset("ct",
		listing("Chofer", "", "5000", "PEN", "Monthly"),
		listing("Cocinero", "NA", "1800", "PEN", "Monthly"),
	)})
	require.NoError(t, err)

	assert.Equal(t, 2, res.InputRows)
	assert.Equal(t, 2, res.DroppedNoSalary)
	assert.Empty(t, res.Records)
	assert.False(t, res.Empty())
}

func TestUnifyRemovesDuplicatesAcrossSources(t *testing.T) {
	row := func() model.GenericRecord { return listing("Analista de Datos", "3000", "4000", "PEN", "Monthly") }
	res, err := NewUnifier(testPipelineConfig()).Unify([]Dataset{
		dataset("a", row()),
		dataset("b", row()),
	})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.DuplicatesRemoved)
}

func TestUnifyIgnoresDatasetOrder(t *testing.T) {
	a := func() Dataset {
		return dataset("a", listing("Zapatero", "1200", "1300", "PEN", "Monthly"), listing("Abogado", "5000", "6000", "PEN", "Monthly"))
	}
	b := func() Dataset {
		return dataset("b", listing("Medico", "1000", "2000", "USD", "Monthly"))
	}
	u := NewUnifier(testPipelineConfig())

	ab, err := u.Unify([]Dataset{a(), b()})
	require.NoError(t, err)
	ba, err := u.Unify([]Dataset{b(), a()})
	require.NoError(t, err)
	assert.Equal(t, ab.Records, ba.Records)
	assert.Equal(t, "Abogado", ab.Records[0][model.FieldTitle])
}

func TestUnifyIsIdempotent(t *testing.T) {
	u := NewUnifier(testPipelineConfig())
	first, err := u.Unify([]Dataset{dataset("a",
		listing("Data Analyst", "1234.567", "2000", "USD", "Annual"),
		listing("Contador", "2.500,50", "3.000,00", "PEN", "Monthly"),
	)})
	require.NoError(t, err)

	second, err := u.Unify([]Dataset{dataset("master", first.Records...)})
	require.NoError(t, err)
	assert.Equal(t, first.Records, second.Records)
	assert.Zero(t, second.DuplicatesRemoved)
}

func TestUnifyEmptyInput(t *testing.T) {
	res, err := NewUnifier(testPipelineConfig()).Unify(nil)
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Master())
}

func TestUnifyUnknownCurrencyOrPeriod(t *testing.T) {
	u := NewUnifier(testPipelineConfig())

	_, err := u.Unify([]Dataset{dataset("a", listing("Chef", "2000", "2000", "EUR", "Monthly"))})
	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Problems[0], "EUR")

	_, err = u.Unify([]Dataset{dataset("a", listing("Chef", "2000", "2000", "PEN", "weekly"))})
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Problems[0], "weekly")
}

func TestUnifyDedupesByListingURL(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.Dedupe.ByListingURL = true

	withURL := func(title, u string) model.GenericRecord {
		r := listing(title, "2000", "2500", "PEN", "Monthly")
		r[model.FieldListingURL] = u
		return r
	}
	res, err := NewUnifier(cfg).Unify([]Dataset{
		dataset("b", withURL("Backend Developer", "https://Jobs.example.com/o/1?utm_source=mail")),
		dataset("a", withURL("Analista", "https://jobs.example.com/o/1#apply")),
		dataset("c", listing("Sin enlace", "2000", "2500", "PEN", "Monthly"), listing("Otro sin enlace", "2100", "2500", "PEN", "Monthly")),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.URLDuplicatesRemoved)
	require.Len(t, res.Records, 3)
	titles := []interface{}{res.Records[0][model.FieldTitle], res.Records[1][model.FieldTitle], res.Records[2][model.FieldTitle]}
	assert.Equal(t, []interface{}{"Analista", "Otro sin enlace", "Sin enlace"}, titles)
}

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"https://EXAMPLE.com/jobs/1/", "https://example.com/jobs/1"},
		{"https://example.com/jobs/1?utm_source=x&utm_medium=y", "https://example.com/jobs/1"},
		{"https://example.com/jobs?id=7&gclid=abc#top", "https://example.com/jobs?id=7"},
		{"https://example.com/jobs?b=2&a=1", "https://example.com/jobs?a=1&b=2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canonicalizeURL(tt.in), tt.in)
	}
}
