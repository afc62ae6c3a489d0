package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/nlp"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Analista&nbsp;<b>Sr</b>", "Analista Sr"},
		{"Ingeniero &amp; Arquitecto", "Ingeniero & Arquitecto"},
		{"  Chofer   de\tcamión ", "Chofer de camión"},
		{"<p>Cajero</p><br/>", "Cajero"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripMarkup(tt.in), tt.in)
	}
}

func TestSanitizeRecordKeepsURLQuery(t *testing.T) {
	rec := model.GenericRecord{
		model.FieldTitle:      "<i>Vendedor</i>",
		model.FieldListingURL: " https://jobs.example.com/o?id=1&region=lima ",
	}
	SanitizeRecord(rec)
	assert.Equal(t, "Vendedor", rec[model.FieldTitle])
	assert.Equal(t, "https://jobs.example.com/o?id=1&region=lima", rec[model.FieldListingURL])
}

func TestApplySourceDefaults(t *testing.T) {
	cfg := testPipelineConfig()
	ds := &Dataset{
		Source: model.SourceConfig{
			Name:            "adzuna",
			Kind:            model.SourceKindAPI,
			DefaultCurrency: "USD",
			DefaultPeriod:   "anual",
		},
		Records: []model.GenericRecord{
			{model.FieldTitle: "Nurse"},
			{model.FieldTitle: "Chef", model.FieldCurrency: "PEN", model.FieldPeriod: "mensual", model.FieldSourcePlatform: "NA"},
		},
	}
	ApplySourceDefaults(ds, cfg)

	first := ds.Records[0]
	assert.Equal(t, "USD", first[model.FieldCurrency])
	assert.Equal(t, model.PeriodAnnual, first[model.FieldPeriod])
	assert.Equal(t, "adzuna", first[model.FieldSourcePlatform])
	assert.Equal(t, "API", first[model.FieldSourceKind])

	second := ds.Records[1]
	assert.Equal(t, "PEN", second[model.FieldCurrency])
	assert.Equal(t, model.PeriodMonthly, second[model.FieldPeriod])
	assert.Equal(t, "adzuna", second[model.FieldSourcePlatform])
}

func TestParseSalaries(t *testing.T) {
	cfg := testPipelineConfig()
	ds := &Dataset{
		Source: model.SourceConfig{DecimalConvention: model.DecimalComma},
		Records: []model.GenericRecord{
			{model.FieldSalaryMin: "2.500", model.FieldSalaryMax: "3.000,50"},
			{model.FieldSalaryMin: "NA", model.FieldRawSalary: "S/ 4.000 - S/ 3.000"},
			{model.FieldSalaryMin: "a convenir"},
			{model.FieldRawSalary: "No disponible"},
		},
	}
	var stats SalaryStats
	ParseSalaries(ds, cfg, &stats)

	assert.Equal(t, 2500.0, ds.Records[0][model.FieldSalaryMin])
	assert.Equal(t, 3000.5, ds.Records[0][model.FieldSalaryMax])
	assert.Equal(t, 3000.0, ds.Records[1][model.FieldSalaryMin])
	assert.Equal(t, 4000.0, ds.Records[1][model.FieldSalaryMax])
	assert.Nil(t, ds.Records[2][model.FieldSalaryMin])

	assert.Equal(t, 2, stats.Parsed)
	assert.Equal(t, 1, stats.FromRange)
}

func titleRecords(titles ...string) []model.GenericRecord {
	recs := make([]model.GenericRecord, len(titles))
	for i, t := range titles {
		recs[i] = model.GenericRecord{model.FieldTitle: t}
	}
	return recs
}

func TestNormalizeTitlesRulesThenClusters(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.TitleRules = []model.TitleRule{{Label: "Contador", Any: []string{"contador"}}}
	recs := titleRecords(
		"Python Developer", "Senior Python Developer", "Python Developer",
		"Data Analyst", "Junior Data Analyst",
		"Contador General", "NA",
	)

	res, err := NormalizeTitles(recs, cfg, nlp.DefaultStopwords(), NewTracker("run", nil))
	require.NoError(t, err)
	Relabel(recs, res.Labels)

	assert.Equal(t, 2, res.ClustersUsed)
	assert.Equal(t, 1, res.RuleLabeled)
	assert.Equal(t, "Contador", recs[5][model.FieldStandardizedTitle])
	assert.Nil(t, recs[6][model.FieldStandardizedTitle])

	python := recs[0][model.FieldStandardizedTitle]
	analyst := recs[3][model.FieldStandardizedTitle]
	assert.Equal(t, python, recs[1][model.FieldStandardizedTitle])
	assert.Equal(t, analyst, recs[4][model.FieldStandardizedTitle])
	assert.NotEqual(t, python, analyst)

	require.Len(t, res.Groups, 3)
	assert.Equal(t, "rule", res.Groups[2].Origin)
	assert.Equal(t, 2, res.Groups[2].ClusterID)
	assert.Equal(t, 5, res.Groups[0].Members+res.Groups[1].Members)
	assert.Equal(t, 1, res.Groups[2].Members)
}

func TestNormalizeTitlesInsufficientData(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.Clustering.Clusters = 3
	recs := titleRecords("Python Developer", "Data Analyst", "Urgente")

	_, err := NormalizeTitles(recs, cfg, nlp.DefaultStopwords(), NewTracker("run", nil))
	var insuff *model.InsufficientDataError
	require.True(t, errors.As(err, &insuff))
	assert.Equal(t, 3, insuff.Requested)
	assert.Equal(t, 2, insuff.Available)

	cfg.Clustering.ReduceOnInsufficientData = true
	res, err := NormalizeTitles(recs, cfg, nlp.DefaultStopwords(), NewTracker("run", nil))
	require.NoError(t, err)
	assert.Equal(t, 2, res.ClustersUsed)
}

func TestAggregateByTitle(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	s := func(v string) *string { return &v }
	rows := []model.MasterJobRecord{
		{StandardizedTitle: s("Analista"), SalaryMin: f(2000), SalaryMax: f(3000)},
		{StandardizedTitle: s("Analista"), SalaryMin: f(1000), SalaryMax: f(2000)},
		{StandardizedTitle: s("Chef"), SalaryMin: f(1500), SalaryMax: f(1500)},
		{StandardizedTitle: s("Abogado"), SalaryMin: f(5000), SalaryMax: f(7000)},
	}
	got := AggregateByTitle(rows)
	require.Len(t, got, 3)

	assert.Equal(t, "Analista", got[0].GroupValue)
	assert.Equal(t, 2, got[0].RecordCount)
	assert.Equal(t, 1000.0, got[0].Metrics[MetricSalaryMin])
	assert.Equal(t, 3000.0, got[0].Metrics[MetricSalaryMax])
	assert.Equal(t, 2000.0, got[0].Metrics[MetricSalaryAvg])
	// equal counts fall back to the title
	assert.Equal(t, "Abogado", got[1].GroupValue)
	assert.Equal(t, "Chef", got[2].GroupValue)
}
