package model

import "strconv"

// GenericRecord is a schema-agnostic row. Values are string, float64 or nil (null).
type GenericRecord map[string]interface{}

// SourceKind tells how a listing was obtained upstream.
type SourceKind string

const (
	SourceKindAPI    SourceKind = "API"
	SourceKindScrape SourceKind = "SCRAPE"
)

// Master schema field names, in serialization order.
const (
	FieldTitle             = "title"
	FieldStandardizedTitle = "standardized_title"
	FieldCompany           = "company"
	FieldCountry           = "country"
	FieldRegion            = "region"
	FieldRawSalary         = "raw_salary"
	FieldSalaryMin         = "salary_min"
	FieldSalaryMax         = "salary_max"
	FieldCurrency          = "currency"
	FieldPeriod            = "period"
	FieldContractType      = "contract_type"
	FieldCategory          = "category"
	FieldSourcePlatform    = "source_platform"
	FieldSourceKind        = "source_kind"
	FieldListingURL        = "listing_url"
)

// MasterFields is the master schema. Order only affects serialization.
var MasterFields = []string{
	FieldTitle,
	FieldStandardizedTitle,
	FieldCompany,
	FieldCountry,
	FieldRegion,
	FieldRawSalary,
	FieldSalaryMin,
	FieldSalaryMax,
	FieldCurrency,
	FieldPeriod,
	FieldContractType,
	FieldCategory,
	FieldSourcePlatform,
	FieldSourceKind,
	FieldListingURL,
}

// IsMasterField reports whether name belongs to the master schema.
func IsMasterField(name string) bool {
	for _, f := range MasterFields {
		if f == name {
			return true
		}
	}
	return false
}

// RawJobRecord is one listing as produced by the extraction layer.
// API sources report numeric salary bounds instead of salary text.
type RawJobRecord struct {
	Title          string     `json:"title"`
	Company        *string    `json:"company,omitempty"`
	Country        string     `json:"country"`
	Region         *string    `json:"region,omitempty"`
	RawSalary      *string    `json:"raw_salary,omitempty"`
	SalaryMin      *float64   `json:"salary_min,omitempty"`
	SalaryMax      *float64   `json:"salary_max,omitempty"`
	ContractType   *string    `json:"contract_type,omitempty"`
	Category       *string    `json:"category,omitempty"`
	SourcePlatform string     `json:"source_platform"`
	SourceKind     SourceKind `json:"source_kind"`
	ListingURL     string     `json:"listing_url"`
}

// RawFields are the columns of a RawJobRecord row.
var RawFields = []string{
	FieldTitle,
	FieldCompany,
	FieldCountry,
	FieldRegion,
	FieldRawSalary,
	FieldSalaryMin,
	FieldSalaryMax,
	FieldContractType,
	FieldCategory,
	FieldSourcePlatform,
	FieldSourceKind,
	FieldListingURL,
}

// Record returns r as a generic row keyed by RawFields. Empty text and
// absent values are nil.
func (r RawJobRecord) Record() GenericRecord {
	text := func(s string) interface{} {
		if s == "" {
			return nil
		}
		return s
	}
	opt := func(s *string) interface{} {
		if s == nil {
			return nil
		}
		return text(*s)
	}
	num := func(f *float64) interface{} {
		if f == nil {
			return nil
		}
		return *f
	}
	return GenericRecord{
		FieldTitle:          text(r.Title),
		FieldCompany:        opt(r.Company),
		FieldCountry:        text(r.Country),
		FieldRegion:         opt(r.Region),
		FieldRawSalary:      opt(r.RawSalary),
		FieldSalaryMin:      num(r.SalaryMin),
		FieldSalaryMax:      num(r.SalaryMax),
		FieldContractType:   opt(r.ContractType),
		FieldCategory:       opt(r.Category),
		FieldSourcePlatform: text(r.SourcePlatform),
		FieldSourceKind:     text(string(r.SourceKind)),
		FieldListingURL:     text(r.ListingURL),
	}
}

// MasterJobRecord is one row of the unified dataset.
type MasterJobRecord struct {
	Title             *string  `json:"title"`
	StandardizedTitle *string  `json:"standardized_title"`
	Company           *string  `json:"company"`
	Country           *string  `json:"country"`
	Region            *string  `json:"region"`
	RawSalary         *string  `json:"raw_salary"`
	SalaryMin         *float64 `json:"salary_min"`
	SalaryMax         *float64 `json:"salary_max"`
	Currency          string   `json:"currency"`
	Period            string   `json:"period"`
	ContractType      *string  `json:"contract_type"`
	Category          *string  `json:"category"`
	SourcePlatform    *string  `json:"source_platform"`
	SourceKind        *string  `json:"source_kind"`
	ListingURL        *string  `json:"listing_url"`
}

// MasterFromRecord converts a unified generic row into its typed form.
func MasterFromRecord(rec GenericRecord) MasterJobRecord {
	m := MasterJobRecord{
		Title:             stringField(rec, FieldTitle),
		StandardizedTitle: stringField(rec, FieldStandardizedTitle),
		Company:           stringField(rec, FieldCompany),
		Country:           stringField(rec, FieldCountry),
		Region:            stringField(rec, FieldRegion),
		RawSalary:         stringField(rec, FieldRawSalary),
		SalaryMin:         floatField(rec, FieldSalaryMin),
		SalaryMax:         floatField(rec, FieldSalaryMax),
		ContractType:      stringField(rec, FieldContractType),
		Category:          stringField(rec, FieldCategory),
		SourcePlatform:    stringField(rec, FieldSourcePlatform),
		SourceKind:        stringField(rec, FieldSourceKind),
		ListingURL:        stringField(rec, FieldListingURL),
	}
	if c := stringField(rec, FieldCurrency); c != nil {
		m.Currency = *c
	}
	if p := stringField(rec, FieldPeriod); p != nil {
		m.Period = *p
	}
	return m
}

// Values returns the record cells in MasterFields order. Null cells are nil.
func (m MasterJobRecord) Values() []interface{} {
	str := func(s *string) interface{} {
		if s == nil {
			return nil
		}
		return *s
	}
	num := func(f *float64) interface{} {
		if f == nil {
			return nil
		}
		return *f
	}
	return []interface{}{
		str(m.Title),
		str(m.StandardizedTitle),
		str(m.Company),
		str(m.Country),
		str(m.Region),
		str(m.RawSalary),
		num(m.SalaryMin),
		num(m.SalaryMax),
		m.Currency,
		m.Period,
		str(m.ContractType),
		str(m.Category),
		str(m.SourcePlatform),
		str(m.SourceKind),
		str(m.ListingURL),
	}
}

// FormatCell renders a cell for tabular output. Null becomes the empty string.
func FormatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return ""
	}
}

func stringField(rec GenericRecord, key string) *string {
	switch v := rec[key].(type) {
	case string:
		return &v
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	default:
		return nil
	}
}

func floatField(rec GenericRecord, key string) *float64 {
	if v, ok := rec[key].(float64); ok {
		return &v
	}
	return nil
}
