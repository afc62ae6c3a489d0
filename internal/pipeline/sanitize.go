package pipeline

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/nlp"
)

// textFields are cleaned of markup and extra whitespace before anything
// else looks at them.
var textFields = []string{
	model.FieldTitle,
	model.FieldCompany,
	model.FieldCountry,
	model.FieldRegion,
	model.FieldRawSalary,
	model.FieldContractType,
	model.FieldCategory,
}

// SanitizeRecord strips HTML and collapses whitespace in the text fields of rec.
func SanitizeRecord(rec model.GenericRecord) {
	for _, f := range textFields {
		if s, ok := rec[f].(string); ok {
			rec[f] = StripMarkup(s)
		}
	}
	// URLs keep their ampersands: "&region=" must not unescape to "®ion=".
	if s, ok := rec[model.FieldListingURL].(string); ok {
		rec[model.FieldListingURL] = strings.TrimSpace(s)
	}
}

// StripMarkup returns the visible text of s. Scraped titles sometimes
// carry tags or entities ("Analista&nbsp;<b>Sr</b>").
func StripMarkup(s string) string {
	if strings.ContainsRune(s, '<') {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			s = doc.Text()
		}
	} else if strings.ContainsRune(s, '&') {
		s = html.UnescapeString(s)
	}
	return nlp.CleanText(s)
}
