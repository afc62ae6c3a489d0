package pipeline

import (
	"fmt"
	"strings"

	"go-jobmarket-pipeline/internal/model"
)

// ValidateDataset checks the structure of a freshly read source. Problems
// are reported as a *model.SourceReadError naming the file.
func ValidateDataset(ds *Dataset) error {
	fail := func(format string, args ...interface{}) error {
		return &model.SourceReadError{Path: ds.Source.Path, Err: fmt.Errorf(format, args...)}
	}

	seen := make(map[string]bool, len(ds.Columns))
	known := 0
	for _, c := range ds.Columns {
		if c == "" {
			return fail("empty column name in header")
		}
		if seen[c] {
			return fail("duplicate column %q", c)
		}
		seen[c] = true
		if model.IsMasterField(c) {
			known++
		}
	}

	var missing []string
	for _, req := range ds.Source.RequiredColumns {
		if !seen[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return fail("missing required columns: %s", strings.Join(missing, ", "))
	}

	if len(ds.Records) > 0 && known == 0 {
		return fail("no column matches the master schema (columns: %s)", strings.Join(ds.Columns, ", "))
	}
	return nil
}
