package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"go-jobmarket-pipeline/internal/model"
)

// Dataset is the content of one source file.
type Dataset struct {
	Source  model.SourceConfig
	Columns []string
	Records []model.GenericRecord
}

// ------------------- Source discovery -------------------

// ResolveSources returns the configured sources, or, when none are
// configured, one source per *.csv / *.json file found in cfg.InputDir.
// An empty result is not an error.
func ResolveSources(cfg model.PipelineConfig) ([]model.SourceConfig, error) {
	if len(cfg.Sources) > 0 || cfg.InputDir == "" {
		return cfg.Sources, nil
	}

	entries, err := os.ReadDir(cfg.InputDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &model.SourceReadError{Path: cfg.InputDir, Err: err}
	}

	var out []model.SourceConfig
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".csv" && ext != ".json" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		src := model.SourceConfig{
			Name:              name,
			Path:              filepath.Join(cfg.InputDir, e.Name()),
			Format:            strings.TrimPrefix(ext, "."),
			Platform:          name,
			DecimalConvention: model.DecimalAuto,
		}
		if src.Format == "json" {
			src.Layout = "flat"
		}
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// ------------------- Ingestion -------------------

// ReadSources reads every source, at most workers at a time. Results keep
// the order of sources. The first failing source cancels the rest.
func ReadSources(ctx context.Context, sources []model.SourceConfig, workers int, tr *Tracker) ([]Dataset, error) {
	out := make([]Dataset, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			fmt.Printf("➡️ Starting ingestion for source: %s (%s)\n", src.Name, src.Path)

			ds, err := ReadSource(gctx, src)
			if err != nil {
				return err
			}
			out[i] = *ds

			tr.UpdateSourceMetrics(src.Name, src.Path, int64(len(ds.Records)), time.Since(start))
			fmt.Printf("✅ Finished ingestion for source: %s (%d records)\n", src.Name, len(ds.Records))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadSource loads one source file. Any failure is a *model.SourceReadError.
func ReadSource(ctx context.Context, src model.SourceConfig) (*Dataset, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, &model.SourceReadError{Path: src.Path, Err: err}
	}
	defer f.Close()

	var ds *Dataset
	switch strings.ToLower(src.Format) {
	case "csv", "":
		ds, err = readCSV(ctx, f)
	case "json":
		ds, err = readJSON(f, src.Layout)
	default:
		err = fmt.Errorf("unknown source format: %s", src.Format)
	}
	if err != nil {
		return nil, &model.SourceReadError{Path: src.Path, Err: err}
	}

	ds.Source = src
	ds.Columns, ds.Records = renameColumns(ds.Columns, ds.Records, src.Columns)
	if err := ValidateDataset(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// ------------------- CSV -------------------

func readCSV(ctx context.Context, r io.Reader) (*Dataset, error) {
	csvReader := csv.NewReader(r)
	headers, err := csvReader.Read()
	if err == io.EOF {
		return nil, errors.New("empty file, no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make([]string, len(headers))
	for i, h := range headers {
		// Clean header names: trim whitespace, BOM and quotes
		h = strings.TrimPrefix(h, "\ufeff")
		h = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
		cols[i] = h
	}

	ds := &Dataset{Columns: cols}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %w", err)
		}

		rec := make(model.GenericRecord, len(cols))
		for i, h := range cols {
			rec[h] = record[i]
		}
		ds.Records = append(ds.Records, rec)
		if n := len(ds.Records); n%500 == 0 {
			fmt.Printf("📄 CSV: Processed %d records\n", n)
		}
	}
	return ds, nil
}

// ------------------- JSON -------------------

// adzunaListing is one result of the Adzuna search API.
type adzunaListing struct {
	Title       string   `json:"title"`
	RedirectURL string   `json:"redirect_url"`
	SalaryMin   *float64 `json:"salary_min"`
	SalaryMax   *float64 `json:"salary_max"`
	Contract    string   `json:"contract_time"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string   `json:"display_name"`
		Area        []string `json:"area"`
	} `json:"location"`
	Category struct {
		Label string `json:"label"`
	} `json:"category"`
}

func readJSON(r io.Reader, layout string) (*Dataset, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON body: %w", err)
	}
	if layout == "adzuna" {
		return readAdzuna(body)
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode JSON array of objects: %w", err)
	}

	colSet := map[string]bool{}
	ds := &Dataset{}
	for _, item := range items {
		rec := make(model.GenericRecord, len(item))
		for k, v := range item {
			colSet[k] = true
			switch val := v.(type) {
			case string, float64, nil:
				rec[k] = val
			case bool:
				rec[k] = fmt.Sprint(val)
			default:
				// nested values are kept as their JSON text
				b, _ := json.Marshal(val)
				rec[k] = string(b)
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	for c := range colSet {
		ds.Columns = append(ds.Columns, c)
	}
	sort.Strings(ds.Columns)
	return ds, nil
}

func readAdzuna(body []byte) (*Dataset, error) {
	var listings []adzunaListing
	if err := json.Unmarshal(body, &listings); err != nil {
		// the raw API response wraps listings in "results"
		var page struct {
			Results []adzunaListing `json:"results"`
		}
		if err2 := json.Unmarshal(body, &page); err2 != nil {
			return nil, fmt.Errorf("failed to decode adzuna listings: %w", err)
		}
		listings = page.Results
	}

	ds := &Dataset{Columns: append([]string(nil), model.RawFields...)}
	for _, l := range listings {
		ds.Records = append(ds.Records, l.raw().Record())
	}
	return ds, nil
}

func (l adzunaListing) raw() model.RawJobRecord {
	r := model.RawJobRecord{
		Title:        l.Title,
		Company:      &l.Company.DisplayName,
		SalaryMin:    l.SalaryMin,
		SalaryMax:    l.SalaryMax,
		ContractType: &l.Contract,
		Category:     &l.Category.Label,
		ListingURL:   l.RedirectURL,
	}
	if len(l.Location.Area) > 0 {
		r.Country = l.Location.Area[0]
	}
	if len(l.Location.Area) > 1 {
		r.Region = &l.Location.Area[1]
	}
	return r
}

// renameColumns applies a source header -> master field mapping.
func renameColumns(cols []string, recs []model.GenericRecord, mapping map[string]string) ([]string, []model.GenericRecord) {
	if len(mapping) == 0 {
		return cols, recs
	}
	renamed := make([]string, len(cols))
	for i, c := range cols {
		if to, ok := mapping[c]; ok {
			renamed[i] = to
		} else {
			renamed[i] = c
		}
	}
	for _, rec := range recs {
		for from, to := range mapping {
			if v, ok := rec[from]; ok {
				delete(rec, from)
				rec[to] = v
			}
		}
	}
	return renamed, recs
}
