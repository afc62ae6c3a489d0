package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-jobmarket-pipeline/internal/model"
)

// ClusterLabel is one labeled title group of a run.
type ClusterLabel struct {
	ClusterID int      `json:"cluster_id"`
	Label     string   `json:"label"`
	Origin    string   `json:"origin"` // "cluster" or "rule"
	Members   int      `json:"members"`
	TopTerms  []string `json:"top_terms,omitempty"`
}

// OutputFile is one file written by a run.
type OutputFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Kind      string    `json:"kind"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveClusterLabels replaces the labels of a run.
func (s *Store) SaveClusterLabels(runID string, labels []ClusterLabel) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cluster_labels WHERE run_id = ?`, runID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO cluster_labels (run_id, cluster_id, label, origin, members, top_terms) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range labels {
		terms, err := json.Marshal(l.TopTerms)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(runID, l.ClusterID, l.Label, l.Origin, l.Members, string(terms)); err != nil {
			return fmt.Errorf("insert cluster %d: %w", l.ClusterID, err)
		}
	}
	return tx.Commit()
}

// GetClusterLabels returns the labels of a run ordered by cluster id.
func (s *Store) GetClusterLabels(runID string) ([]ClusterLabel, error) {
	rows, err := s.db.Query(`SELECT cluster_id, label, origin, members, top_terms FROM cluster_labels
		WHERE run_id = ? ORDER BY cluster_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ClusterLabel{}
	for rows.Next() {
		var l ClusterLabel
		var terms sql.NullString
		if err := rows.Scan(&l.ClusterID, &l.Label, &l.Origin, &l.Members, &terms); err != nil {
			return nil, err
		}
		if terms.Valid && terms.String != "" && terms.String != "null" {
			if err := json.Unmarshal([]byte(terms.String), &l.TopTerms); err != nil {
				return nil, err
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SaveMasterRecords replaces the master rows of a run in one transaction.
func (s *Store) SaveMasterRecords(ctx context.Context, runID string, records []model.MasterJobRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM master_records WHERE run_id = ?`, runID); err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO master_records (run_id, title, standardized_title, company, country, region,
		raw_salary, salary_min, salary_max, currency, period, contract_type, category, source_platform, source_kind, listing_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, rec := range records {
		args := append([]interface{}{runID}, rec.Values()...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return i, fmt.Errorf("insert master row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// CountMasterRecords returns how many master rows a run stored.
func (s *Store) CountMasterRecords(runID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM master_records WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// SaveOutputFile registers a file written by a run.
func (s *Store) SaveOutputFile(runID string, f OutputFile) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO output_files (run_id, name, path, kind, size, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, f.Name, f.Path, f.Kind, f.Size, f.CreatedAt)
	return err
}

// GetOutputFile looks up one file of a run by name.
func (s *Store) GetOutputFile(runID, name string) (*OutputFile, error) {
	f := OutputFile{Name: name}
	err := s.db.QueryRow(`SELECT path, kind, size, created_at FROM output_files WHERE run_id = ? AND name = ?`, runID, name).
		Scan(&f.Path, &f.Kind, &f.Size, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListOutputFiles returns every file of a run.
func (s *Store) ListOutputFiles(runID string) ([]OutputFile, error) {
	rows, err := s.db.Query(`SELECT name, path, kind, size, created_at FROM output_files WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OutputFile{}
	for rows.Next() {
		var f OutputFile
		if err := rows.Scan(&f.Name, &f.Path, &f.Kind, &f.Size, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
