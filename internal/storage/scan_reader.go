package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ErrScanNotFound indicates no scan matched the given ID or root.
var ErrScanNotFound = errors.New("scan not found")

// ScanSummary is one stored scan without its per-file rows.
type ScanSummary struct {
	ID         string    `json:"id" yaml:"id"`
	Root       string    `json:"root" yaml:"root"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Files      int       `json:"files" yaml:"files"`
	Failed     int       `json:"failed" yaml:"failed"`
	Cached     int       `json:"cached" yaml:"cached"`
	Bytes      int64     `json:"bytes" yaml:"bytes"`
}

// FileRecord is one stored per-file row.
type FileRecord struct {
	Path    string   `json:"path" yaml:"path"`
	Failure string   `json:"failure,omitempty" yaml:"failure,omitempty"`
	Cached  bool     `json:"cached" yaml:"cached"`
	Size    int64    `json:"size" yaml:"size"`
	Imports []string `json:"imports" yaml:"imports"`
}

// ScanReader reads stored scans from SQLite.
type ScanReader struct {
	db *sql.DB
}

// NewScanReader creates a ScanReader instance.
// DB should have schema already created.
func NewScanReader(db *sql.DB) *ScanReader {
	return &ScanReader{db: db}
}

func summaryQuery() sq.SelectBuilder {
	return sq.Select("id", "root", "started_at", "finished_at", "files", "failed", "cached", "bytes").
		From("scans")
}

func scanSummary(row sq.RowScanner) (*ScanSummary, error) {
	s := &ScanSummary{}
	var startedAt, finishedAt string
	if err := row.Scan(&s.ID, &s.Root, &startedAt, &finishedAt, &s.Files, &s.Failed, &s.Cached, &s.Bytes); err != nil {
		return nil, err
	}

	var err error
	if s.StartedAt, err = time.Parse(timeFormat, startedAt); err != nil {
		return nil, fmt.Errorf("scan %s has invalid started_at %q: %w", s.ID, startedAt, err)
	}
	if s.FinishedAt, err = time.Parse(timeFormat, finishedAt); err != nil {
		return nil, fmt.Errorf("scan %s has invalid finished_at %q: %w", s.ID, finishedAt, err)
	}
	return s, nil
}

// ListScans returns scans of root, newest first. An empty root lists every
// project; limit <= 0 means no limit.
func (r *ScanReader) ListScans(root string, limit int) ([]*ScanSummary, error) {
	query := summaryQuery().OrderBy("started_at DESC", "id DESC")
	if root != "" {
		query = query.Where(sq.Eq{"root": root})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(r.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	scans := []*ScanSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, s)
	}

	return scans, rows.Err()
}

// Get returns the scan with id.
func (r *ScanReader) Get(id string) (*ScanSummary, error) {
	s, err := scanSummary(summaryQuery().Where(sq.Eq{"id": id}).RunWith(r.db).QueryRow())
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan %s: %w", id, err)
	}
	return s, nil
}

// Latest returns the newest scan of root.
func (r *ScanReader) Latest(root string) (*ScanSummary, error) {
	scans, err := r.ListScans(root, 1)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, fmt.Errorf("%w: no scans of %s", ErrScanNotFound, root)
	}
	return scans[0], nil
}

// Packages returns the sorted third-party package names of scan id.
func (r *ScanReader) Packages(id string) ([]string, error) {
	return r.namesByCategory(id, CategoryPackage)
}

// NamesByCategory returns the sorted names of scan id filed under category.
func (r *ScanReader) NamesByCategory(id, category string) ([]string, error) {
	return r.namesByCategory(id, category)
}

func (r *ScanReader) namesByCategory(id, category string) ([]string, error) {
	if _, err := r.Get(id); err != nil {
		return nil, err
	}

	rows, err := sq.Select("name").
		From("scan_packages").
		Where(sq.Eq{"scan_id": id, "category": category}).
		OrderBy("name").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query packages of %s: %w", id, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// Files returns the per-file rows of scan id with their imports, by path.
func (r *ScanReader) Files(id string) ([]*FileRecord, error) {
	if _, err := r.Get(id); err != nil {
		return nil, err
	}

	rows, err := sq.Select("f.file_path", "f.failure", "f.cached", "f.size_bytes", "i.name").
		From("scan_files f").
		LeftJoin("scan_imports i ON i.scan_id = f.scan_id AND i.file_path = f.file_path").
		Where(sq.Eq{"f.scan_id": id}).
		OrderBy("f.file_path", "i.name").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query files of %s: %w", id, err)
	}
	defer rows.Close()

	files := []*FileRecord{}
	var current *FileRecord
	for rows.Next() {
		var rec FileRecord
		var name sql.NullString
		if err := rows.Scan(&rec.Path, &rec.Failure, &rec.Cached, &rec.Size, &name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if current == nil || current.Path != rec.Path {
			rec.Imports = []string{}
			current = &rec
			files = append(files, current)
		}
		if name.Valid {
			current.Imports = append(current.Imports, name.String)
		}
	}

	return files, rows.Err()
}
