package storage

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/pydeps/internal/scanner"
)

// Package categories stored in scan_packages.
const (
	CategoryPackage = "package"
	CategoryStdlib  = "stdlib"
	CategoryLocal   = "local"
)

// ScanWriter writes scan reports to SQLite.
type ScanWriter struct {
	db *sql.DB
}

// NewScanWriter creates a ScanWriter instance.
// DB must have schema already created via CreateSchema().
func NewScanWriter(db *sql.DB) *ScanWriter {
	return &ScanWriter{db: db}
}

// WriteReport stores report and all its rows in a single transaction.
func (w *ScanWriter) WriteReport(report *scanner.Report) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	_, err = sq.Insert("scans").
		Columns("id", "root", "started_at", "finished_at", "files", "failed", "cached", "bytes").
		Values(
			report.ID,
			report.Root,
			report.StartedAt.UTC().Format(timeFormat),
			report.FinishedAt.UTC().Format(timeFormat),
			len(report.Files),
			report.FailedFiles,
			report.CachedFiles,
			report.Bytes,
		).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to write scan %s: %w", report.ID, err)
	}

	fileStmt, err := prepareInsert(tx, sq.Insert("scan_files").
		Columns("scan_id", "file_path", "failure", "cached", "size_bytes").
		Values("", "", "", false, 0))
	if err != nil {
		return err
	}
	defer fileStmt.Close()

	importStmt, err := prepareInsert(tx, sq.Insert("scan_imports").
		Columns("scan_id", "file_path", "name").
		Values("", "", ""))
	if err != nil {
		return err
	}
	defer importStmt.Close()

	for _, fr := range report.Files {
		if _, err := fileStmt.Exec(report.ID, fr.Path, fr.Failure, fr.Cached, fr.Size); err != nil {
			return fmt.Errorf("failed to write file %s: %w", fr.Path, err)
		}
		for _, name := range fr.Imports {
			if _, err := importStmt.Exec(report.ID, fr.Path, name); err != nil {
				return fmt.Errorf("failed to write import %s of %s: %w", name, fr.Path, err)
			}
		}
	}

	packageStmt, err := prepareInsert(tx, sq.Insert("scan_packages").
		Columns("scan_id", "name", "category").
		Values("", "", "").
		Options("OR IGNORE"))
	if err != nil {
		return err
	}
	defer packageStmt.Close()

	categories := []struct {
		category string
		names    []string
	}{
		{CategoryPackage, report.Packages},
		{CategoryStdlib, report.Stdlib},
		{CategoryLocal, report.Local},
	}
	for _, c := range categories {
		for _, name := range c.names {
			if _, err := packageStmt.Exec(report.ID, name, c.category); err != nil {
				return fmt.Errorf("failed to write package %s: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan %s: %w", report.ID, err)
	}

	return nil
}

// Prune deletes all but the newest keep scans of root. keep <= 0 keeps
// everything. Returns the number of scans deleted.
func (w *ScanWriter) Prune(root string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	res, err := sq.Delete("scans").
		Where(sq.Eq{"root": root}).
		Where(sq.Expr(
			"id NOT IN (SELECT id FROM scans WHERE root = ? ORDER BY started_at DESC, id DESC LIMIT ?)",
			root, keep,
		)).
		RunWith(w.db).
		Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to prune scans of %s: %w", root, err)
	}

	return res.RowsAffected()
}

// prepareInsert builds the SQL once with Squirrel and prepares it on tx.
// The builder's placeholder values are discarded.
func prepareInsert(tx *sql.Tx, builder sq.InsertBuilder) (*sql.Stmt, error) {
	sqlStr, _, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL: %w", err)
	}

	stmt, err := tx.Prepare(sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	return stmt, nil
}
