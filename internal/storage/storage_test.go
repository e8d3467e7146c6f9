package storage

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pydeps/internal/scanner"
)

// Test Plan for scan history storage:
// - CreateSchema creates every table and is idempotent
// - GetSchemaVersion returns "0" before and SchemaVersion after CreateSchema
// - WriteReport stores the scan, its files, imports and categorized packages
// - WriteReport of a duplicate ID fails and leaves nothing half-written
// - ListScans orders newest first, filters by root, honors limit
// - Latest returns the newest scan or ErrScanNotFound
// - Packages / Files / Get of an unknown ID return ErrScanNotFound
// - a stored scan with an unparseable timestamp is an error, not a zero time
// - Prune keeps the newest N of one root only, and cascades to child rows
// - Open creates the database file and its directory and persists data

func makeReport(id, root string, started time.Time) *scanner.Report {
	return &scanner.Report{
		ID:         id,
		Root:       root,
		StartedAt:  started,
		FinishedAt: started.Add(250 * time.Millisecond),
		Files: []scanner.FileResult{
			{Path: root + "/main.py", Imports: []string{"os", "requests"}, Size: 120},
			{Path: root + "/util.py", Imports: []string{"yaml"}, Cached: true, Size: 40},
			{Path: root + "/bad.py", Imports: []string{}, Failure: "malformed", Size: 8},
		},
		Packages:    []string{"requests", "yaml"},
		Stdlib:      []string{"os"},
		FailedFiles: 1,
		CachedFiles: 1,
		Bytes:       168,
	}
}

// sqlOpenMemory opens an in-memory database without schema.
func sqlOpenMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func TestCreateSchema(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)

	for _, table := range []string{"scans", "scan_files", "scan_imports", "scan_packages", "pydeps_metadata"} {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s should exist", table)
	}

	// Running it again is harmless.
	require.NoError(t, CreateSchema(db))

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestGetSchemaVersion_EmptyDatabase(t *testing.T) {
	t.Parallel()

	db, err := sqlOpenMemory()
	require.NoError(t, err)
	defer db.Close()

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, "0", version)
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	started := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	require.NoError(t, NewScanWriter(db).WriteReport(makeReport("s1", "/proj", started)))

	reader := NewScanReader(db)

	got, err := reader.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "/proj", got.Root)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, 250*time.Millisecond, got.FinishedAt.Sub(got.StartedAt))
	assert.Equal(t, 3, got.Files)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Cached)
	assert.Equal(t, int64(168), got.Bytes)

	packages, err := reader.Packages("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"requests", "yaml"}, packages)

	stdlib, err := reader.NamesByCategory("s1", CategoryStdlib)
	require.NoError(t, err)
	assert.Equal(t, []string{"os"}, stdlib)

	local, err := reader.NamesByCategory("s1", CategoryLocal)
	require.NoError(t, err)
	assert.Empty(t, local)

	files, err := reader.Files("s1")
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "/proj/bad.py", files[0].Path)
	assert.Equal(t, "malformed", files[0].Failure)
	assert.Empty(t, files[0].Imports)

	assert.Equal(t, "/proj/main.py", files[1].Path)
	assert.Equal(t, []string{"os", "requests"}, files[1].Imports)
	assert.Equal(t, int64(120), files[1].Size)

	assert.Equal(t, "/proj/util.py", files[2].Path)
	assert.True(t, files[2].Cached)
}

func TestWriteReport_DuplicateIDIsAtomic(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	writer := NewScanWriter(db)
	started := time.Now()

	require.NoError(t, writer.WriteReport(makeReport("dup", "/proj", started)))

	second := makeReport("dup", "/other", started)
	second.Files = append(second.Files, scanner.FileResult{Path: "/other/extra.py", Imports: []string{"numpy"}})
	assert.Error(t, writer.WriteReport(second))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM scan_files WHERE scan_id = 'dup'").Scan(&n))
	assert.Equal(t, 3, n)
}

func TestListScans(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	writer := NewScanWriter(db)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, writer.WriteReport(makeReport(fmt.Sprintf("a%d", i), "/a", base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, writer.WriteReport(makeReport("b0", "/b", base.Add(10*time.Hour))))

	reader := NewScanReader(db)

	all, err := reader.ListScans("", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "b0", all[0].ID)

	aScans, err := reader.ListScans("/a", 0)
	require.NoError(t, err)
	ids := []string{}
	for _, s := range aScans {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a2", "a1", "a0"}, ids)

	limited, err := reader.ListScans("/a", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	latest, err := reader.Latest("/a")
	require.NoError(t, err)
	assert.Equal(t, "a2", latest.ID)

	_, err = reader.Latest("/none")
	assert.ErrorIs(t, err, ErrScanNotFound)
}

func TestScanReader_UnknownID(t *testing.T) {
	t.Parallel()

	reader := NewScanReader(NewTestDB(t))

	_, err := reader.Get("missing")
	assert.ErrorIs(t, err, ErrScanNotFound)

	_, err = reader.Packages("missing")
	assert.ErrorIs(t, err, ErrScanNotFound)

	_, err = reader.Files("missing")
	assert.ErrorIs(t, err, ErrScanNotFound)
}

func TestScanReader_CorruptTimestamp(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	require.NoError(t, NewScanWriter(db).WriteReport(makeReport("scan-1", "/proj", time.Now())))
	_, err := db.Exec(`UPDATE scans SET started_at = 'yesterday' WHERE id = 'scan-1'`)
	require.NoError(t, err)

	reader := NewScanReader(db)

	_, err = reader.Get("scan-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrScanNotFound)
	assert.Contains(t, err.Error(), "invalid started_at")

	_, err = reader.ListScans("/proj", 0)
	assert.ErrorContains(t, err, "invalid started_at")
}

func TestPrune(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	writer := NewScanWriter(db)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, writer.WriteReport(makeReport(fmt.Sprintf("a%d", i), "/a", base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, writer.WriteReport(makeReport("b0", "/b", base)))

	deleted, err := writer.Prune("/a", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	reader := NewScanReader(db)
	remaining, err := reader.ListScans("/a", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "a4", remaining[0].ID)
	assert.Equal(t, "a3", remaining[1].ID)

	// Other roots are untouched.
	_, err = reader.Get("b0")
	assert.NoError(t, err)

	// Child rows of pruned scans are gone.
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM scan_imports WHERE scan_id = 'a0'").Scan(&n))
	assert.Equal(t, 0, n)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM scan_packages WHERE scan_id = 'a1'").Scan(&n))
	assert.Equal(t, 0, n)

	// keep <= 0 keeps everything.
	deleted, err = writer.Prune("/a", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestOpen_PersistsAcrossConnections(t *testing.T) {
	t.Parallel()

	db, path := NewTestDBFile(t)
	require.NoError(t, NewScanWriter(db).WriteReport(makeReport("p1", "/proj", time.Now())))
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	packages, err := NewScanReader(reopened).Packages("p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"requests", "yaml"}, packages)
}
