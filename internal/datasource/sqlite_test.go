package datasource_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/chemoscope/internal/datasource"

	_ "modernc.org/sqlite"
)

func createObservationDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "observations.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE observations (
		condicao TEXT,
		replica TEXT,
		composto TEXT,
		concentracao REAL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	rows := [][4]any{
		{"ctrl", "1", "A", 1.5},
		{"ctrl", "1", "B", 2.5},
		{"treat", "1", "A", 3.5},
		{"treat", "1", "B", 4.5},
	}
	for _, r := range rows {
		if _, err := db.Exec(
			"INSERT INTO observations (condicao, replica, composto, concentracao) VALUES (?, ?, ?, ?)",
			r[0], r[1], r[2], r[3],
		); err != nil {
			t.Fatalf("insert row: %v", err)
		}
	}
	return path
}

func TestReadSQLite(t *testing.T) {
	path := createObservationDB(t)

	ds, err := datasource.ReadSQLite(path)
	if err != nil {
		t.Fatalf("ReadSQLite failed: %v", err)
	}
	if len(ds.Observations) != 4 {
		t.Fatalf("got %d observations, want 4", len(ds.Observations))
	}

	// rowid ordering keeps insertion order
	first := ds.Observations[0]
	if first.Condition != "ctrl" || first.Compound != "A" || first.Concentration != 1.5 {
		t.Errorf("unexpected first observation: %+v", first)
	}
	last := ds.Observations[3]
	if last.Condition != "treat" || last.Compound != "B" || last.Concentration != 4.5 {
		t.Errorf("unexpected last observation: %+v", last)
	}
}

func TestReadSQLiteMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.db")
	if _, err := datasource.ReadSQLite(path); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestReadSQLiteMissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE unrelated (x INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	db.Close()

	if _, err := datasource.ReadSQLite(path); err == nil {
		t.Fatal("expected error for missing observations table")
	}
}
