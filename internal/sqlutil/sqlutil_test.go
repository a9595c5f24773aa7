package sqlutil

import (
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE links (source TEXT, target TEXT)`,
		`INSERT INTO links VALUES ('Home', 'Draft'), ('Home', 'About'), ('Draft', 'Ghost')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return db
}

func TestScanStrings(t *testing.T) {
	db := openTestDB(t)

	rows, err := db.Query(`SELECT target FROM links ORDER BY rowid`)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ScanStrings(rows)
	if err != nil {
		t.Fatalf("ScanStrings: %v", err)
	}
	if diff := cmp.Diff([]string{"Draft", "About", "Ghost"}, got); diff != "" {
		t.Fatalf("targets (-want +got):\n%s", diff)
	}
}

func TestScanRows(t *testing.T) {
	db := openTestDB(t)

	type edge struct{ Source, Target string }
	rows, err := db.Query(`SELECT source, target FROM links WHERE source = ? ORDER BY rowid`, "Home")
	if err != nil {
		t.Fatal(err)
	}
	got, err := ScanRows(rows, func(r *sql.Rows) (edge, error) {
		var e edge
		err := r.Scan(&e.Source, &e.Target)
		return e, err
	})
	if err != nil {
		t.Fatalf("ScanRows: %v", err)
	}
	want := []edge{{"Home", "Draft"}, {"Home", "About"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("edges (-want +got):\n%s", diff)
	}

	rows, err = db.Query(`SELECT target FROM links WHERE source = 'Nobody'`)
	if err != nil {
		t.Fatal(err)
	}
	empty, err := ScanStrings(rows)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no rows, got %v err=%v", empty, err)
	}
}
