// Package index caches the vault's wikilink graph in SQLite so link checks
// can run without re-parsing every note.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/vpub/internal/sqlutil"
	"github.com/aidanlsb/vpub/internal/vault"
)

// Database is the snapshot database handle.
type Database struct {
	db   *sql.DB
	path string
}

var (
	// ErrSnapshotMissing indicates no snapshot has been saved yet.
	ErrSnapshotMissing = errors.New("no vault snapshot; run 'vpub snapshot' first")
	// ErrSnapshotLocked indicates another process is writing the snapshot.
	ErrSnapshotLocked = errors.New("snapshot is locked for writing")
)

// CurrentDBVersion is the current snapshot schema version.
const CurrentDBVersion = 1

// Info describes a saved snapshot.
type Info struct {
	Root      string    `json:"root"`
	Notes     int       `json:"notes"`
	Links     int       `json:"links"`
	Published int       `json:"published"`
	SavedAt   time.Time `json:"saved_at"`
}

// Open opens or creates the snapshot database at path. A database written
// by an incompatible schema version is discarded and recreated.
func Open(path string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		db, err := sql.Open("sqlite", path)
		if err == nil {
			compatible := isSchemaCompatible(db)
			db.Close()
			if !compatible {
				if err := removeDatabaseFiles(path); err != nil {
					return nil, err
				}
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{db: db, path: path}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Each pooled connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path, empty for in-memory databases.
func (d *Database) Path() string {
	return d.path
}

func removeDatabaseFiles(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// isSchemaCompatible checks the stored schema version. A database with no
// meta table is a fresh file and counts as compatible.
func isSchemaCompatible(db *sql.DB) bool {
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='meta'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	if err != nil {
		return false
	}

	var version string
	if err := db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&version); err != nil {
		return false
	}
	return version == strconv.Itoa(CurrentDBVersion)
}

func (d *Database) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		-- Metadata table for version tracking
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- One row per note, in vault enumeration order
		CREATE TABLE IF NOT EXISTS notes (
			key TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			published INTEGER NOT NULL DEFAULT 0
		);

		-- Resolved wikilinks; unresolved targets are stored verbatim
		CREATE TABLE IF NOT EXISTS links (
			source TEXT NOT NULL,
			position INTEGER NOT NULL,
			target TEXT NOT NULL,
			PRIMARY KEY (source, position)
		);

		CREATE INDEX IF NOT EXISTS idx_notes_position ON notes(position);
		CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	_, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		strconv.Itoa(CurrentDBVersion))
	if err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}
	return nil
}

// Save replaces the stored snapshot with the graph of v in one transaction.
func (d *Database) Save(v *vault.Vault) error {
	if d.path != "" {
		lock, err := acquireSnapshotLock(filepath.Dir(d.path))
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"notes", "links"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	noteStmt, err := tx.Prepare(`INSERT INTO notes (key, position, published) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()

	linkStmt, err := tx.Prepare(`INSERT INTO links (source, position, target) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer linkStmt.Close()

	for i, key := range v.Keys() {
		published := 0
		if v.IsPublished(key) {
			published = 1
		}
		if _, err := noteStmt.Exec(key, i, published); err != nil {
			return fmt.Errorf("insert note %s: %w", key, err)
		}
		for j, target := range v.Links(key) {
			if _, err := linkStmt.Exec(key, j, target); err != nil {
				return fmt.Errorf("insert link %s -> %s: %w", key, target, err)
			}
		}
	}

	meta := map[string]string{
		"root":     v.Root(),
		"saved_at": strconv.FormatInt(time.Now().Unix(), 10),
	}
	for key, value := range meta {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("write meta %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// Load rebuilds a Vault from the stored snapshot. The result carries the
// link graph and publish flags but no note contents.
func (d *Database) Load() (*vault.Vault, error) {
	root, _, err := d.savedMeta()
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(`SELECT key FROM notes ORDER BY position`)
	if err != nil {
		return nil, err
	}
	keys, err := sqlutil.ScanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}

	rows, err = d.db.Query(`SELECT key FROM notes WHERE published = 1 ORDER BY position`)
	if err != nil {
		return nil, err
	}
	published, err := sqlutil.ScanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("read published notes: %w", err)
	}

	rows, err = d.db.Query(`SELECT source, target FROM links ORDER BY source, position`)
	if err != nil {
		return nil, err
	}
	type edge struct{ source, target string }
	edges, err := sqlutil.ScanRows(rows, func(r *sql.Rows) (edge, error) {
		var e edge
		err := r.Scan(&e.source, &e.target)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("read links: %w", err)
	}

	links := make(map[string][]string, len(keys))
	for _, e := range edges {
		links[e.source] = append(links[e.source], e.target)
	}

	return vault.NewFromGraph(root, keys, links, published), nil
}

// Info returns counts and the save time of the stored snapshot.
func (d *Database) Info() (Info, error) {
	root, savedAt, err := d.savedMeta()
	if err != nil {
		return Info{}, err
	}

	info := Info{Root: root, SavedAt: savedAt}
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM notes", &info.Notes},
		{"SELECT COUNT(*) FROM links", &info.Links},
		{"SELECT COUNT(*) FROM notes WHERE published = 1", &info.Published},
	}
	for _, c := range counts {
		if err := d.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return Info{}, err
		}
	}
	return info, nil
}

func (d *Database) savedMeta() (string, time.Time, error) {
	var root, savedAt string
	err := d.db.QueryRow(`SELECT value FROM meta WHERE key = 'saved_at'`).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, ErrSnapshotMissing
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if err := d.db.QueryRow(`SELECT value FROM meta WHERE key = 'root'`).Scan(&root); err != nil {
		return "", time.Time{}, err
	}

	secs, err := strconv.ParseInt(savedAt, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid saved_at %q: %w", savedAt, err)
	}
	return root, time.Unix(secs, 0), nil
}
