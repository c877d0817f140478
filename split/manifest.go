package split

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Entry describes one split file written by a Cache.
type Entry struct {
	CreatedAt time.Time
	Source    string
	Role      Role
	Path      string
	ValSize   float64
	NSplits   int
	Iteration int
	Subjects  int
	Rows      int
}

// Manifest is a SQLite index of generated split files.
type Manifest struct {
	db *sql.DB
}

const manifestSchema = `CREATE TABLE IF NOT EXISTS split_files (
	source TEXT NOT NULL,
	val_size REAL NOT NULL,
	n_splits INTEGER NOT NULL,
	iteration INTEGER NOT NULL,
	role TEXT NOT NULL,
	path TEXT NOT NULL,
	subjects INTEGER NOT NULL,
	rows INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (source, val_size, n_splits, iteration, role)
)`

// OpenManifest opens (creating if needed) the manifest database at dbPath.
func OpenManifest(dbPath string) (*Manifest, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: empty manifest path", ErrInvalidArgument)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(manifestSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create manifest schema: %w", err)
	}
	return &Manifest{db: db}, nil
}

// Close closes the database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Record inserts e, replacing any entry for the same split file.
func (m *Manifest) Record(ctx context.Context, e Entry) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO split_files
			(source, val_size, n_splits, iteration, role, path, subjects, rows, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Source, e.ValSize, e.NSplits, e.Iteration, string(e.Role), e.Path, e.Subjects, e.Rows, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record split file %s: %w", e.Path, err)
	}
	return nil
}

// Entries lists recorded files of source ordered by n_splits, val_size,
// iteration and role.
func (m *Manifest) Entries(ctx context.Context, source string) ([]Entry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT source, val_size, n_splits, iteration, role, path, subjects, rows, created_at
		FROM split_files
		WHERE source = ?
		ORDER BY n_splits, val_size, iteration, role`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query manifest: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var role string
		if err := rows.Scan(&e.Source, &e.ValSize, &e.NSplits, &e.Iteration, &role,
			&e.Path, &e.Subjects, &e.Rows, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan manifest row: %w", err)
		}
		e.Role = Role(role)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
