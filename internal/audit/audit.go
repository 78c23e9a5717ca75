// ABOUTME: SQLite ledger of committed catalog mutations using modernc.org/sqlite
// ABOUTME: Append-only audit trail with actor attribution and automatic schema creation

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Op identifies the catalog mutation recorded by an entry.
type Op string

const (
	OpAddSection    Op = "add_section"
	OpRenameSection Op = "rename_section"
	OpDeleteSection Op = "delete_section"
	OpAddMode       Op = "add_mode"
	OpRenameMode    Op = "rename_mode"
	OpDeleteMode    Op = "delete_mode"
	OpBindAsset     Op = "bind_asset"
)

// Entry is one committed mutation. Detail carries op-specific context such as
// the previous name on renames or the sync-conflict note.
type Entry struct {
	ID          string
	Actor       string
	Op          Op
	SectionID   string
	SectionName string
	ModeID      string
	ModeName    string
	Detail      string
	CreatedAt   time.Time
}

// Log is an append-only mutation ledger backed by SQLite.
type Log struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the ledger database at path, creating parent directories and
// the schema as needed. WAL mode is enabled for concurrent readers.
func Open(path string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audit")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS mutations (
			id           TEXT PRIMARY KEY,
			actor        TEXT NOT NULL,
			op           TEXT NOT NULL,
			section_id   TEXT NOT NULL,
			section_name TEXT NOT NULL,
			mode_id      TEXT NOT NULL DEFAULT '',
			mode_name    TEXT NOT NULL DEFAULT '',
			detail       TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_mutations_created
			ON mutations(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}

	logger.Info("audit ledger initialized", "path", path)
	return &Log{db: db, logger: logger}, nil
}

// Append persists an entry. A zero ID and CreatedAt are filled in.
func (l *Log) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO mutations (id, actor, op, section_id, section_name, mode_id, mode_name, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Actor, string(e.Op), e.SectionID, e.SectionName, e.ModeID, e.ModeName, e.Detail, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first. Limit defaults to 50
// and is capped at 500.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, actor, op, section_id, section_name, mode_id, mode_name, detail, created_at
		FROM mutations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var op string
		if err := rows.Scan(&e.ID, &e.Actor, &op, &e.SectionID, &e.SectionName, &e.ModeID, &e.ModeName, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Op = Op(op)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (l *Log) Close() error {
	return l.db.Close()
}
