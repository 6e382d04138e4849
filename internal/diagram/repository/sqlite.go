package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ============================================================
// SQLite Snapshot Archive
// ============================================================

// ErrNotFound is returned when a session has no archived snapshots.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one archived export: the xml that was written and where.
type Snapshot struct {
	ID        string
	SessionID string
	Path      string
	XML       string
	CreatedAt time.Time
}

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init запускает миграции.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Save archives an exported diagram for a session.
func (r *Repository) Save(ctx context.Context, sessionID, path, xml string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO snapshots (id, session_id, path, xml, created_at)
        VALUES (?, ?, ?, ?, ?)
    `, id, sessionID, path, xml, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the most recent archived snapshot for a session.
func (r *Repository) Latest(ctx context.Context, sessionID string) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, session_id, path, xml, created_at
        FROM snapshots
        WHERE session_id = ?
        ORDER BY created_at DESC
        LIMIT 1
    `, sessionID)

	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snap, nil
}

// ListBySession returns all archived snapshots for a session, oldest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID string) ([]Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, session_id, path, xml, created_at
        FROM snapshots
        WHERE session_id = ?
        ORDER BY created_at ASC
    `, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var snap Snapshot
	var createdAt string
	if err := row.Scan(&snap.ID, &snap.SessionID, &snap.Path, &snap.XML, &createdAt); err != nil {
		return nil, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		snap.CreatedAt = ts
	}
	return &snap, nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.Exec(string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
