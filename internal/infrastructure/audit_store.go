package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mcp-tool-server/internal/domain"
)

// DefaultRecentLimit and MaxRecentLimit bound RecentInvocations.
const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 500
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AuditStore persists invocation outcomes to SQLite.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore opens (or creates) the audit database at path.
// Parent directories are created if needed.
func NewAuditStore(path string) (*AuditStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps :memory: databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &AuditStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

func (s *AuditStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS invocations (
			id TEXT PRIMARY KEY,
			tool_name TEXT NOT NULL,
			outcome TEXT NOT NULL,
			is_error INTEGER NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_invocations_created
			ON invocations(created_at);

		CREATE INDEX IF NOT EXISTS idx_invocations_tool
			ON invocations(tool_name, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordInvocation appends one invocation. ID and CreatedAt are generated if unset.
func (s *AuditStore) RecordInvocation(ctx context.Context, record domain.InvocationRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invocations (id, tool_name, outcome, is_error, message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.ToolName,
		string(record.Outcome),
		boolToInt(record.IsError),
		record.Message,
		record.Duration.Milliseconds(),
		record.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting invocation: %w", err)
	}
	return nil
}

// RecentInvocations returns up to limit invocations, newest first. A non-empty
// tool restricts the result to that tool's invocations.
// limit <= 0 uses DefaultRecentLimit; values above MaxRecentLimit are capped.
func (s *AuditStore) RecentInvocations(ctx context.Context, tool string, limit int) ([]domain.InvocationRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	query := `
		SELECT id, tool_name, outcome, is_error, message, duration_ms, created_at
		FROM invocations`
	var params []any
	if tool != "" {
		query += `
		WHERE tool_name = ?`
		params = append(params, tool)
	}
	query += `
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`
	params = append(params, limit)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying invocations: %w", err)
	}
	defer rows.Close()

	var records []domain.InvocationRecord
	for rows.Next() {
		var (
			rec        domain.InvocationRecord
			outcome    string
			isError    int
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&rec.ID, &rec.ToolName, &outcome, &isError, &rec.Message, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning invocation: %w", err)
		}

		rec.Outcome = domain.Outcome(outcome)
		rec.IsError = isError != 0
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invocations: %w", err)
	}

	return records, nil
}

// Close closes the database.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
