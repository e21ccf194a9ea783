// Package audit records every resolved read against the conditions
// database to Postgres, grounded on the teacher's PostgresStore connect
// and ensureSchema shape. Disabled by default: SPEC_FULL.md's audit
// trail is an optional collaborator the façade wires in via a functional
// option, never a hard dependency of the resolution path.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is a single recorded read: a get or iov_boundaries call plus its
// outcome.
type Entry struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"` // "get" or "iov_boundaries"
	Tag        string    `json:"tag"`
	Path       string    `json:"path"`
	Backend    string    `json:"backend"`
	QueryTime  uint64    `json:"query_time"`
	Since      uint64    `json:"since,omitempty"`
	Until      uint64    `json:"until,omitempty"`
	Success    bool      `json:"success"`
	ErrMessage string    `json:"error_message,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Log is a Postgres-backed audit trail.
type Log struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against dsn and ensures the audit_entries table
// exists.
func Connect(ctx context.Context, dsn string) (*Log, error) {
	if dsn == "" {
		return nil, fmt.Errorf("audit: DSN is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: create pool: %w", err)
	}

	l := &Log{pool: pool}
	if err := l.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := l.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return l, nil
}

// Ping verifies connectivity.
func (l *Log) Ping(ctx context.Context) error {
	if l.pool == nil {
		return fmt.Errorf("audit: not connected")
	}
	return l.pool.Ping(ctx)
}

// Close releases the pool.
func (l *Log) Close() error {
	if l.pool != nil {
		l.pool.Close()
	}
	return nil
}

func (l *Log) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS audit_entries (
			id TEXT PRIMARY KEY,
			operation TEXT NOT NULL,
			tag TEXT NOT NULL,
			path TEXT NOT NULL,
			backend TEXT NOT NULL,
			query_time BIGINT NOT NULL,
			since BIGINT,
			until BIGINT,
			success BOOLEAN NOT NULL,
			error_message TEXT,
			duration_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_entries_tag_path ON audit_entries(tag, path)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_entries_created_at ON audit_entries(created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := l.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("audit: ensure schema: %w", err)
		}
	}
	return nil
}

// Record inserts e, tolerating a duplicate id as a no-op.
func (l *Log) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("audit: entry id is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := l.pool.Exec(ctx, `
		INSERT INTO audit_entries
			(id, operation, tag, path, backend, query_time, since, until, success, error_message, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, e.ID, e.Operation, e.Tag, e.Path, e.Backend, e.QueryTime, e.Since, e.Until, e.Success, e.ErrMessage, e.DurationMs, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit: record entry: %w", err)
	}
	return nil
}

// Recent returns the most recent entries for (tag, path), newest first.
func (l *Log) Recent(ctx context.Context, tag, path string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx, `
		SELECT id, operation, tag, path, backend, query_time, since, until, success, error_message, duration_ms, created_at
		FROM audit_entries
		WHERE tag = $1 AND path = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, tag, path, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var since, until *int64
		var errMsg *string
		if err := rows.Scan(&e.ID, &e.Operation, &e.Tag, &e.Path, &e.Backend, &e.QueryTime, &since, &until, &e.Success, &errMsg, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		if since != nil {
			e.Since = uint64(*since)
		}
		if until != nil {
			e.Until = uint64(*until)
		}
		if errMsg != nil {
			e.ErrMessage = *errMsg
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: recent rows: %w", err)
	}
	return entries, nil
}

// MarshalEntry is a convenience for CLI/log output.
func MarshalEntry(e Entry) ([]byte, error) {
	return json.Marshal(e)
}
