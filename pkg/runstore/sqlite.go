// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/jllopis/agentcore/pkg/errors"
	_ "modernc.org/sqlite"
)

// DefaultDSN is a private in-memory database that lives as long as the process.
const DefaultDSN = "file:agentcore?mode=memory&cache=shared"

// SQLite persists runs in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens dsn with the modernc driver and ensures the schema.
// In-memory DSNs are pinned to one connection so every query sees the same database.
func OpenSQLite(dsn string) (*SQLite, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.New(errors.CodeStoreError, "open sqlite", err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	s, err := NewSQLite(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database and ensures the schema.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if db == nil {
		return nil, errors.Newf(errors.CodeStoreError, "db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, errors.New(errors.CodeStoreError, "create run schema", err)
	}
	return &SQLite{db: db}, nil
}

// Save inserts or replaces the run.
func (s *SQLite) Save(ctx context.Context, run Run) error {
	if run.RunID == "" {
		return errors.Newf(errors.CodeInvalidInput, "run id must not be empty")
	}
	run = normalize(run)
	trace, err := json.Marshal(run.Trace)
	if err != nil {
		return errors.New(errors.CodeStoreError, "encode trace", err)
	}
	tools, err := json.Marshal(run.Tools)
	if err != nil {
		return errors.New(errors.CodeStoreError, "encode tools", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_runs (
			run_id, goal, context, tools_json, status, output, trace_json, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			goal = excluded.goal,
			context = excluded.context,
			tools_json = excluded.tools_json,
			status = excluded.status,
			output = excluded.output,
			trace_json = excluded.trace_json,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`,
		run.RunID,
		run.Goal,
		run.Context,
		string(tools),
		run.Status,
		run.Output,
		string(trace),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return errors.New(errors.CodeStoreError, "insert run", err).WithContext("run_id", run.RunID)
	}
	return nil
}

const selectRuns = `
	SELECT run_id, goal, context, tools_json, status, output, trace_json, started_at, finished_at
	FROM agent_runs
`

// Get returns the run with runID or a NOT_FOUND error.
func (s *SQLite) Get(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE run_id = ?", runID)
	run, err := scanRun(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, notFound(runID)
	}
	if err != nil {
		return Run{}, errors.New(errors.CodeStoreError, "read run", err).WithContext("run_id", runID)
	}
	return run, nil
}

// List returns runs matching filter, oldest first.
func (s *SQLite) List(ctx context.Context, filter Filter) ([]Run, error) {
	query := selectRuns
	var args []any
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New(errors.CodeStoreError, "list runs", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.New(errors.CodeStoreError, "scan run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.CodeStoreError, "list runs", err)
	}
	return runs, nil
}

// Ping checks the database; used by readiness checks.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		toolsJSON string
		traceJSON string
		started   sql.NullTime
		finished  sql.NullTime
	)
	if err := row.Scan(
		&run.RunID,
		&run.Goal,
		&run.Context,
		&toolsJSON,
		&run.Status,
		&run.Output,
		&traceJSON,
		&started,
		&finished,
	); err != nil {
		return Run{}, err
	}
	if toolsJSON != "" && toolsJSON != "null" {
		if err := json.Unmarshal([]byte(toolsJSON), &run.Tools); err != nil {
			return Run{}, err
		}
	}
	if err := json.Unmarshal([]byte(traceJSON), &run.Trace); err != nil {
		return Run{}, err
	}
	if started.Valid {
		run.StartedAt = started.Time.UTC()
	}
	if finished.Valid {
		run.FinishedAt = finished.Time.UTC()
	}
	return run, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS agent_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			goal TEXT NOT NULL,
			context TEXT NOT NULL DEFAULT '',
			tools_json TEXT,
			status TEXT NOT NULL,
			output TEXT NOT NULL,
			trace_json TEXT NOT NULL,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_agent_runs_status ON agent_runs(status);
	`)
	return err
}

var _ Store = (*SQLite)(nil)
