// Package sqlite implements the RunJournal port on SQLite. The journal
// records every bootstrap run and its per-step outcomes, backing
// `monetup status` and --resume.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/monetci/monetup/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driven"
)

// Ensure Journal implements the interface.
var _ driven.RunJournal = (*Journal)(nil)

// Journal is a SQLite-backed run journal.
type Journal struct {
	db   *sql.DB
	path string
}

// NewJournal opens (and if needed creates) the journal at the
// specified data directory. If dataDir is empty, defaults to
// ~/.monetup/data/journal.db.
func NewJournal(dataDir string) (*Journal, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".monetup", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "journal.db")

	// WAL keeps concurrent status reads cheap while a run is writing.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	j := &Journal{db: db, path: dbPath}
	if err := j.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// migrate applies embedded migrations that have not run yet, in
// filename order.
func (j *Journal) migrate(fsys fs.FS) error {
	if _, err := j.db.Exec(
		"CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY)"); err != nil {
		return err
	}

	entries, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)

	for _, name := range entries {
		var applied int
		err := j.db.QueryRow(
			"SELECT COUNT(*) FROM schema_migrations WHERE name = ?", name).Scan(&applied)
		if err != nil {
			return err
		}
		if applied > 0 {
			continue
		}

		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		tx, err := j.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(script)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (name) VALUES (?)", name); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun records the start of a run.
func (j *Journal) BeginRun(ctx context.Context, id string, startedAt time.Time) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, status) VALUES (?, ?, ?)",
		id, formatTime(startedAt), string(domain.RunRunning))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the final status of a run.
func (j *Journal) FinishRun(ctx context.Context, id string, status domain.RunStatus, finishedAt time.Time) error {
	res, err := j.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, finished_at = ? WHERE id = ?",
		string(status), formatTime(finishedAt), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// RecordStep upserts the outcome of one step within a run.
func (j *Journal) RecordStep(ctx context.Context, runID string, result domain.StepResult) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO steps (run_id, step_id, status, started_at, finished_at, error, seq)
		VALUES (?, ?, ?, ?, ?, ?,
			COALESCE((SELECT MAX(seq) + 1 FROM steps WHERE run_id = ?), 0))
		ON CONFLICT (run_id, step_id) DO UPDATE SET
			status = excluded.status,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			error = excluded.error`,
		runID, string(result.StepID), string(result.Status),
		nullableTime(result.StartedAt), nullableTime(result.FinishedAt),
		result.Error, runID)
	if err != nil {
		return fmt.Errorf("record step %s: %w", result.StepID, err)
	}
	return nil
}

// LastRun returns the most recently started run with its steps.
func (j *Journal) LastRun(ctx context.Context) (*domain.Run, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`)

	var (
		run        domain.Run
		startedAt  string
		finishedAt sql.NullString
		status     string
	)
	if err := row.Scan(&run.ID, &startedAt, &finishedAt, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load last run: %w", err)
	}

	run.Status = domain.RunStatus(status)
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT step_id, status, started_at, finished_at, error
		FROM steps WHERE run_id = ? ORDER BY seq`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("load steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			step     domain.StepResult
			stepID   string
			stStatus string
			started  sql.NullString
			finished sql.NullString
		)
		if err := rows.Scan(&stepID, &stStatus, &started, &finished, &step.Error); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.StepID = domain.StepID(stepID)
		step.Status = domain.StepStatus(stStatus)
		if started.Valid {
			step.StartedAt = parseTime(started.String)
		}
		if finished.Valid {
			step.FinishedAt = parseTime(finished.String)
		}
		run.Steps = append(run.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load steps: %w", err)
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
