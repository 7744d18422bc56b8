package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dailies/internal/config"
)

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// ErrRunNotFound is returned when Finish targets an unknown run.
var ErrRunNotFound = errors.New("run not found")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
	runColumns      = "id, status, project, media_dir, folder, timeline, clip_count, job_id, error_message, started_at, finished_at"
	defaultListSize = 20
)

// Open initializes or connects to the history database configured in cfg.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("history: config is required")
	}
	return OpenPath(cfg.History.Path)
}

// OpenPath opens the ledger at an explicit location, creating parent directories.
func OpenPath(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("history: database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Start records a new running row. StartedAt defaults to the current time.
func (s *Store) Start(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("history: run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}
	return s.exec(ctx,
		`INSERT INTO runs (id, status, project, media_dir, folder, timeline, clip_count, job_id, error_message, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', ?)`,
		run.ID,
		string(StatusRunning),
		run.Summary.Project,
		run.Summary.MediaDir,
		run.Summary.Folder,
		run.Summary.Timeline,
		run.Summary.ClipCount,
		run.Summary.JobID,
		formatTime(run.StartedAt),
	)
}

// Finish stores the final status and summary of a run. runErr, when non-nil,
// is kept as the row's error message.
func (s *Store) Finish(ctx context.Context, id string, status Status, summary Summary, runErr error) error {
	if !status.Terminal() {
		return fmt.Errorf("history: %q is not a terminal status", status)
	}
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`UPDATE runs SET status = ?, project = ?, media_dir = ?, folder = ?, timeline = ?,
			 clip_count = ?, job_id = ?, error_message = ?, finished_at = ? WHERE id = ?`,
			string(status),
			summary.Project,
			summary.MediaDir,
			summary.Folder,
			summary.Timeline,
			summary.ClipCount,
			summary.JobID,
			message,
			formatTime(s.now()),
			id,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// List returns the most recent runs, newest first. A non-positive limit uses
// a default page size.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListSize
	}
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns a single run by identifier.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		status      string
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&status,
		&run.Summary.Project,
		&run.Summary.MediaDir,
		&run.Summary.Folder,
		&run.Summary.Timeline,
		&run.Summary.ClipCount,
		&run.Summary.JobID,
		&run.ErrorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Run{}, err
	}
	run.Status = Status(status)
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
