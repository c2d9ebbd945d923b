package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/ports"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const runsTable = "runs"

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var runColumns = []string{
	"id", "started_at", "finished_at", "state", "outcome",
	"mode", "raw_count", "filtered", "new_count", "failed_repos",
}

// HistoryStore records pipeline runs in SQLite.
type HistoryStore struct {
	db      *sql.DB
	path    string
	builder sq.StatementBuilderType
}

var _ ports.RunHistory = (*HistoryStore)(nil)

// OpenHistory opens (creating if needed) the history database and applies
// pending migrations.
func OpenHistory(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
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

	if _, _, err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &HistoryStore{
		db:      db,
		path:    path,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

func runMigrations(db *sql.DB) (uint, bool, error) {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return 0, false, fmt.Errorf("create sqlite migration driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return 0, false, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return 0, false, fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, false, fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Path returns the database file location.
func (h *HistoryStore) Path() string {
	return h.path
}

// Close closes the underlying database connection.
func (h *HistoryStore) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Record upserts one run.
func (h *HistoryStore) Record(ctx context.Context, run domain.RunRecord) error {
	if h == nil || h.db == nil {
		return nil
	}

	query, args, err := h.builder.
		Insert(runsTable).
		Columns(runColumns...).
		Values(
			run.ID,
			formatTime(run.StartedAt),
			formatTime(run.FinishedAt),
			string(run.State),
			string(run.Outcome),
			run.Mode,
			run.RawCount,
			run.Filtered,
			run.NewCount,
			run.Failed,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			finished_at = excluded.finished_at,
			state = excluded.state,
			outcome = excluded.outcome,
			raw_count = excluded.raw_count,
			filtered = excluded.filtered,
			new_count = excluded.new_count,
			failed_repos = excluded.failed_repos`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert run: %w", err)
	}

	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if h == nil || h.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query, args, err := h.builder.
		Select(runColumns...).
		From(runsTable).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select runs: %w", err)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var (
			run               domain.RunRecord
			started, finished string
			state, outcome    string
		)
		if err := rows.Scan(
			&run.ID, &started, &finished, &state, &outcome,
			&run.Mode, &run.RawCount, &run.Filtered, &run.NewCount, &run.Failed,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		run.State = domain.State(state)
		run.Outcome = domain.Outcome(outcome)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return runs, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
