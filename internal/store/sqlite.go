package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/amishk599/jobradar/internal/model"
)

// ArchivedJob is a match recorded by a past run.
type ArchivedJob struct {
	ID         string
	RunID      string
	Job        model.Job
	ArchivedAt time.Time
}

// Ensure SQLiteArchive implements model.Notifier.
var _ model.Notifier = (*SQLiteArchive)(nil)

// SQLiteArchive appends every notified match to a SQLite table. The
// pipeline only writes to it; reads serve the history command.
type SQLiteArchive struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteArchive opens (or creates) the database at dbPath and migrates
// it to the latest schema.
func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteArchive{db: db, now: time.Now}, nil
}

// Notify records jobs under the run id carried by ctx.
func (a *SQLiteArchive) Notify(ctx context.Context, jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	runID := model.RunID(ctx)
	if runID == "" {
		runID = "manual"
	}
	archivedAt := a.now().UTC().Format(time.RFC3339Nano)

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO archived_jobs
		(id, run_id, url, title, company, location, source, posted_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("archive: prepare: %w", err)
	}
	defer stmt.Close()

	for _, j := range jobs {
		var posted sql.NullString
		if j.PostedAt != nil {
			posted = sql.NullString{String: j.PostedAt.UTC().Format(time.RFC3339), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), runID, j.URL, j.Title, j.Company, j.Location, j.Source, posted, archivedAt,
		); err != nil {
			return fmt.Errorf("archive: inserting %s: %w", j.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive: commit: %w", err)
	}
	return nil
}

// Recent returns up to limit archived jobs, newest first.
func (a *SQLiteArchive) Recent(ctx context.Context, limit int) ([]ArchivedJob, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx, `SELECT id, run_id, url, title, company, location, source, posted_at, archived_at
		FROM archived_jobs ORDER BY archived_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: querying recent: %w", err)
	}
	defer rows.Close()

	var out []ArchivedJob
	for rows.Next() {
		var (
			aj         ArchivedJob
			posted     sql.NullString
			archivedAt string
		)
		if err := rows.Scan(&aj.ID, &aj.RunID, &aj.Job.URL, &aj.Job.Title, &aj.Job.Company,
			&aj.Job.Location, &aj.Job.Source, &posted, &archivedAt); err != nil {
			return nil, fmt.Errorf("archive: scanning row: %w", err)
		}
		if posted.Valid {
			if t, err := time.Parse(time.RFC3339, posted.String); err == nil {
				aj.Job.PostedAt = &t
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, archivedAt); err == nil {
			aj.ArchivedAt = t
		}
		out = append(out, aj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: iterating rows: %w", err)
	}
	return out, nil
}

// Count returns the number of archived rows.
func (a *SQLiteArchive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM archived_jobs").Scan(&n); err != nil {
		return 0, fmt.Errorf("archive: counting rows: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
