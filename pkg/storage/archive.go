package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	errs "igaudit/pkg/errors"
	"igaudit/pkg/models"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by LoadRun for an unknown run id
var ErrRunNotFound = errors.New("archived run not found")

// Run describes one archived analysis
type Run struct {
	ID        int64
	Target    string
	Source    string
	CreatedAt time.Time
	Total     int
	Partial   bool
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	target     TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	total      INTEGER NOT NULL,
	partial    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scored_followers (
	run_id           INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	ord              INTEGER NOT NULL,
	username         TEXT NOT NULL,
	full_name        TEXT NOT NULL,
	is_private       INTEGER NOT NULL,
	has_profile_pic  INTEGER NOT NULL,
	is_verified      INTEGER NOT NULL,
	biography        TEXT NOT NULL,
	post_count       INTEGER NOT NULL,
	follower_count   INTEGER NOT NULL,
	following_count  INTEGER NOT NULL,
	external_link    INTEGER NOT NULL,
	follower_ratio   REAL NOT NULL,
	content_ratio    REAL NOT NULL,
	spam_username    INTEGER NOT NULL,
	suspicious_bio   INTEGER NOT NULL,
	fake_probability REAL NOT NULL,
	classification   TEXT NOT NULL,
	reasons          TEXT NOT NULL,
	PRIMARY KEY (run_id, username)
);

CREATE INDEX IF NOT EXISTS idx_scored_followers_probability
	ON scored_followers(run_id, fake_probability DESC);
`

// SQLiteArchive keeps scored runs in an SQLite database so earlier analyses
// can be listed and compared
type SQLiteArchive struct {
	db *sql.DB
}

// OpenArchive opens or creates the archive at path
func OpenArchive(path string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("archive: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("archive: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: schema: %w", err)
	}

	return &SQLiteArchive{db: db}, nil
}

// Close releases the database handle
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

// SaveRun stores run and its results in one transaction and returns the new
// run id. run.ID and run.Total are ignored.
func (a *SQLiteArchive) SaveRun(ctx context.Context, run Run, results []models.ScoredFollower) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.ExportFailed("archive", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (target, source, created_at, total, partial) VALUES (?, ?, ?, ?, ?)`,
		run.Target, run.Source, run.CreatedAt.UTC().Format(time.RFC3339Nano), len(results), run.Partial)
	if err != nil {
		return 0, errs.ExportFailed("archive", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.ExportFailed("archive", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scored_followers (
		run_id, ord, username, full_name, is_private, has_profile_pic, is_verified,
		biography, post_count, follower_count, following_count, external_link,
		follower_ratio, content_ratio, spam_username, suspicious_bio,
		fake_probability, classification, reasons
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errs.ExportFailed("archive", err)
	}
	defer stmt.Close()

	for _, s := range results {
		r := s.Record
		_, err := stmt.ExecContext(ctx,
			id, s.Order, r.Username, r.FullName, r.IsPrivate, r.HasProfilePic, r.IsVerified,
			r.Biography, r.PostCount, r.FollowerCount, r.FollowingCount, r.ExternalLink,
			s.Features.FollowerRatio, s.Features.ContentRatio, s.Features.SpamUsername, s.Features.SuspiciousBio,
			s.Score.FakeProbability, string(s.Score.Classification), strings.Join(s.Score.Reasons, reasonSeparator),
		)
		if err != nil {
			return 0, errs.ExportFailed("archive", fmt.Errorf("follower %s: %w", r.Username, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errs.ExportFailed("archive", err)
	}
	return id, nil
}

// ListRuns returns every archived run, newest first
func (a *SQLiteArchive) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, target, source, created_at, total, partial FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("archive: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run     Run
		created string
	)
	if err := row.Scan(&run.ID, &run.Target, &run.Source, &created, &run.Total, &run.Partial); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("archive: run %d created_at: %w", run.ID, err)
	}
	run.CreatedAt = t
	return run, nil
}

// LoadRun returns the run with the given id and its results in collection
// order
func (a *SQLiteArchive) LoadRun(ctx context.Context, id int64) (Run, []models.ScoredFollower, error) {
	run, err := scanRun(a.db.QueryRowContext(ctx,
		`SELECT id, target, source, created_at, total, partial FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("archive: load run: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, `SELECT
		ord, username, full_name, is_private, has_profile_pic, is_verified,
		biography, post_count, follower_count, following_count, external_link,
		follower_ratio, content_ratio, spam_username, suspicious_bio,
		fake_probability, classification, reasons
		FROM scored_followers WHERE run_id = ? ORDER BY ord`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("archive: load followers: %w", err)
	}
	defer rows.Close()

	results := make([]models.ScoredFollower, 0, run.Total)
	for rows.Next() {
		var (
			s       models.ScoredFollower
			class   string
			reasons string
		)
		r := &s.Record
		if err := rows.Scan(
			&s.Order, &r.Username, &r.FullName, &r.IsPrivate, &r.HasProfilePic, &r.IsVerified,
			&r.Biography, &r.PostCount, &r.FollowerCount, &r.FollowingCount, &r.ExternalLink,
			&s.Features.FollowerRatio, &s.Features.ContentRatio, &s.Features.SpamUsername, &s.Features.SuspiciousBio,
			&s.Score.FakeProbability, &class, &reasons,
		); err != nil {
			return Run{}, nil, fmt.Errorf("archive: scan follower: %w", err)
		}
		s.Score.Username = r.Username
		s.Score.Classification = models.Classification(class)
		if reasons != "" {
			s.Score.Reasons = strings.Split(reasons, reasonSeparator)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("archive: read followers: %w", err)
	}
	return run, results, nil
}
