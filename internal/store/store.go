// Package store keeps host-side run history in SQLite and caches debugging
// artifacts on disk. Credentials are never written here.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/like4me/internal/types"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		success BOOLEAN NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		processed INTEGER NOT NULL,
		liked INTEGER NOT NULL,
		already_liked INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		commented INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		errors TEXT
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		relation_id TEXT NOT NULL,
		item_url TEXT NOT NULL,
		item_title TEXT,
		published_at DATETIME,
		liked BOOLEAN NOT NULL,
		commented BOOLEAN NOT NULL,
		comment_text TEXT,
		reason TEXT,
		failed BOOLEAN NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_item ON outcomes(item_url);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun records a finished run and its outcomes in one transaction
func (s *Store) SaveRun(r *types.RunResult) (err error) {
	errorsJSON, _ := json.Marshal(r.Errors)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec(`
		INSERT INTO runs (id, success, started_at, completed_at, processed, liked,
			already_liked, failed, commented, skipped, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Success, r.StartedAt.UTC(), r.CompletedAt.UTC(), r.Totals.Processed, r.Totals.Liked,
		r.Totals.AlreadyLiked, r.Totals.Failed, r.Totals.Commented, r.Totals.Skipped, string(errorsJSON))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for _, o := range r.Outcomes {
		var published any
		if o.Item.PublishedAt != nil {
			published = o.Item.PublishedAt.UTC()
		}
		_, err = tx.Exec(`
			INSERT INTO outcomes (run_id, relation_id, item_url, item_title, published_at,
				liked, commented, comment_text, reason, failed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.RunID, o.Relation, o.Item.URL, o.Item.Title, published,
			o.Liked, o.Commented, o.CommentText, string(o.Reason), o.Failed)
		if err != nil {
			return fmt.Errorf("failed to save outcome: %w", err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the latest runs, newest first
func (s *Store) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, success, started_at, completed_at, processed, liked,
			already_liked, failed, commented, skipped, errors
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var errorsJSON sql.NullString
		var completed sql.NullTime

		err := rows.Scan(
			&r.RunID, &r.Success, &r.StartedAt, &completed, &r.Processed, &r.Liked,
			&r.AlreadyLiked, &r.Failed, &r.Commented, &r.Skipped, &errorsJSON,
		)
		if err != nil {
			return nil, err
		}
		if completed.Valid {
			r.CompletedAt = completed.Time
		}
		if errorsJSON.Valid {
			json.Unmarshal([]byte(errorsJSON.String), &r.Errors)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes returns the stored outcomes of a run in processing order
func (s *Store) Outcomes(runID string) ([]OutcomeRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, relation_id, item_url, item_title, published_at,
			liked, commented, comment_text, reason, failed
		FROM outcomes
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		var o OutcomeRecord
		var title, comment, reason sql.NullString
		var published sql.NullTime

		err := rows.Scan(
			&o.RunID, &o.RelationID, &o.ItemURL, &title, &published,
			&o.Liked, &o.Commented, &comment, &reason, &o.Failed,
		)
		if err != nil {
			return nil, err
		}
		o.ItemTitle, o.CommentText, o.Reason = title.String, comment.String, reason.String
		if published.Valid {
			t := published.Time
			o.PublishedAt = &t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Prune removes runs that started before cutoff
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	if _, err := s.db.Exec(`DELETE FROM outcomes WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff.UTC()); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
