// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/practicer/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			set_id INTEGER NOT NULL,
			source_entry TEXT NOT NULL,
			title TEXT NOT NULL,
			combo_increment INTEGER NOT NULL,
			lead_in TEXT NOT NULL,
			volume INTEGER NOT NULL,
			output_path TEXT NOT NULL,
			output_bytes INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_segments (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			entry TEXT NOT NULL,
			version TEXT NOT NULL,
			combo_start INTEGER NOT NULL,
			combo_end INTEGER NOT NULL,
			start_combo INTEGER NOT NULL,
			approach REAL NOT NULL,
			event_count INTEGER NOT NULL,
			primer_count INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_set_id ON runs(set_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a completed run and its segments. A nil ID is assigned a new one.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord) (id uuid.UUID, err error) {
	id = run.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, ended_at, set_id, source_entry, title, combo_increment, lead_in, volume, output_path, output_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(),
		run.StartedAt.Format(time.RFC3339Nano),
		run.EndedAt.Format(time.RFC3339Nano),
		run.SetID,
		run.SourceEntry,
		run.Title,
		run.Params.ComboIncrement,
		string(run.Params.LeadIn),
		run.Params.Volume,
		run.OutputPath,
		run.OutputBytes,
	)
	if err != nil {
		return uuid.Nil, err
	}

	if len(run.Segments) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO run_segments (run_id, position, entry, version, combo_start, combo_end, start_combo, approach, event_count, primer_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return uuid.Nil, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, seg := range run.Segments {
			if _, err = stmt.ExecContext(ctx, id.String(), i, seg.Entry, seg.Version, seg.Start, seg.End,
				seg.StartCombo, seg.Approach, seg.EventCount, seg.PrimerCount); err != nil {
				return uuid.Nil, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first. last <= 0 returns all.
// Segments are not loaded.
func (s *Store) ListRuns(ctx context.Context, last, setID int) ([]model.RunRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if setID > 0 {
		clauses = append(clauses, "set_id = ?")
		args = append(args, setID)
	}
	limit := ""
	if last > 0 {
		limit = "LIMIT ?"
		args = append(args, last)
	}
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, set_id, source_entry, title, combo_increment, lead_in, volume, output_path, output_bytes
		FROM runs
		WHERE %s
		ORDER BY ended_at DESC
		%s`, strings.Join(clauses, " AND "), limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		var run model.RunRecord
		var id, startedAt, endedAt, leadIn string
		if err := rows.Scan(&id, &startedAt, &endedAt, &run.SetID, &run.SourceEntry, &run.Title,
			&run.Params.ComboIncrement, &leadIn, &run.Params.Volume, &run.OutputPath, &run.OutputBytes); err != nil {
			return nil, err
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		run.Params.LeadIn = model.LeadIn(leadIn)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListSegmentsForRuns returns the segments of each run in generation order.
func (s *Store) ListSegmentsForRuns(ctx context.Context, runIDs []uuid.UUID) (map[uuid.UUID][]model.SegmentRecord, error) {
	result := map[uuid.UUID][]model.SegmentRecord{}
	if len(runIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(runIDs))
	args := make([]any, len(runIDs))
	for i, id := range runIDs {
		placeholders[i] = "?"
		args[i] = id.String()
	}
	query := fmt.Sprintf(`SELECT run_id, entry, version, combo_start, combo_end, start_combo, approach, event_count, primer_count
		FROM run_segments
		WHERE run_id IN (%s)
		ORDER BY run_id, position`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var runID string
		var seg model.SegmentRecord
		if err := rows.Scan(&runID, &seg.Entry, &seg.Version, &seg.Start, &seg.End, &seg.StartCombo,
			&seg.Approach, &seg.EventCount, &seg.PrimerCount); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(runID)
		if err != nil {
			return nil, err
		}
		result[id] = append(result[id], seg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
