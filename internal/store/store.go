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

	"github.com/verte-zerg/sleepetl/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const dateLayout = "2006-01-02"

// Store wraps SQLite access for nights and naps.
type Store struct {
	db *sql.DB
}

// SaveResult counts rows written by SaveNights.
type SaveResult struct {
	Nights int
	Naps   int
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
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
		`CREATE TABLE IF NOT EXISTS nights (
			id INTEGER PRIMARY KEY,
			start_date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			no_data INTEGER NOT NULL DEFAULT 0,
			resumed INTEGER NOT NULL DEFAULT 0,
			UNIQUE (start_date, start_time)
		);`,
		`CREATE TABLE IF NOT EXISTS naps (
			id INTEGER PRIMARY KEY,
			night_id INTEGER NOT NULL REFERENCES nights(id) ON DELETE CASCADE,
			start_time TEXT NOT NULL,
			duration TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			UNIQUE (night_id, start_time)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nights_start_date ON nights(start_date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveNights upserts nights and their naps in one transaction. A night is
// identified by its start date and time; a nap by its night and start time.
func (s *Store) SaveNights(ctx context.Context, nights []model.Night) (res SaveResult, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SaveResult{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	nightStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nights (start_date, start_time, no_data, resumed)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (start_date, start_time) DO UPDATE SET
			no_data = excluded.no_data,
			resumed = excluded.resumed
		 RETURNING id`)
	if err != nil {
		return SaveResult{}, err
	}
	defer func() {
		if cerr := nightStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	napStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO naps (night_id, start_time, duration, duration_minutes)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (night_id, start_time) DO UPDATE SET
			duration = excluded.duration,
			duration_minutes = excluded.duration_minutes`)
	if err != nil {
		return SaveResult{}, err
	}
	defer func() {
		if cerr := napStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	for _, night := range nights {
		var id int64
		if err = nightStmt.QueryRowContext(ctx,
			night.StartDate.Format(dateLayout),
			night.StartTime,
			night.NoData,
			night.Resumed,
		).Scan(&id); err != nil {
			return SaveResult{}, fmt.Errorf("failed to save night %s %s: %w",
				night.StartDate.Format(dateLayout), night.StartTime, err)
		}
		res.Nights++
		for _, nap := range night.Naps {
			minutes, perr := intervalMinutes(nap.Duration)
			if perr != nil {
				err = perr
				return SaveResult{}, err
			}
			if _, err = napStmt.ExecContext(ctx, id, nap.StartTime, nap.Duration, minutes); err != nil {
				return SaveResult{}, fmt.Errorf("failed to save nap %s: %w", nap.StartTime, err)
			}
			res.Naps++
		}
	}

	if err = tx.Commit(); err != nil {
		return SaveResult{}, err
	}
	return res, nil
}

// ListNightSummaries returns nights with nap totals, oldest first.
func (s *Store) ListNightSummaries(ctx context.Context, cfg model.ReportConfig) ([]model.NightSummary, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "n.start_date >= ?")
		args = append(args, cfg.Since.Format(dateLayout))
	}
	query := fmt.Sprintf(`SELECT n.id, n.start_date, n.start_time, n.no_data, n.resumed,
			COUNT(p.id), COALESCE(SUM(p.duration_minutes), 0)
		FROM nights n
		LEFT JOIN naps p ON p.night_id = n.id
		WHERE %s
		GROUP BY n.id
		ORDER BY n.start_date ASC, n.start_time ASC`, strings.Join(clauses, " AND "))
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

	var result []model.NightSummary
	for rows.Next() {
		var sum model.NightSummary
		var startDate string
		if err := rows.Scan(&sum.NightID, &startDate, &sum.StartTime, &sum.NoData, &sum.Resumed, &sum.NapCount, &sum.Minutes); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, err
		}
		sum.StartDate = parsed
		result = append(result, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListNaps returns the naps of one night ordered by insertion.
func (s *Store) ListNaps(ctx context.Context, nightID int64) ([]model.Nap, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, night_id, start_time, duration FROM naps WHERE night_id = ? ORDER BY id ASC`, nightID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var naps []model.Nap
	for rows.Next() {
		var nap model.Nap
		if err := rows.Scan(&nap.ID, &nap.NightID, &nap.StartTime, &nap.Duration); err != nil {
			return nil, err
		}
		naps = append(naps, nap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return naps, nil
}

func intervalMinutes(interval string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(interval, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", interval, err)
	}
	return h*60 + m, nil
}
