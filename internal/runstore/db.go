package runstore

import (
	"database/sql"
	"errors"
	"time"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pagesmith_runs (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	status      TEXT NOT NULL,
	mode        TEXT NOT NULL DEFAULT '',
	passes      INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	out_dir     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
)`

func (s *Store) ensureSchema() error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(schemaSQL)
	})
	return s.schemaErr
}

func (s *Store) putDB(rec Record) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	var finished sql.NullTime
	if !rec.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: rec.FinishedAt, Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO pagesmith_runs (id, url, status, mode, passes, error, out_dir, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			mode = EXCLUDED.mode,
			passes = EXCLUDED.passes,
			error = EXCLUDED.error,
			out_dir = EXCLUDED.out_dir,
			finished_at = EXCLUDED.finished_at`,
		rec.ID, rec.URL, string(rec.Status), string(rec.Mode), rec.Passes,
		rec.Error, rec.OutDir, rec.CreatedAt, finished)
	if err != nil {
		return err
	}
	s.cache.Add(rec.ID, rec)
	return nil
}

func (s *Store) getDB(id string) (Record, bool) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, true
	}
	if err := s.ensureSchema(); err != nil {
		return Record{}, false
	}
	row := s.db.QueryRow(`
		SELECT id, url, status, mode, passes, error, out_dir, created_at, finished_at
		FROM pagesmith_runs WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, false
	}
	s.cache.Add(rec.ID, rec)
	return rec, true
}

func (s *Store) recentDB(n int) []Record {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`
		SELECT id, url, status, mode, passes, error, out_dir, created_at, finished_at
		FROM pagesmith_runs ORDER BY created_at DESC LIMIT $1`, n)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return out
		}
		out = append(out, rec)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var status, mode string
	var created time.Time
	var finished sql.NullTime
	err := row.Scan(&rec.ID, &rec.URL, &status, &mode, &rec.Passes,
		&rec.Error, &rec.OutDir, &created, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, err
	}
	if err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	rec.Mode = Mode(mode)
	rec.CreatedAt = created
	if finished.Valid {
		rec.FinishedAt = finished.Time
	}
	return rec, nil
}
