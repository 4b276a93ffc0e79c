package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// CreateSession inserts a new session and returns its ID.
func (db *DB) CreateSession(startedAt time.Time, threshold float64, cooldown time.Duration, version string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO sessions (id, started_at, threshold, cooldown_seconds, version) VALUES (?, ?, ?, ?, ?)",
		id, startedAt.UTC().Format(timeLayout), threshold, int64(cooldown/time.Second), version,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// EndSession stamps a session's end time.
func (db *DB) EndSession(id string, endedAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET ended_at = ? WHERE id = ?",
		endedAt.UTC().Format(timeLayout), id,
	)
	return err
}

// GetSession returns a session by ID, or nil if it does not exist.
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.conn.QueryRow(
		"SELECT id, started_at, ended_at, threshold, cooldown_seconds, version FROM sessions WHERE id = ?",
		id,
	)
	var s Session
	err := scanSession(row, &s)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns sessions started at or after since, newest first,
// with their activation and advisory counts.
func (db *DB) ListSessions(since time.Time, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT s.id, s.started_at, s.ended_at, s.threshold, s.cooldown_seconds, s.version,
			COALESCE(SUM(CASE WHEN e.kind = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN e.kind = ? THEN 1 ELSE 0 END), 0)
		FROM sessions s
		LEFT JOIN events e ON e.session_id = s.id
		WHERE s.started_at >= ?
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT ?`,
		KindActivation, KindAdvisory, since.UTC().Format(timeLayout), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := scanSession(rows, &s.Session, &s.Activations, &s.Advisories); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner, s *Session, extra ...any) error {
	var startedAt string
	var endedAt sql.NullString
	var cooldown int64
	dest := append([]any{&s.ID, &startedAt, &endedAt, &s.Threshold, &cooldown, &s.Version}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	s.StartedAt, _ = time.Parse(timeLayout, startedAt)
	if endedAt.Valid {
		t, err := time.Parse(timeLayout, endedAt.String)
		if err == nil {
			s.EndedAt = &t
		}
	}
	s.Cooldown = time.Duration(cooldown) * time.Second
	return nil
}
