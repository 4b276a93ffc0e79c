package store

import (
	"database/sql"
	"time"
)

// InsertEvent records an event and returns its ID.
func (db *DB) InsertEvent(e *EventRow) (int64, error) {
	var band sql.NullFloat64
	if e.Kind == KindAdvisory {
		band = sql.NullFloat64{Float64: e.Band, Valid: true}
	}
	result, err := db.conn.Exec(
		`INSERT INTO events (session_id, kind, band, fused, effective, reason, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Kind, band, e.Fused, e.Effective, e.Reason,
		e.OccurredAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListEvents returns a session's events in the order they occurred.
func (db *DB) ListEvents(sessionID string) ([]EventRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, session_id, kind, band, fused, effective, reason, occurred_at
		FROM events WHERE session_id = ? ORDER BY occurred_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var e EventRow
		var band sql.NullFloat64
		var reason sql.NullString
		var occurredAt string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &band, &e.Fused, &e.Effective, &reason, &occurredAt); err != nil {
			return nil, err
		}
		e.Band = band.Float64
		e.Reason = reason.String
		e.OccurredAt, _ = time.Parse(timeLayout, occurredAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountActivations returns the number of activations at or after since.
func (db *DB) CountActivations(since time.Time) (int, error) {
	var n int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM events WHERE kind = ? AND occurred_at >= ?",
		KindActivation, since.UTC().Format(timeLayout),
	).Scan(&n)
	return n, err
}
