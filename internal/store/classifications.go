package store

import (
	"database/sql"
	"time"

	"github.com/blackwell-systems/deproductify/internal/classifier"
)

// GetClassification returns a cached classification by content key.
func (db *DB) GetClassification(key string) (classifier.Result, bool, error) {
	var r classifier.Result
	var confidence string
	var reasoning sql.NullString
	err := db.conn.QueryRow(
		"SELECT score, confidence, reasoning FROM classifications WHERE key = ?", key,
	).Scan(&r.Score, &confidence, &reasoning)
	if err == sql.ErrNoRows {
		return classifier.Result{}, false, nil
	}
	if err != nil {
		return classifier.Result{}, false, err
	}
	r.Confidence = classifier.Confidence(confidence)
	r.Reasoning = reasoning.String
	return r, true, nil
}

// PutClassification stores a classification, replacing any previous one
// for the same key.
func (db *DB) PutClassification(key string, r classifier.Result) error {
	_, err := db.conn.Exec(
		`INSERT INTO classifications (key, score, confidence, reasoning, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			score = excluded.score,
			confidence = excluded.confidence,
			reasoning = excluded.reasoning,
			created_at = excluded.created_at`,
		key, r.Score, string(r.Confidence), r.Reasoning, time.Now().UTC().Format(timeLayout),
	)
	return err
}

// CountClassifications returns the number of cached classifications.
func (db *DB) CountClassifications() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM classifications").Scan(&n)
	return n, err
}

// ClearClassifications deletes every cached classification and returns how
// many were removed.
func (db *DB) ClearClassifications() (int64, error) {
	result, err := db.conn.Exec("DELETE FROM classifications")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

var _ classifier.Store = (*DB)(nil)
