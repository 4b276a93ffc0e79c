// Package store provides SQLite persistence for monitoring sessions, the
// events they raised and cached classifications.
package store

import "time"

// Event kinds.
const (
	KindActivation = "activation"
	KindAdvisory   = "advisory"
	KindResume     = "resume"
)

// Session is one run of the monitor.
type Session struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	Threshold float64       `json:"threshold"`
	Cooldown  time.Duration `json:"cooldown"`
	Version   string        `json:"version"`
}

// EventRow is one recorded activation, advisory or resume.
type EventRow struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	Band       float64   `json:"band,omitempty"`
	Fused      float64   `json:"fused"`
	Effective  float64   `json:"effective"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SessionSummary is a session with its event counts.
type SessionSummary struct {
	Session
	Activations int `json:"activations"`
	Advisories  int `json:"advisories"`
}

// Duration returns how long the session ran, up to now if it has not ended.
func (s SessionSummary) Duration(now time.Time) time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
