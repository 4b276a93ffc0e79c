// Package signal implements the detectors that each turn one kind of user
// activity into a productivity score in [0,1] once per tick.
package signal

import (
	"context"
	"errors"
	"time"

	"github.com/blackwell-systems/deproductify/internal/score"
)

// ErrUnavailable marks a source that could not produce a reading this tick.
// The monitor treats the source as absent for that tick only.
var ErrUnavailable = errors.New("signal source unavailable")

// Source produces one reading per tick.
type Source interface {
	Module() score.Module
	Score(ctx context.Context) (float64, error)
}

// Uncertainty is implemented by sources whose heuristics can be
// inconclusive. Uncertain describes the most recent Score call.
type Uncertainty interface {
	Uncertain() bool
}

// Observation is context a source saw during its last Score call, handed to
// the semantic classifier when some source is uncertain.
type Observation struct {
	AppName     string
	WindowTitle string
	Text        string
}

// Merge fills the empty fields of o from other.
func (o Observation) Merge(other Observation) Observation {
	if o.AppName == "" {
		o.AppName = other.AppName
	}
	if o.WindowTitle == "" {
		o.WindowTitle = other.WindowTitle
	}
	if o.Text == "" {
		o.Text = other.Text
	}
	return o
}

// Describer is implemented by sources that can describe what they saw.
type Describer interface {
	Observe() Observation
}

// Pauser is implemented by sources that can ask the monitor to skip
// evaluation entirely, for example while a game has focus.
type Pauser interface {
	Paused() (bool, string)
}

func clockOrNow(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
