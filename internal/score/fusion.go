// Package score implements the productivity scoring core: weighted fusion of
// per-module readings, the monotonic baseline floor, and the trigger state
// machine that decides when to activate.
package score

import (
	"errors"
	"fmt"
	"math"
)

// Module identifies a signal source feeding the fusion engine.
type Module string

const (
	ModuleVisual   Module = "visual"
	ModuleWindow   Module = "window"
	ModuleKeyboard Module = "keyboard"
)

// Modules lists every module in fusion order.
var Modules = []Module{ModuleVisual, ModuleWindow, ModuleKeyboard}

// Weights holds the fixed fusion weight of each module.
type Weights struct {
	Visual   float64 `json:"visual"`
	Window   float64 `json:"window"`
	Keyboard float64 `json:"keyboard"`
}

// DefaultWeights are the production weights: visual 0.4, window 0.4,
// keyboard 0.2.
var DefaultWeights = Weights{Visual: 0.4, Window: 0.4, Keyboard: 0.2}

// weightTolerance bounds how far the weight sum may drift from 1.0.
const weightTolerance = 1e-6

// ErrInvalidWeights is returned by Weights.Validate.
var ErrInvalidWeights = errors.New("invalid fusion weights")

// Validate checks that every weight is non-negative and the weights sum to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Visual, w.Window, w.Keyboard} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weight %v is not a non-negative number", ErrInvalidWeights, v)
		}
	}
	sum := w.Visual + w.Window + w.Keyboard
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// Of returns the weight for a module.
func (w Weights) Of(m Module) float64 {
	switch m {
	case ModuleVisual:
		return w.Visual
	case ModuleWindow:
		return w.Window
	case ModuleKeyboard:
		return w.Keyboard
	default:
		return 0
	}
}

// Reading is one module's score for a tick. A zero Reading is absent.
type Reading struct {
	Value   float64
	Present bool
}

// Present wraps a value as a present reading.
func Present(v float64) Reading {
	return Reading{Value: v, Present: true}
}

// Absent is the reading of a source that produced nothing this tick.
var Absent = Reading{}

// Readings holds the per-module readings of one tick.
type Readings struct {
	Visual   Reading `json:"visual"`
	Window   Reading `json:"window"`
	Keyboard Reading `json:"keyboard"`
}

// Get returns the reading for a module.
func (r Readings) Get(m Module) Reading {
	switch m {
	case ModuleVisual:
		return r.Visual
	case ModuleWindow:
		return r.Window
	case ModuleKeyboard:
		return r.Keyboard
	default:
		return Absent
	}
}

// Set stores the reading for a module.
func (r *Readings) Set(m Module, rd Reading) {
	switch m {
	case ModuleVisual:
		r.Visual = rd
	case ModuleWindow:
		r.Window = rd
	case ModuleKeyboard:
		r.Keyboard = rd
	}
}

// Fuse combines the readings into a single score in [0,1].
//
// Absent readings contribute nothing and the remaining weights are NOT
// renormalized: a missing module can only lower the fused score, never raise
// it. Each reading is clamped to [0,1] before weighting and the sum is
// clamped again.
func Fuse(w Weights, r Readings) float64 {
	var total float64
	for _, m := range Modules {
		rd := r.Get(m)
		if !rd.Present {
			continue
		}
		total += w.Of(m) * Clamp(rd.Value)
	}
	return Clamp(total)
}
