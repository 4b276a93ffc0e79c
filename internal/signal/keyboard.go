package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blackwell-systems/deproductify/internal/keys"
	"github.com/blackwell-systems/deproductify/internal/score"
)

const (
	steadyTypingPoints = 0.4
	fastTypingPoints   = 0.3
	manyWordsPoints    = 0.2
	recentTypingPoints = 0.1

	// fastTypingFactor scales the rate threshold for the fast-typing bonus.
	fastTypingFactor = 1.5
	keysPerWord      = 5
	manyWords        = 50
)

// KeyboardConfig holds the keystroke-rate thresholds.
type KeyboardConfig struct {
	RateThreshold  float64
	SteadyDuration time.Duration
	// RateWindow is how far back the typing rate looks.
	RateWindow time.Duration
	// IdleGap ends a typing session.
	IdleGap time.Duration
	History int
	Now     func() time.Time
}

// DefaultKeyboardConfig returns the production thresholds.
func DefaultKeyboardConfig() KeyboardConfig {
	return KeyboardConfig{
		RateThreshold:  2.0,
		SteadyDuration: 15 * time.Second,
		RateWindow:     5 * time.Second,
		IdleGap:        5 * time.Second,
		History:        1000,
	}
}

// KeyboardStats summarises typing at a point in time.
type KeyboardStats struct {
	Rate     float64
	Duration time.Duration
	Words    int
	Steady   bool
	Score    float64
}

// Keyboard scores typing activity from keypress timestamps. Record may be
// called from any goroutine.
type Keyboard struct {
	cfg KeyboardConfig
	now func() time.Time

	mu          sync.Mutex
	presses     []time.Time
	sessionKeys int
	typingStart time.Time
	lastPress   time.Time
	feedErr     error
}

// NewKeyboard returns a keyboard source with no recorded presses.
func NewKeyboard(cfg KeyboardConfig) *Keyboard {
	if cfg.History <= 0 {
		cfg.History = DefaultKeyboardConfig().History
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = DefaultKeyboardConfig().RateWindow
	}
	if cfg.IdleGap <= 0 {
		cfg.IdleGap = DefaultKeyboardConfig().IdleGap
	}
	return &Keyboard{cfg: cfg, now: clockOrNow(cfg.Now)}
}

// Record counts one keypress at the given time.
func (k *Keyboard) Record(at time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.typingStart.IsZero() || at.Sub(k.lastPress) > k.cfg.IdleGap {
		k.typingStart = at
		k.sessionKeys = 0
	}
	k.lastPress = at
	k.sessionKeys++

	k.presses = append(k.presses, at)
	if len(k.presses) > k.cfg.History {
		n := copy(k.presses, k.presses[len(k.presses)-k.cfg.History:])
		k.presses = k.presses[:n]
	}
}

// Listen feeds keypresses from feed until ctx is cancelled. A feed failure
// makes every later Score call report ErrUnavailable.
func (k *Keyboard) Listen(ctx context.Context, feed keys.Feed) {
	err := feed.Run(ctx, k.Record)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	slog.Warn("keyboard feed stopped", "error", err)
	k.mu.Lock()
	k.feedErr = err
	k.mu.Unlock()
}

// Stats computes the typing statistics as of now.
func (k *Keyboard) Stats(now time.Time) KeyboardStats {
	k.mu.Lock()
	defer k.mu.Unlock()

	var s KeyboardStats

	cutoff := now.Add(-k.cfg.RateWindow)
	var first, last time.Time
	recent := 0
	for _, p := range k.presses {
		if p.Before(cutoff) || p.After(now) {
			continue
		}
		if recent == 0 {
			first = p
		}
		last = p
		recent++
	}
	if span := last.Sub(first).Seconds(); recent > 0 && span > 0 {
		s.Rate = float64(recent) / span
	} else {
		s.Rate = float64(recent)
	}

	if !k.typingStart.IsZero() && now.Sub(k.lastPress) <= k.cfg.IdleGap {
		s.Duration = now.Sub(k.typingStart)
		s.Words = k.sessionKeys / keysPerWord
	}

	s.Steady = s.Rate >= k.cfg.RateThreshold && s.Duration >= k.cfg.SteadyDuration

	var total float64
	if s.Steady {
		total += steadyTypingPoints
	}
	if s.Rate >= k.cfg.RateThreshold*fastTypingFactor {
		total += fastTypingPoints
	}
	if s.Words >= manyWords {
		total += manyWordsPoints
	}
	if s.Duration > 0 && s.Rate > 0 {
		total += recentTypingPoints
	}
	s.Score = score.Clamp(total)
	return s
}

// Module implements Source.
func (k *Keyboard) Module() score.Module {
	return score.ModuleKeyboard
}

// Score implements Source.
func (k *Keyboard) Score(context.Context) (float64, error) {
	k.mu.Lock()
	err := k.feedErr
	k.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return k.Stats(k.now()).Score, nil
}
