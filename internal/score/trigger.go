package score

import (
	"errors"
	"fmt"
	"time"
)

// Production defaults for the trigger controller.
const (
	DefaultThreshold    = 0.4
	DefaultCooldown     = 2 * time.Minute
	DefaultTickInterval = 500 * time.Millisecond
)

// thresholdEpsilon lets a score that is 0.4 in intent but 0.39999999999 in
// representation still cross a 0.4 threshold.
const thresholdEpsilon = 1e-9

// State is the trigger controller's state.
type State int

const (
	StateIdle State = iota
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCooldown:
		return "cooldown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ActivateEvent tells the presenter to activate now.
type ActivateEvent struct {
	At time.Time
}

// Advisory is a non-activating notice that the effective score reached a
// band below the threshold.
type Advisory struct {
	Band Tenths
	At   time.Time
}

// Decision is the result of one controller tick.
type Decision struct {
	Activate      *ActivateEvent
	Advisory      *Advisory
	State         State
	CooldownUntil time.Time
	// Resumed is set on the tick that ended a cooldown.
	Resumed bool
}

// Resetter is implemented by the baseline tracker.
type Resetter interface {
	Reset()
}

// TriggerConfig configures a Controller.
type TriggerConfig struct {
	Threshold float64
	Cooldown  time.Duration
	// AdvisoryBands are the bands that produce advisories. Nil means every
	// band strictly below the threshold's band.
	AdvisoryBands []Tenths
}

// DefaultTriggerConfig returns the production trigger settings.
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{Threshold: DefaultThreshold, Cooldown: DefaultCooldown}
}

// ErrInvalidTrigger is returned for unusable trigger settings.
var ErrInvalidTrigger = errors.New("invalid trigger configuration")

// Validate checks the threshold and cooldown.
func (c TriggerConfig) Validate() error {
	if !(c.Threshold > 0 && c.Threshold <= 1) {
		return fmt.Errorf("%w: threshold %v must be in (0, 1]", ErrInvalidTrigger, c.Threshold)
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("%w: cooldown %s must be positive", ErrInvalidTrigger, c.Cooldown)
	}
	for _, b := range c.AdvisoryBands {
		if b <= 0 || b > MaxTenths {
			return fmt.Errorf("%w: advisory band %d out of range", ErrInvalidTrigger, b)
		}
	}
	return nil
}

func (c TriggerConfig) advisoryBands() map[Tenths]bool {
	bands := make(map[Tenths]bool)
	if c.AdvisoryBands != nil {
		for _, b := range c.AdvisoryBands {
			if b.Float()+thresholdEpsilon < c.Threshold {
				bands[b] = true
			}
		}
		return bands
	}
	for b := Tenths(1); b < MaxTenths && b.Float()+thresholdEpsilon < c.Threshold; b++ {
		bands[b] = true
	}
	return bands
}

// Controller decides when to activate. In StateIdle an effective score at or
// above the threshold emits exactly one ActivateEvent, resets the baseline
// and enters StateCooldown. In StateCooldown every input is ignored until the
// cooldown expires, at which point the controller returns to StateIdle and
// resets the baseline again.
//
// A Controller is owned by a single monitoring loop and is not safe for
// concurrent use.
type Controller struct {
	threshold float64
	cooldown  time.Duration
	advisable map[Tenths]bool
	baseline  Resetter

	state   State
	until   time.Time
	advised Tenths
}

// NewController validates cfg and returns an idle controller. baseline may
// be nil.
func NewController(cfg TriggerConfig, baseline Resetter) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		threshold: cfg.Threshold,
		cooldown:  cfg.Cooldown,
		advisable: cfg.advisoryBands(),
		baseline:  baseline,
	}, nil
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// CooldownUntil returns when the current cooldown ends, or the zero time
// when idle.
func (c *Controller) CooldownUntil() time.Time {
	return c.until
}

// Threshold returns the activation threshold.
func (c *Controller) Threshold() float64 {
	return c.threshold
}

// Expire ends a due cooldown and reports whether it did.
func (c *Controller) Expire(now time.Time) bool {
	if c.state != StateCooldown || now.Before(c.until) {
		return false
	}
	c.state = StateIdle
	c.until = time.Time{}
	c.advised = 0
	c.resetBaseline()
	return true
}

// Tick evaluates one effective score.
func (c *Controller) Tick(effective float64, now time.Time) Decision {
	resumed := c.Expire(now)
	if c.state == StateCooldown {
		return Decision{State: c.state, CooldownUntil: c.until}
	}

	effective = Clamp(effective)
	if effective+thresholdEpsilon >= c.threshold {
		c.state = StateCooldown
		c.until = now.Add(c.cooldown)
		c.advised = 0
		c.resetBaseline()
		return Decision{
			Activate:      &ActivateEvent{At: now},
			State:         c.state,
			CooldownUntil: c.until,
			Resumed:       resumed,
		}
	}

	d := Decision{State: c.state, Resumed: resumed}
	band := BandOf(effective)
	if band <= c.advised {
		return d
	}
	// Only the highest newly crossed band is announced; lower ones are
	// marked as passed so they never fire later in this cycle.
	for b := band; b > c.advised; b-- {
		if c.advisable[b] {
			d.Advisory = &Advisory{Band: b, At: now}
			break
		}
	}
	c.advised = band
	return d
}

func (c *Controller) resetBaseline() {
	if c.baseline != nil {
		c.baseline.Reset()
	}
}
