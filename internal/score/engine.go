package score

import "time"

// EngineConfig configures an Engine.
type EngineConfig struct {
	Weights Weights
	Trigger TriggerConfig
}

// DefaultEngineConfig returns the production weights and trigger settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{Weights: DefaultWeights, Trigger: DefaultTriggerConfig()}
}

// Outcome is everything one Step decided.
type Outcome struct {
	At            time.Time
	Readings      Readings
	Fused         float64
	Floor         float64
	Effective     float64
	State         State
	CooldownUntil time.Time
	Activate      *ActivateEvent
	Advisory      *Advisory
	Resumed       bool
}

// Engine runs fusion, baseline update and trigger evaluation as one
// synchronous step. It never blocks and performs no I/O.
//
// An Engine holds the state of one monitoring session; create a new one per
// session instead of resetting.
type Engine struct {
	weights  Weights
	baseline *Baseline
	trigger  *Controller
}

// NewEngine validates cfg and returns an engine in the idle state with a
// zero floor.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	baseline := NewBaseline()
	trigger, err := NewController(cfg.Trigger, baseline)
	if err != nil {
		return nil, err
	}
	return &Engine{weights: cfg.Weights, baseline: baseline, trigger: trigger}, nil
}

// Step consumes one tick's readings.
func (e *Engine) Step(r Readings, now time.Time) Outcome {
	out := Outcome{At: now, Readings: r, Fused: Fuse(e.weights, r)}
	out.Resumed = e.trigger.Expire(now)

	if e.trigger.State() == StateCooldown {
		out.Floor = e.baseline.Floor()
		out.Effective = Effective(out.Fused, out.Floor)
		out.State = StateCooldown
		out.CooldownUntil = e.trigger.CooldownUntil()
		return out
	}

	out.Floor = e.baseline.Update(out.Fused)
	out.Effective = Effective(out.Fused, out.Floor)

	d := e.trigger.Tick(out.Effective, now)
	if d.Activate != nil {
		out.Floor = e.baseline.Floor()
	}
	out.Activate = d.Activate
	out.Advisory = d.Advisory
	out.State = d.State
	out.CooldownUntil = d.CooldownUntil
	out.Resumed = out.Resumed || d.Resumed
	return out
}

// Floor returns the baseline floor as of the last step.
func (e *Engine) Floor() float64 {
	return e.baseline.Floor()
}

// State returns the trigger state as of the last step.
func (e *Engine) State() State {
	return e.trigger.State()
}

// Threshold returns the activation threshold.
func (e *Engine) Threshold() float64 {
	return e.trigger.Threshold()
}

// Weights returns the fusion weights.
func (e *Engine) Weights() Weights {
	return e.weights
}
