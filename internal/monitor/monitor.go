// Package monitor runs the polling loop that gathers signal readings,
// feeds them through the scoring engine and hands the results to the
// presentation side without ever waiting on it.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/deproductify/internal/classifier"
	"github.com/blackwell-systems/deproductify/internal/score"
	"github.com/blackwell-systems/deproductify/internal/signal"
)

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("monitor already running")

// DefaultEventBuffer is the capacity of the events channel.
const DefaultEventBuffer = 16

// Config configures a Monitor.
type Config struct {
	TickInterval      time.Duration
	Engine            score.EngineConfig
	ClassifierTimeout time.Duration
	EventBuffer       int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// EventKind distinguishes events sent to the presentation side.
type EventKind int

const (
	EventActivate EventKind = iota
	EventAdvisory
	EventResume
)

func (k EventKind) String() string {
	switch k {
	case EventActivate:
		return "activation"
	case EventAdvisory:
		return "advisory"
	case EventResume:
		return "resume"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is an activation, advisory or end of cooldown.
type Event struct {
	Kind      EventKind
	At        time.Time
	Band      score.Tenths
	Fused     float64
	Effective float64
	Readings  score.Readings
	Reason    string
}

// Status is the published state after each tick.
type Status struct {
	At            time.Time
	Tick          int
	Readings      score.Readings
	Fused         float64
	Floor         float64
	Effective     float64
	State         score.State
	CooldownUntil time.Time
	Threshold     float64
	Paused        bool
	PauseReason   string
	Unavailable   []score.Module
	Fallback      *classifier.Result
}

// Monitor owns one monitoring session.
type Monitor struct {
	cfg     Config
	sources []signal.Source
	lookup  *lookup
	now     func() time.Time

	events  chan Event
	status  *Mailbox[Status]
	started atomic.Bool

	// Session state, touched only by the Run goroutine.
	engine *score.Engine
	ticks  int
}

// New validates cfg and returns a monitor. cls may be nil to disable the
// semantic fallback.
func New(cfg Config, sources []signal.Source, cls classifier.Classifier) (*Monitor, error) {
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("tick interval %s must be positive", cfg.TickInterval)
	}
	if len(sources) == 0 {
		return nil, errors.New("no signal sources configured")
	}
	if _, err := score.NewEngine(cfg.Engine); err != nil {
		return nil, err
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	if cfg.ClassifierTimeout <= 0 {
		cfg.ClassifierTimeout = 10 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	m := &Monitor{
		cfg:     cfg,
		sources: sources,
		now:     now,
		events:  make(chan Event, cfg.EventBuffer),
		status:  NewMailbox[Status](),
	}
	if cls != nil {
		m.lookup = newLookup(cls, cfg.ClassifierTimeout, now)
	}
	return m, nil
}

// Events delivers activations, advisories and resumes. It is closed when Run
// returns.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Status exposes the latest published status.
func (m *Monitor) Status() *Mailbox[Status] {
	return m.status
}

// Run evaluates a tick immediately and then once per tick interval until ctx
// is cancelled. Ticks never overlap. All session state is discarded when Run
// returns. A Monitor runs at most once.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(m.events)
	if m.lookup != nil {
		defer m.lookup.wait()
	}

	engine, err := score.NewEngine(m.cfg.Engine)
	if err != nil {
		return err
	}
	m.engine = engine
	defer func() { m.engine = nil }()

	slog.Info("monitoring started",
		"tick", m.cfg.TickInterval,
		"threshold", engine.Threshold(),
		"sources", len(m.sources),
	)

	m.tick(ctx)

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitoring stopped", "ticks", m.ticks)
			return ctx.Err()
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

type gathered struct {
	readings    score.Readings
	uncertain   []score.Module
	unavailable []score.Module
}

// tick runs one gather, fallback and engine step. A tick interrupted by
// cancellation publishes nothing.
func (m *Monitor) tick(ctx context.Context) {
	g := m.gather(ctx)
	if ctx.Err() != nil {
		return
	}
	m.ticks++

	if paused, reason := m.paused(); paused {
		slog.Debug("tick skipped", "reason", reason)
		m.status.Put(Status{
			At:          m.now(),
			Tick:        m.ticks,
			Readings:    g.readings,
			Floor:       m.engine.Floor(),
			State:       m.engine.State(),
			Threshold:   m.engine.Threshold(),
			Paused:      true,
			PauseReason: reason,
			Unavailable: g.unavailable,
		})
		return
	}

	fallback := m.fallback(ctx, &g)

	out := m.engine.Step(g.readings, m.now())
	m.emit(out)
	m.status.Put(Status{
		At:            out.At,
		Tick:          m.ticks,
		Readings:      out.Readings,
		Fused:         out.Fused,
		Floor:         out.Floor,
		Effective:     out.Effective,
		State:         out.State,
		CooldownUntil: out.CooldownUntil,
		Threshold:     m.engine.Threshold(),
		Unavailable:   g.unavailable,
		Fallback:      fallback,
	})
}

// gather queries every source in parallel and waits for all of them.
func (m *Monitor) gather(ctx context.Context) gathered {
	type result struct {
		value float64
		err   error
	}
	results := make([]result, len(m.sources))

	var eg errgroup.Group
	for i, src := range m.sources {
		eg.Go(func() error {
			v, err := src.Score(ctx)
			results[i] = result{value: v, err: err}
			return nil
		})
	}
	_ = eg.Wait()

	var g gathered
	for i, src := range m.sources {
		mod, res := src.Module(), results[i]
		if res.err != nil {
			if ctx.Err() == nil {
				slog.Warn("source unavailable", "module", mod, "error", res.err)
			}
			g.unavailable = append(g.unavailable, mod)
			continue
		}
		if res.value < 0 || res.value > 1 || math.IsNaN(res.value) {
			slog.Warn("score out of range, clamping", "module", mod, "value", res.value)
		}
		g.readings.Set(mod, score.Present(score.Clamp(res.value)))
		if u, ok := src.(signal.Uncertainty); ok && u.Uncertain() {
			g.uncertain = append(g.uncertain, mod)
		}
	}
	return g
}

func (m *Monitor) paused() (bool, string) {
	for _, src := range m.sources {
		if p, ok := src.(signal.Pauser); ok {
			if paused, reason := p.Paused(); paused {
				return true, reason
			}
		}
	}
	return false, ""
}

// fallback raises each uncertain reading to the confidence-weighted
// classification of the current screen. The classification runs in the
// background; until it has finished, or when it fails, nothing changes.
func (m *Monitor) fallback(ctx context.Context, g *gathered) *classifier.Result {
	if m.lookup == nil || len(g.uncertain) == 0 {
		return nil
	}

	var obs signal.Observation
	for _, src := range m.sources {
		if d, ok := src.(signal.Describer); ok {
			obs = obs.Merge(d.Observe())
		}
	}
	in := classifier.Context{AppName: obs.AppName, WindowTitle: obs.WindowTitle, Text: obs.Text}
	if in.Empty() {
		return nil
	}

	res, ok := m.lookup.get(ctx, in)
	if !ok {
		return nil
	}

	boost := score.Clamp(res.Weighted())
	for _, mod := range g.uncertain {
		rd := g.readings.Get(mod)
		rd.Value = max(rd.Value, boost)
		g.readings.Set(mod, rd)
	}
	slog.Debug("fallback classified",
		"score", res.Score,
		"confidence", res.Confidence,
		"cached", res.Cached,
		"modules", g.uncertain,
	)
	return &res
}

// emit hands events to the reader without blocking. Events that do not fit
// are dropped.
func (m *Monitor) emit(out score.Outcome) {
	base := Event{At: out.At, Fused: out.Fused, Effective: out.Effective, Readings: out.Readings, Reason: Breakdown(out.Readings)}
	var evs []Event
	if out.Resumed {
		e := base
		e.Kind = EventResume
		evs = append(evs, e)
	}
	if out.Advisory != nil {
		e := base
		e.Kind = EventAdvisory
		e.Band = out.Advisory.Band
		evs = append(evs, e)
	}
	if out.Activate != nil {
		e := base
		e.Kind = EventActivate
		evs = append(evs, e)
	}

	for _, e := range evs {
		select {
		case m.events <- e:
		default:
			slog.Warn("event dropped, reader is behind", "kind", e.Kind)
		}
	}
}

// Breakdown renders the per-module readings, e.g.
// "visual 0.90, window 0.80, keyboard -".
func Breakdown(r score.Readings) string {
	parts := make([]string, 0, len(score.Modules))
	for _, mod := range score.Modules {
		rd := r.Get(mod)
		if !rd.Present {
			parts = append(parts, fmt.Sprintf("%s -", mod))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %.2f", mod, rd.Value))
	}
	return strings.Join(parts, ", ")
}
