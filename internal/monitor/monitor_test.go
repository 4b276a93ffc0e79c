package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/deproductify/internal/classifier"
	"github.com/blackwell-systems/deproductify/internal/score"
	"github.com/blackwell-systems/deproductify/internal/signal"
)

type fakeSource struct {
	mu        sync.Mutex
	mod       score.Module
	value     float64
	err       error
	uncertain bool
	obs       signal.Observation
	pause     string
	calls     int
}

func (f *fakeSource) Module() score.Module { return f.mod }

func (f *fakeSource) Score(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.value, f.err
}

func (f *fakeSource) Uncertain() bool             { return f.uncertain }
func (f *fakeSource) Observe() signal.Observation { return f.obs }
func (f *fakeSource) Paused() (bool, string)      { return f.pause != "", f.pause }

func (f *fakeSource) set(v float64) {
	f.mu.Lock()
	f.value = v
	f.mu.Unlock()
}

type fakeClassifier struct {
	mu     sync.Mutex
	result classifier.Result
	err    error
	calls  int
	last   classifier.Context
	// block makes Classify wait until its context is done.
	block bool
}

func (f *fakeClassifier) Classify(ctx context.Context, c classifier.Context) (classifier.Result, error) {
	f.mu.Lock()
	f.calls++
	f.last = c
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return classifier.Result{}, ctx.Err()
	}
	return f.result, f.err
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func sources() (visual, win, kb *fakeSource) {
	return &fakeSource{mod: score.ModuleVisual}, &fakeSource{mod: score.ModuleWindow}, &fakeSource{mod: score.ModuleKeyboard}
}

// newTestMonitor returns a monitor with a live engine so tests can call tick
// directly.
func newTestMonitor(t *testing.T, clk *clock, cls classifier.Classifier, srcs ...signal.Source) *Monitor {
	t.Helper()
	m, err := New(Config{
		TickInterval: time.Second,
		Engine:       score.DefaultEngineConfig(),
		Now:          clk.Now,
	}, srcs, cls)
	require.NoError(t, err)
	m.engine, err = score.NewEngine(m.cfg.Engine)
	require.NoError(t, err)
	return m
}

func latest(t *testing.T, m *Monitor) Status {
	t.Helper()
	s, ok := m.Status().Latest()
	require.True(t, ok, "no status published")
	return s
}

func drain(m *Monitor) []Event {
	var out []Event
	for {
		select {
		case e := <-m.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestNew_Validates(t *testing.T) {
	v, _, _ := sources()
	_, err := New(Config{Engine: score.DefaultEngineConfig()}, []signal.Source{v}, nil)
	assert.Error(t, err, "zero tick interval")

	_, err = New(Config{TickInterval: time.Second, Engine: score.DefaultEngineConfig()}, nil, nil)
	assert.Error(t, err, "no sources")

	bad := score.DefaultEngineConfig()
	bad.Weights.Visual = 0.9
	_, err = New(Config{TickInterval: time.Second, Engine: bad}, []signal.Source{v}, nil)
	assert.ErrorIs(t, err, score.ErrInvalidWeights)
}

func TestTick_FusesEveryReading(t *testing.T) {
	clk := newClock()
	v, w, k := sources()
	v.value = 0.5
	m := newTestMonitor(t, clk, nil, v, w, k)

	m.tick(context.Background())

	s := latest(t, m)
	assert.InDelta(t, 0.2, s.Fused, 1e-9)
	assert.InDelta(t, 0.2, s.Effective, 1e-9)
	assert.Equal(t, score.StateIdle, s.State)
	assert.Equal(t, 1, s.Tick)
	assert.True(t, s.Readings.Window.Present)
	assert.Equal(t, 1, v.calls)
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, 1, k.calls)
}

func TestTick_UnavailableSourceIsAbsent(t *testing.T) {
	clk := newClock()
	v, w, k := sources()
	v.value = 0.9
	w.err = signal.ErrUnavailable
	m := newTestMonitor(t, clk, nil, v, w, k)

	m.tick(context.Background())

	s := latest(t, m)
	assert.False(t, s.Readings.Window.Present)
	assert.Equal(t, []score.Module{score.ModuleWindow}, s.Unavailable)
	assert.InDelta(t, 0.36, s.Fused, 1e-9)
}

func TestTick_ClampsOutOfRangeReadings(t *testing.T) {
	clk := newClock()
	v, w, _ := sources()
	v.value = 3
	w.value = -1
	m := newTestMonitor(t, clk, nil, v, w)

	m.tick(context.Background())

	s := latest(t, m)
	assert.Equal(t, 1.0, s.Readings.Visual.Value)
	assert.Equal(t, 0.0, s.Readings.Window.Value)
}

func TestTick_AdvisoryEvent(t *testing.T) {
	clk := newClock()
	v, w, k := sources()
	v.value = 0.5
	m := newTestMonitor(t, clk, nil, v, w, k)

	m.tick(context.Background())

	evs := drain(m)
	require.Len(t, evs, 1)
	assert.Equal(t, EventAdvisory, evs[0].Kind)
	assert.Equal(t, score.Tenths(2), evs[0].Band)
}

func TestTick_ActivationThenResume(t *testing.T) {
	clk := newClock()
	v, w, k := sources()
	v.value, w.value = 1, 1
	m := newTestMonitor(t, clk, nil, v, w, k)

	m.tick(context.Background())
	evs := drain(m)
	require.Len(t, evs, 1)
	assert.Equal(t, EventActivate, evs[0].Kind)
	assert.InDelta(t, 0.8, evs[0].Effective, 1e-9)
	assert.Equal(t, "visual 1.00, window 1.00, keyboard 0.00", evs[0].Reason)
	assert.Equal(t, score.StateCooldown, latest(t, m).State)

	// Suppressed for the whole cooldown.
	for i := 0; i < 3; i++ {
		clk.Advance(30 * time.Second)
		m.tick(context.Background())
	}
	clk.Advance(29 * time.Second)
	m.tick(context.Background())
	assert.Empty(t, drain(m))

	v.set(0)
	w.set(0)
	clk.Advance(time.Second)
	m.tick(context.Background())
	evs = drain(m)
	require.Len(t, evs, 1)
	assert.Equal(t, EventResume, evs[0].Kind)
	assert.Equal(t, score.StateIdle, latest(t, m).State)
}

func TestTick_PausedSkipsEvaluation(t *testing.T) {
	clk := newClock()
	v, w, k := sources()
	v.value, w.value = 1, 1
	w.pause = "game in focus: steam"
	m := newTestMonitor(t, clk, nil, v, w, k)

	m.tick(context.Background())

	s := latest(t, m)
	assert.True(t, s.Paused)
	assert.Equal(t, "game in focus: steam", s.PauseReason)
	assert.Zero(t, s.Effective)
	assert.Zero(t, m.engine.Floor())
	assert.Empty(t, drain(m))

	w.pause = ""
	m.tick(context.Background())
	assert.False(t, latest(t, m).Paused)
	require.Len(t, drain(m), 1)
}

func TestTick_FallbackRaisesUncertainReading(t *testing.T) {
	clk := newClock()
	v, w, k := sources()
	v.value = 0.1
	v.uncertain = true
	v.obs = signal.Observation{Text: "lecture notes"}
	w.obs = signal.Observation{AppName: "Preview", WindowTitle: "week3.pdf"}
	cls := &fakeClassifier{result: classifier.Result{Score: 1, Confidence: classifier.ConfidenceMedium}}
	m := newTestMonitor(t, clk, cls, v, w, k)

	// The first tick only starts the classification.
	m.tick(context.Background())
	assert.Equal(t, 0.1, latest(t, m).Readings.Visual.Value)
	assert.Nil(t, latest(t, m).Fallback)
	m.lookup.wait()

	m.tick(context.Background())

	s := latest(t, m)
	assert.Equal(t, 1, cls.callCount())
	assert.Equal(t, classifier.Context{AppName: "Preview", WindowTitle: "week3.pdf", Text: "lecture notes"}, cls.last)
	assert.InDelta(t, 0.75, s.Readings.Visual.Value, 1e-9)
	assert.Zero(t, s.Readings.Window.Value, "certain readings are untouched")
	assert.InDelta(t, 0.3, s.Fused, 1e-9)
	require.NotNil(t, s.Fallback)
	assert.Equal(t, classifier.ConfidenceMedium, s.Fallback.Confidence)
}

func TestTick_FallbackNeverLowersReading(t *testing.T) {
	clk := newClock()
	v, _, _ := sources()
	v.value = 0.6
	v.uncertain = true
	v.obs = signal.Observation{Text: "something"}
	cls := &fakeClassifier{result: classifier.Result{Score: 0.1, Confidence: classifier.ConfidenceHigh}}
	m := newTestMonitor(t, clk, cls, v)

	m.tick(context.Background())
	m.lookup.wait()
	m.tick(context.Background())

	require.NotNil(t, latest(t, m).Fallback)
	assert.Equal(t, 0.6, latest(t, m).Readings.Visual.Value)
}

func TestTick_FallbackFailureContributesNothing(t *testing.T) {
	clk := newClock()
	v, _, _ := sources()
	v.value = 0.1
	v.uncertain = true
	v.obs = signal.Observation{Text: "something"}
	cls := &fakeClassifier{err: errors.New("timeout")}
	m := newTestMonitor(t, clk, cls, v)

	m.tick(context.Background())
	m.lookup.wait()
	m.tick(context.Background())

	s := latest(t, m)
	assert.Equal(t, 0.1, s.Readings.Visual.Value)
	assert.Nil(t, s.Fallback)
}

func TestTick_FailedFallbackBacksOff(t *testing.T) {
	clk := newClock()
	v, _, _ := sources()
	v.uncertain = true
	v.obs = signal.Observation{Text: "something"}
	cls := &fakeClassifier{err: errors.New("unavailable")}
	m := newTestMonitor(t, clk, cls, v)

	m.tick(context.Background())
	m.lookup.wait()
	clk.Advance(time.Second)
	m.tick(context.Background())
	m.lookup.wait()
	assert.Equal(t, 1, cls.callCount(), "no retry inside the backoff")

	clk.Advance(failureBackoff)
	m.tick(context.Background())
	m.lookup.wait()
	assert.Equal(t, 2, cls.callCount())
}

func TestTick_SlowFallbackDoesNotDelayTick(t *testing.T) {
	clk := newClock()
	v, w, _ := sources()
	v.value = 0.2
	w.uncertain = true
	w.obs = signal.Observation{AppName: "Obscure", WindowTitle: "untitled"}
	cls := &fakeClassifier{block: true}
	m, err := New(Config{
		TickInterval:      500 * time.Millisecond,
		Engine:            score.DefaultEngineConfig(),
		ClassifierTimeout: 3 * time.Second,
		Now:               clk.Now,
	}, []signal.Source{v, w}, cls)
	require.NoError(t, err)
	m.engine, err = score.NewEngine(m.cfg.Engine)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer m.lookup.wait()
	defer cancel()

	for i := 1; i <= 3; i++ {
		start := time.Now()
		m.tick(ctx)
		assert.Less(t, time.Since(start), m.cfg.TickInterval)
		assert.Equal(t, i, latest(t, m).Tick)
		assert.Nil(t, latest(t, m).Fallback)
	}
	assert.Equal(t, 1, cls.callCount(), "a single call in flight")
}

func TestTick_NoFallbackWhenCertain(t *testing.T) {
	clk := newClock()
	v, w, _ := sources()
	v.obs = signal.Observation{Text: "text"}
	cls := &fakeClassifier{}
	m := newTestMonitor(t, clk, cls, v, w)

	m.tick(context.Background())
	m.lookup.wait()
	assert.Zero(t, cls.callCount())
}

func TestTick_CancelledTickPublishesNothing(t *testing.T) {
	clk := newClock()
	v, _, _ := sources()
	v.value = 1
	m := newTestMonitor(t, clk, nil, v)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.tick(ctx)

	_, ok := m.Status().Latest()
	assert.False(t, ok)
	assert.Empty(t, drain(m))
}

func TestEmit_DropsWhenReaderIsBehind(t *testing.T) {
	clk := newClock()
	v, _, _ := sources()
	m, err := New(Config{TickInterval: time.Second, Engine: score.DefaultEngineConfig(), EventBuffer: 1, Now: clk.Now}, []signal.Source{v}, nil)
	require.NoError(t, err)

	out := score.Outcome{At: clk.Now(), Activate: &score.ActivateEvent{At: clk.Now()}}
	m.emit(out)
	m.emit(out)

	assert.Len(t, drain(m), 1)
}

func TestRun_PublishesUntilCancelled(t *testing.T) {
	v, _, _ := sources()
	v.value = 1
	m, err := New(Config{TickInterval: 5 * time.Millisecond, Engine: score.DefaultEngineConfig()}, []signal.Source{v}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case <-m.Status().Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("no status published")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	// Events is closed once Run returns.
	for range m.Events() {
	}
	assert.ErrorIs(t, m.Run(context.Background()), ErrAlreadyRunning)
}

func TestBreakdown(t *testing.T) {
	r := score.Readings{Visual: score.Present(0.25), Keyboard: score.Present(1)}
	assert.Equal(t, "visual 0.25, window -, keyboard 1.00", Breakdown(r))
}
