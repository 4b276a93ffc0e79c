package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kbBase = time.Unix(1_700_000_000, 0)

func newTestKeyboard() (*Keyboard, *fakeClock) {
	clock := &fakeClock{t: kbBase}
	cfg := DefaultKeyboardConfig()
	cfg.Now = clock.Now
	return NewKeyboard(cfg), clock
}

// typeEvery records n+1 presses spaced by step starting at kbBase.
func typeEvery(k *Keyboard, n int, step time.Duration) time.Time {
	var at time.Time
	for i := 0; i <= n; i++ {
		at = kbBase.Add(time.Duration(i) * step)
		k.Record(at)
	}
	return at
}

func TestKeyboard_NoActivity(t *testing.T) {
	k, _ := newTestKeyboard()
	got, err := k.Score(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestKeyboard_SteadyTyping(t *testing.T) {
	k, clock := newTestKeyboard()
	last := typeEvery(k, 80, 250*time.Millisecond) // 20s at 4 keys/s
	clock.t = last

	s := k.Stats(last)
	assert.InDelta(t, 4.2, s.Rate, 1e-9)
	assert.Equal(t, 20*time.Second, s.Duration)
	assert.True(t, s.Steady)
	assert.Equal(t, 16, s.Words)

	got, err := k.Score(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got, 1e-9) // steady + fast + recent
}

func TestKeyboard_ManyWords(t *testing.T) {
	k, _ := newTestKeyboard()
	last := typeEvery(k, 300, 100*time.Millisecond)
	s := k.Stats(last)
	assert.Equal(t, 60, s.Words)
	assert.InDelta(t, 1.0, s.Score, 1e-9)
}

func TestKeyboard_IdleGapEndsSession(t *testing.T) {
	k, _ := newTestKeyboard()
	last := typeEvery(k, 80, 250*time.Millisecond)

	s := k.Stats(last.Add(6 * time.Second))
	assert.Zero(t, s.Duration)
	assert.Zero(t, s.Rate)
	assert.Zero(t, s.Score)

	// A new press after the gap starts a fresh session.
	resume := last.Add(10 * time.Second)
	k.Record(resume)
	s = k.Stats(resume)
	assert.Zero(t, s.Duration)
	assert.Equal(t, 0, s.Words)
}

func TestKeyboard_HistoryIsBounded(t *testing.T) {
	k, _ := newTestKeyboard()
	typeEvery(k, 1499, 10*time.Millisecond)
	assert.Len(t, k.presses, 1000)
	assert.Equal(t, kbBase.Add(1499*10*time.Millisecond), k.presses[999])
}

type failingFeed struct{ err error }

func (f failingFeed) Run(context.Context, func(time.Time)) error { return f.err }

type scriptedFeed struct{ presses []time.Time }

func (f scriptedFeed) Run(_ context.Context, fn func(time.Time)) error {
	for _, p := range f.presses {
		fn(p)
	}
	return nil
}

func TestKeyboard_ListenFailureMakesSourceUnavailable(t *testing.T) {
	k, _ := newTestKeyboard()
	k.Listen(context.Background(), failingFeed{err: errors.New("permission denied")})
	_, err := k.Score(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestKeyboard_ListenCancelIsNotAFailure(t *testing.T) {
	k, _ := newTestKeyboard()
	k.Listen(context.Background(), failingFeed{err: context.Canceled})
	_, err := k.Score(context.Background())
	assert.NoError(t, err)
}

func TestKeyboard_ListenRecords(t *testing.T) {
	k, clock := newTestKeyboard()
	k.Listen(context.Background(), scriptedFeed{presses: []time.Time{kbBase, kbBase.Add(time.Second)}})
	clock.t = kbBase.Add(time.Second)
	s := k.Stats(clock.t)
	assert.InDelta(t, 2.0, s.Rate, 1e-9)
	assert.Equal(t, time.Second, s.Duration)
}
