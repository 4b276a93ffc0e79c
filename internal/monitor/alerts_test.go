package monitor

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/deproductify/internal/score"
)

func TestEventAlert(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	a := EventAlert(Event{Kind: EventActivate, At: at, Effective: 0.42})
	assert.Equal(t, LevelCritical, a.Level)
	assert.Equal(t, "Protocol Activated!", a.Title)
	assert.Contains(t, a.Message, "0.42")
	assert.Equal(t, at, a.Time)

	tests := []struct {
		band  score.Tenths
		level string
		msg   string
	}{
		{1, LevelInfo, "starting to look productive"},
		{2, LevelWarning, "take a break?"},
		{3, LevelWarning, "TOO productive"},
	}
	for _, tc := range tests {
		a := EventAlert(Event{Kind: EventAdvisory, Band: tc.band})
		assert.Equal(t, tc.level, a.Level, "band %s", tc.band)
		assert.Contains(t, a.Message, tc.msg)
		assert.Contains(t, a.Message, tc.band.String())
	}

	assert.Equal(t, LevelInfo, EventAlert(Event{Kind: EventResume}).Level)
}

func TestCompare_NoChanges(t *testing.T) {
	s := Status{Unavailable: []score.Module{score.ModuleKeyboard}}
	assert.Empty(t, Compare(s, s))
}

func TestCompare_PauseTransitions(t *testing.T) {
	running := Status{}
	paused := Status{Paused: true, PauseReason: "game in focus: steam"}

	alerts := Compare(running, paused)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Monitoring paused", alerts[0].Title)
	assert.Equal(t, "game in focus: steam", alerts[0].Message)

	alerts = Compare(paused, running)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Monitoring resumed", alerts[0].Title)
}

func TestCompare_SourceTransitions(t *testing.T) {
	prev := Status{Unavailable: []score.Module{score.ModuleVisual}}
	curr := Status{Unavailable: []score.Module{score.ModuleWindow}}

	alerts := Compare(prev, curr)
	require.Len(t, alerts, 2)
	assert.Equal(t, LevelWarning, alerts[0].Level)
	assert.Equal(t, "Source unavailable: window", alerts[0].Title)
	assert.Equal(t, LevelInfo, alerts[1].Level)
	assert.Equal(t, "Source recovered: visual", alerts[1].Title)
}

func TestNotifyFallback_Writes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, notifyFallback(&buf, Alert{Level: LevelInfo, Title: "Test alert", Message: "Test message"}))
	assert.Equal(t, "[info] Test alert: Test message\n", buf.String())
}
