package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/deproductify/internal/monitor"
	"github.com/blackwell-systems/deproductify/internal/output"
	"github.com/blackwell-systems/deproductify/internal/score"
	"github.com/blackwell-systems/deproductify/internal/store"
)

func TestCommands_Registered(t *testing.T) {
	want := map[string]bool{"watch": false, "history": false, "doctor": false, "cache": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		assert.True(t, found, "%s subcommand not registered on rootCmd", name)
	}
}

func TestEventKind(t *testing.T) {
	assert.Equal(t, store.KindActivation, eventKind(monitor.EventActivate))
	assert.Equal(t, store.KindAdvisory, eventKind(monitor.EventAdvisory))
	assert.Equal(t, store.KindResume, eventKind(monitor.EventResume))
}

func TestStatusLine(t *testing.T) {
	output.SetNoColor(true)
	defer output.SetNoColor(false)

	at := time.Date(2026, 3, 1, 9, 15, 0, 0, time.Local)
	line := statusLine(monitor.Status{
		At:          at,
		Effective:   0.3,
		Floor:       0.3,
		Threshold:   0.4,
		State:       score.StateIdle,
		Unavailable: []score.Module{score.ModuleKeyboard},
	})
	assert.Contains(t, line, "[09:15:00]")
	assert.Contains(t, line, "0.30")
	assert.Contains(t, line, "floor 0.3")
	assert.Contains(t, line, "idle")
	assert.Contains(t, line, "missing [keyboard]")

	paused := statusLine(monitor.Status{At: at, Paused: true, PauseReason: "game in focus: steam"})
	assert.Contains(t, paused, "paused game in focus: steam")
}

func TestPrintAlert(t *testing.T) {
	output.SetNoColor(true)
	defer output.SetNoColor(false)

	var buf bytes.Buffer
	a := monitor.Alert{Level: monitor.LevelWarning, Title: "Too productive", Message: "take a break", Time: time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)}
	printAlert(&buf, a, false)
	assert.Equal(t, "[09:00:00] ▲ Too productive\n         take a break\n", buf.String())

	buf.Reset()
	printAlert(&buf, a, true)
	assert.True(t, strings.HasPrefix(buf.String(), clearLine))
}

type chunkWriter struct {
	chunks []string
}

func (c *chunkWriter) Write(p []byte) (int, error) {
	c.chunks = append(c.chunks, string(p))
	return len(p), nil
}

func TestPrintAlert_ConcurrentWritesStayWhole(t *testing.T) {
	output.SetNoColor(true)
	defer output.SetNoColor(false)

	rec := &chunkWriter{}
	w := &lockedWriter{w: rec}
	a := monitor.Alert{Level: monitor.LevelInfo, Title: "Cooldown over", Message: "monitoring resumed", Time: time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			printAlert(w, a, true)
		}()
		go func() {
			defer wg.Done()
			fmt.Fprint(w, clearLine+"status")
		}()
	}
	wg.Wait()

	require.Len(t, rec.chunks, 40)
	for _, c := range rec.chunks {
		if strings.HasSuffix(c, "status") {
			assert.Equal(t, clearLine+"status", c)
			continue
		}
		assert.Equal(t, clearLine+"[09:00:00] ✓ Cooldown over\n         monitoring resumed\n", c)
	}
}

func TestCheckAPIKey(t *testing.T) {
	t.Setenv("DEPRODUCTIFY_TEST_KEY", "")
	assert.False(t, checkAPIKey("DEPRODUCTIFY_TEST_KEY").Passed)

	t.Setenv("DEPRODUCTIFY_TEST_KEY", "secret")
	c := checkAPIKey("DEPRODUCTIFY_TEST_KEY")
	assert.True(t, c.Passed)
	assert.NotContains(t, c.Message, "secret")
}

func TestCheckScreenshot(t *testing.T) {
	assert.False(t, checkScreenshot("").Passed)
	assert.True(t, checkScreenshot("scrot").Passed)
}

type fixedDevice struct {
	path string
	err  error
}

func (f fixedDevice) Device() (string, error) { return f.path, f.err }

func TestCheckKeyboard(t *testing.T) {
	dev := filepath.Join(t.TempDir(), "event3")
	require.NoError(t, os.WriteFile(dev, nil, 0o644))

	c := checkKeyboard(fixedDevice{path: dev})
	assert.True(t, c.Passed)
	assert.Equal(t, dev, c.Message)

	assert.False(t, checkKeyboard(fixedDevice{path: filepath.Join(t.TempDir(), "missing")}).Passed)
	assert.False(t, checkKeyboard(fixedDevice{err: os.ErrNotExist}).Passed)
}

func TestCheckDatabase(t *testing.T) {
	c := checkDatabase(filepath.Join(t.TempDir(), "d", "deproductify.db"))
	assert.True(t, c.Passed)
	assert.Contains(t, c.Message, "0 cached classifications")
}

func TestRenderHistory(t *testing.T) {
	output.SetNoColor(true)
	defer output.SetNoColor(false)

	db, err := store.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	id, err := db.CreateSession(now.Add(-2*time.Hour), 0.4, 2*time.Minute, "v0.3.0")
	require.NoError(t, err)
	require.NoError(t, db.EndSession(id, now.Add(-time.Hour)))
	_, err = db.InsertEvent(&store.EventRow{SessionID: id, Kind: store.KindActivation, Effective: 0.45, OccurredAt: now.Add(-90 * time.Minute)})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderHistory(&buf, db, now, 7, 0, false))
	out := buf.String()
	assert.Contains(t, out, "Sessions (last 7 days)")
	assert.Contains(t, out, "1h0m0s")
	assert.Contains(t, out, "v0.3.0")
	assert.Contains(t, out, "1 activations across 1 sessions")

	buf.Reset()
	require.NoError(t, renderHistory(&buf, db, now, 7, 0, true))
	assert.Contains(t, buf.String(), `"activations": 1`)
}

func TestRenderHistory_Empty(t *testing.T) {
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	require.NoError(t, renderHistory(&buf, db, time.Now(), 7, 0, true))
	assert.Contains(t, buf.String(), `"sessions": []`)
}
