package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/deproductify/internal/config"
	"github.com/blackwell-systems/deproductify/internal/monitor"
	"github.com/blackwell-systems/deproductify/internal/output"
	"github.com/blackwell-systems/deproductify/internal/presenter"
)

var (
	watchDaemon bool
	watchStop   bool
	watchQuiet  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor activity and activate when you are too productive",
	Long: `Watch the screen, the focused window and keyboard rhythm twice a
second. Rising productivity produces advisory notifications; once the score
reaches the threshold the Performative Protocol is activated and monitoring
cools down for a while.

Examples:
  deproductify watch              # run in foreground (ctrl-c to stop)
  deproductify watch --quiet      # notifications only, no terminal output
  deproductify watch --daemon     # run in background, write PID file
  deproductify watch --stop       # stop the background daemon`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	rootCmd.AddCommand(watchCmd)
}

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\x1b[K"

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.pid")
}

// logFilePath returns the path to the daemon log file.
func logFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchStop {
		return stopDaemon()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if watchDaemon {
		return runDaemon(cfg)
	}
	return runForeground(cfg)
}

// shutdownContext is cancelled on SIGINT or SIGTERM.
func shutdownContext() (context.Context, context.CancelFunc) {
	return ossignal.NotifyContext(context.Background(), shutdownSignals...)
}

// runForeground runs the monitor with live terminal output.
func runForeground(cfg *config.Config) error {
	ctx, cancel := shutdownContext()
	defer cancel()

	var out io.Writer = os.Stdout
	if watchQuiet {
		out = io.Discard
	}
	live := !watchQuiet && isTerminal(os.Stdout)

	err := runMonitor(ctx, cfg, out, live)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "\nStopped.")
		return nil
	}
	return err
}

// runDaemon sets up PID and log files, then runs the monitor. The actual
// backgrounding should be done by the caller (nohup, &, etc.) since Go
// cannot reliably fork.
func runDaemon(cfg *config.Config) error {
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		// Stale PID file.
		_ = os.Remove(pidFilePath())
	}

	pid := os.Getpid()
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	setLogger(logFile)
	output.SetNoColor(true)

	ctx, cancel := shutdownContext()
	defer cancel()

	slog.Info("daemon started", "pid", pid, "version", appVersion)
	err = runMonitor(ctx, cfg, logFile, false)
	if errors.Is(err, context.Canceled) {
		slog.Info("daemon stopped")
		return nil
	}
	return err
}

// runMonitor runs one monitoring session until ctx is cancelled. The
// monitoring loop never waits on anything started here: events and status
// are read on their own goroutines.
func runMonitor(ctx context.Context, cfg *config.Config, out io.Writer, live bool) error {
	sess, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer sess.close()

	out = &lockedWriter{w: out}
	fmt.Fprintf(out, "deproductify watching... (%s)\n", sess.describe())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pres := presenter.New(cfg.Presenter.Command, out)
	defer pres.Wait()

	var g errgroup.Group
	if sess.keyboard != nil {
		g.Go(func() error {
			sess.keyboard.Listen(ctx, sess.feed)
			return nil
		})
	}
	g.Go(func() error {
		consumeEvents(ctx, sess, pres, out, live)
		return nil
	})
	g.Go(func() error {
		followStatus(ctx, sess, out, live)
		return nil
	})

	runErr := sess.mon.Run(ctx)
	cancel()
	_ = g.Wait()
	return runErr
}

// consumeEvents notifies, prints, records and presents every event until
// the monitor closes the channel.
func consumeEvents(ctx context.Context, sess *watchSession, pres *presenter.Presenter, out io.Writer, live bool) {
	for e := range sess.mon.Events() {
		alert := monitor.EventAlert(e)
		deliver(sess, out, live, alert)
		sess.record(e)

		if e.Kind != monitor.EventActivate || ctx.Err() != nil {
			continue
		}
		err := pres.Present(ctx, presenter.Activation{At: e.At, Effective: e.Effective, Reason: e.Reason})
		switch {
		case errors.Is(err, presenter.ErrBusy):
			slog.Info("activation skipped, presenter still running")
		case err != nil:
			slog.Warn("presenting activation", "error", err)
		}
	}
}

// followStatus turns status transitions into alerts and, on a terminal,
// keeps a live score line updated.
func followStatus(ctx context.Context, sess *watchSession, out io.Writer, live bool) {
	var prev monitor.Status
	for {
		select {
		case <-ctx.Done():
			if live {
				fmt.Fprintln(out)
			}
			return
		case <-sess.mon.Status().Ready():
		}
		curr, ok := sess.mon.Status().Latest()
		if !ok {
			continue
		}
		for _, a := range monitor.Compare(prev, curr) {
			deliver(sess, out, live, a)
		}
		prev = curr
		if live {
			fmt.Fprint(out, clearLine+statusLine(curr))
		}
	}
}

// deliver sends an alert to the desktop and the terminal or log.
func deliver(sess *watchSession, out io.Writer, live bool, a monitor.Alert) {
	if sess.cfg.Presenter.Notify {
		if err := monitor.Notify(a); err != nil {
			slog.Debug("notification failed", "error", err)
		}
	}
	slog.Debug("alert", "level", a.Level, "title", a.Title)
	printAlert(out, a, live)
}

// statusLine renders one tick's status.
func statusLine(s monitor.Status) string {
	ts := s.At.Format("15:04:05")
	if s.Paused {
		return fmt.Sprintf("[%s] %s %s", ts, output.StyleMuted.Render("paused"), s.PauseReason)
	}

	state := s.State.String()
	if !s.CooldownUntil.IsZero() {
		state = fmt.Sprintf("%s %s", state, time.Until(s.CooldownUntil).Round(time.Second))
	}
	parts := []string{
		fmt.Sprintf("[%s]", ts),
		output.ScoreBar(s.Effective, s.Threshold, 20),
		output.StyleMuted.Render(fmt.Sprintf("floor %.1f", s.Floor)),
		state,
	}
	if len(s.Unavailable) > 0 {
		parts = append(parts, output.StyleWarning.Render(fmt.Sprintf("missing %v", s.Unavailable)))
	}
	return strings.Join(parts, "  ")
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// printAlert formats and prints an alert. On a live terminal it first
// clears the status line.
func printAlert(w io.Writer, a monitor.Alert, live bool) {
	var b strings.Builder
	if live {
		b.WriteString(clearLine)
	}
	timestamp := a.Time.Format("15:04:05")
	fmt.Fprintf(&b, "[%s] %s %s\n", timestamp, alertIcon(a.Level), a.Title)
	if a.Message != "" {
		fmt.Fprintf(&b, "         %s\n", a.Message)
	}
	io.WriteString(w, b.String())
}

// lockedWriter serializes writes from the event and status goroutines.
// Each alert or status line is a single Write.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case monitor.LevelCritical:
		return output.StyleAlarm.Render("●")
	case monitor.LevelWarning:
		return output.StyleWarning.Render("▲")
	case monitor.LevelInfo:
		return output.StyleCalm.Render("✓")
	default:
		return " "
	}
}
