// Package presenter carries out activations: it launches the configured
// overlay command, or prints a banner when none is configured.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/blackwell-systems/deproductify/internal/output"
)

// ErrBusy is returned when an activation arrives while the previous
// presentation is still running.
var ErrBusy = errors.New("presentation already running")

const waitDelay = 2 * time.Second

// Activation is what the presenter is told about an activation.
type Activation struct {
	At        time.Time
	Effective float64
	Reason    string
}

// Presenter runs at most one presentation at a time. It never reports back
// to the monitoring loop.
type Presenter struct {
	command []string
	out     io.Writer

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// New returns a presenter. An empty command selects the banner.
func New(command string, out io.Writer) *Presenter {
	if out == nil {
		out = os.Stdout
	}
	return &Presenter{command: strings.Fields(command), out: out}
}

// Present starts presenting a. The command runs in the background until it
// exits or ctx is cancelled.
func (p *Presenter) Present(ctx context.Context, a Activation) error {
	if len(p.command) == 0 {
		_, err := fmt.Fprintln(p.out, output.Banner(
			"DeProductify - Protocol Activated!",
			fmt.Sprintf("You've been too productive! Time for the Performative Protocol...\nscore %.2f  %s", a.Effective, a.Reason),
		))
		return err
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrBusy
	}
	p.running = true
	p.mu.Unlock()

	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("DEPRODUCTIFY_SCORE=%.2f", a.Effective),
		"DEPRODUCTIFY_REASON="+a.Reason,
		"DEPRODUCTIFY_AT="+a.At.Format(time.RFC3339),
	)
	cmd.Stdout = p.out
	cmd.Stderr = p.out
	// Children of the command can hold the output pipe open after a kill.
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		p.done()
		return fmt.Errorf("starting presenter %q: %w", p.command[0], err)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.done()
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			slog.Warn("presenter exited with error", "command", p.command[0], "error", err)
		}
	}()
	return nil
}

// Busy reports whether a presentation is running.
func (p *Presenter) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Wait blocks until the running presentation, if any, has exited.
func (p *Presenter) Wait() {
	p.wg.Wait()
}

func (p *Presenter) done() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}
