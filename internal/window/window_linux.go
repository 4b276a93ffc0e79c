//go:build linux

package window

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Tool is the helper binary used on this platform.
const Tool = "xdotool"

type xdotool struct{}

// New returns the detector for this platform.
func New() Detector {
	return xdotool{}
}

func (xdotool) Active(ctx context.Context) (Info, error) {
	if _, err := exec.LookPath(Tool); err != nil {
		return Info{}, ErrNoTool
	}
	title, err := exec.CommandContext(ctx, Tool, "getactivewindow", "getwindowname").Output()
	if err != nil {
		return Info{}, fmt.Errorf("xdotool getwindowname: %w", err)
	}

	var app string
	if pid, err := exec.CommandContext(ctx, Tool, "getactivewindow", "getwindowpid").Output(); err == nil {
		comm, err := os.ReadFile(fmt.Sprintf("/proc/%s/comm", strings.TrimSpace(string(pid))))
		if err == nil {
			app = string(comm)
		}
	}
	return normalize(app, string(title)), nil
}
