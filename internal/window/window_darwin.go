//go:build darwin

package window

import (
	"context"
	"fmt"
	"os/exec"
)

// Tool is the helper binary used on this platform.
const Tool = "osascript"

const (
	frontAppScript   = `tell application "System Events" to get name of first application process whose frontmost is true`
	frontTitleScript = `tell application "System Events" to tell (first application process whose frontmost is true) to get name of front window`
)

type osascript struct{}

// New returns the detector for this platform.
func New() Detector {
	return osascript{}
}

func (osascript) Active(ctx context.Context) (Info, error) {
	app, err := exec.CommandContext(ctx, Tool, "-e", frontAppScript).Output()
	if err != nil {
		return Info{}, fmt.Errorf("osascript front app: %w", err)
	}
	// Apps without windows (or without accessibility permission) have no title.
	title, _ := exec.CommandContext(ctx, Tool, "-e", frontTitleScript).Output()
	return normalize(string(app), string(title)), nil
}
