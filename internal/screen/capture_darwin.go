//go:build darwin

package screen

import (
	"context"
	"os/exec"
)

var toolCandidates = []string{"screencapture"}

type darwinBackend struct{}

func (darwinBackend) command(ctx context.Context, path string) (*exec.Cmd, error) {
	// -x: no sound, -m: main display only
	return exec.CommandContext(ctx, "screencapture", "-x", "-t", "png", "-m", path), nil
}

// New returns the capturer for this platform.
func New() (Capturer, error) {
	return newFileCapturer(darwinBackend{})
}
