//go:build linux

package screen

import (
	"context"
	"os/exec"
)

var toolCandidates = []string{"gnome-screenshot", "scrot", "import"}

type linuxBackend struct{}

func (linuxBackend) command(ctx context.Context, path string) (*exec.Cmd, error) {
	switch Tool() {
	case "gnome-screenshot":
		return exec.CommandContext(ctx, "gnome-screenshot", "-f", path), nil
	case "scrot":
		return exec.CommandContext(ctx, "scrot", "-o", path), nil
	case "import":
		return exec.CommandContext(ctx, "import", "-window", "root", path), nil
	default:
		return nil, ErrNoTool
	}
}

// New returns the capturer for this platform.
func New() (Capturer, error) {
	return newFileCapturer(linuxBackend{})
}
