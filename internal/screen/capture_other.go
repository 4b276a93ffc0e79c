//go:build !linux && !darwin

package screen

import (
	"context"
	"os/exec"
)

var toolCandidates []string

type unsupportedBackend struct{}

func (unsupportedBackend) command(context.Context, string) (*exec.Cmd, error) {
	return nil, ErrNoTool
}

// New returns a capturer that always fails on this platform.
func New() (Capturer, error) {
	return newFileCapturer(unsupportedBackend{})
}
