// Package screen captures the primary display and compares successive frames.
package screen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrNoTool is returned when no screenshot tool is installed.
var ErrNoTool = errors.New("no screenshot tool found")

// Capturer grabs the current screen as encoded image bytes.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// backend runs the platform screenshot command writing to path.
type backend interface {
	command(ctx context.Context, path string) (*exec.Cmd, error)
}

// fileCapturer shells out to a screenshot tool and reads back the file.
type fileCapturer struct {
	backend
	tempDir string
}

func newFileCapturer(b backend) (*fileCapturer, error) {
	dir, err := os.MkdirTemp("", "deproductify-screen-*")
	if err != nil {
		return nil, fmt.Errorf("creating screenshot dir: %w", err)
	}
	return &fileCapturer{backend: b, tempDir: dir}, nil
}

func (c *fileCapturer) Capture(ctx context.Context) ([]byte, error) {
	path := filepath.Join(c.tempDir, "screenshot.png")
	cmd, err := c.command(ctx, path)
	if err != nil {
		return nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w (%s)", filepath.Base(cmd.Path), err, bytes.TrimSpace(stderr.Bytes()))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading screenshot: %w", err)
	}
	_ = os.Remove(path)
	return data, nil
}

func (c *fileCapturer) Close() error {
	return os.RemoveAll(c.tempDir)
}

// Tool reports which screenshot command New would use, or "" if none is
// installed.
func Tool() string {
	for _, name := range toolCandidates {
		if _, err := exec.LookPath(name); err == nil {
			return name
		}
	}
	return ""
}
