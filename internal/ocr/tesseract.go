// Package ocr extracts text from screenshots with the tesseract CLI.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultPath is the tesseract binary looked up on PATH.
const DefaultPath = "tesseract"

// ErrNotInstalled is returned when the tesseract binary cannot be found.
var ErrNotInstalled = errors.New("tesseract not installed")

// Tesseract runs the tesseract binary, feeding the image on stdin.
type Tesseract struct {
	path string
}

// New returns an extractor using the binary at path (DefaultPath if empty).
func New(path string) *Tesseract {
	if path == "" {
		path = DefaultPath
	}
	return &Tesseract{path: path}
}

// Available reports whether the binary resolves.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.path)
	return err == nil
}

// ExtractText returns the text recognised in img.
func (t *Tesseract) ExtractText(ctx context.Context, img []byte) (string, error) {
	bin, err := exec.LookPath(t.path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}

	cmd := exec.CommandContext(ctx, bin, "stdin", "stdout", "--psm", "3")
	cmd.Stdin = bytes.NewReader(img)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
