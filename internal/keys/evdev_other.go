//go:build !linux

package keys

import (
	"context"
	"time"
)

// Evdev is unavailable outside Linux.
type Evdev struct{}

// New returns a feed that always fails on this platform.
func New(string) *Evdev {
	return &Evdev{}
}

// Device always fails on this platform.
func (e *Evdev) Device() (string, error) {
	return "", ErrUnsupported
}

// Run always fails on this platform.
func (e *Evdev) Run(context.Context, func(time.Time)) error {
	return ErrUnsupported
}
