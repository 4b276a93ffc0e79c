// Package keys delivers keypress timestamps without recording which keys
// were pressed.
package keys

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned where no keyboard feed exists.
var ErrUnsupported = errors.New("keyboard feed not supported on this platform")

// ErrNoDevice is returned when no keyboard device can be found or opened.
var ErrNoDevice = errors.New("no keyboard device available")

// Feed calls fn once per counted keypress until ctx is cancelled.
type Feed interface {
	Run(ctx context.Context, fn func(time.Time)) error
}
