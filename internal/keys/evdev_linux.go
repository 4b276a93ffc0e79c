//go:build linux

package keys

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	evKey      = 0x01
	valuePress = 1

	keyEnter = 28
	keySpace = 57
)

// inputEvent mirrors struct input_event on 64-bit Linux.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// countable reports whether a key code is a character key, space or enter.
// Modifiers, function keys and navigation keys are ignored.
func countable(code uint16) bool {
	switch {
	case code >= 2 && code <= 13: // 1..0 - =
		return true
	case code >= 16 && code <= 27: // q..] row
		return true
	case code >= 30 && code <= 41: // a..` row
		return true
	case code >= 43 && code <= 53: // \..slash row
		return true
	case code == keyEnter, code == keySpace:
		return true
	}
	return false
}

// Evdev reads key events from a /dev/input event device.
type Evdev struct {
	device string
}

// New returns a feed for device, or the first keyboard listed in
// /proc/bus/input/devices when device is empty.
func New(device string) *Evdev {
	return &Evdev{device: device}
}

// Device resolves the device path.
func (e *Evdev) Device() (string, error) {
	if e.device != "" {
		return e.device, nil
	}
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	defer f.Close()
	dev := findKeyboard(f)
	if dev == "" {
		return "", ErrNoDevice
	}
	return dev, nil
}

// findKeyboard scans a /proc/bus/input/devices listing for the first
// handler set that includes both "kbd" and an event node and whose EV
// bitmap advertises key repeat (0x120013).
func findKeyboard(r io.Reader) string {
	var handlers string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			handlers = ""
		case strings.HasPrefix(line, "H: Handlers="):
			handlers = strings.TrimPrefix(line, "H: Handlers=")
		case strings.HasPrefix(line, "B: EV="):
			if strings.TrimPrefix(line, "B: EV=") != "120013" || !strings.Contains(handlers, "kbd") {
				continue
			}
			for _, h := range strings.Fields(handlers) {
				if strings.HasPrefix(h, "event") {
					return filepath.Join("/dev/input", h)
				}
			}
		}
	}
	return ""
}

// Run reads events until ctx is cancelled or the device fails.
func (e *Evdev) Run(ctx context.Context, fn func(time.Time)) error {
	dev, err := e.Device()
	if err != nil {
		return err
	}
	f, err := os.Open(dev)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	}

	// Closing the file unblocks the pending read.
	go func() {
		<-ctx.Done()
		_ = f.Close()
	}()

	return readEvents(ctx, f, fn)
}

func readEvents(ctx context.Context, r io.Reader, fn func(time.Time)) error {
	var ev inputEvent
	for {
		if err := binary.Read(r, binary.NativeEndian, &ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading key events: %w", err)
		}
		if ev.Type == evKey && ev.Value == valuePress && countable(ev.Code) {
			fn(time.Unix(ev.Sec, ev.Usec*int64(time.Microsecond)))
		}
	}
}
