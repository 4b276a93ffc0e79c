//go:build !linux && !darwin && !windows

package window

import "context"

// Tool is empty where no helper is supported.
const Tool = ""

type unsupported struct{}

// New returns a detector that always fails on this platform.
func New() Detector {
	return unsupported{}
}

func (unsupported) Active(context.Context) (Info, error) {
	return Info{}, ErrNoTool
}
