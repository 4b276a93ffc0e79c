// Package window reports the focused application and window title.
package window

import (
	"context"
	"errors"
	"strings"
)

// ErrNoTool is returned when the platform helper is not installed.
var ErrNoTool = errors.New("no window detection tool found")

// Info describes the focused window.
type Info struct {
	App   string `json:"app"`
	Title string `json:"title"`
}

// Empty reports whether nothing is focused.
func (i Info) Empty() bool {
	return i.App == "" && i.Title == ""
}

// Detector returns the focused window.
type Detector interface {
	Active(ctx context.Context) (Info, error)
}

// normalize fills App from a trailing " - App" title segment when the
// platform could not name the process.
func normalize(app, title string) Info {
	app = strings.TrimSpace(app)
	title = strings.TrimSpace(title)
	if app == "" {
		if i := strings.LastIndex(title, " - "); i >= 0 {
			app = strings.TrimSpace(title[i+3:])
		} else {
			app = title
		}
	}
	return Info{App: app, Title: title}
}
