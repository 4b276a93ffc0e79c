package signal

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/deproductify/internal/score"
	"github.com/blackwell-systems/deproductify/internal/window"
)

const (
	focusedProductiveScore = 0.8
	partialFocusCap        = 0.6
	// longTitle is the title length taken as a sign of many open tabs when
	// the browser does not report a count.
	longTitle = 100
)

// Category is how an application was classified.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryProductive
	CategoryNonProductive
)

func (c Category) String() string {
	switch c {
	case CategoryProductive:
		return "productive"
	case CategoryNonProductive:
		return "non-productive"
	default:
		return "unknown"
	}
}

var productiveApps = []string{
	"visual studio code", "vscode", "code", "pycharm", "intellij", "goland", "xcode",
	"sublime text", "atom", "vim", "nvim", "emacs", "cursor", "zed",
	"microsoft word", "word", "google docs", "pages", "libreoffice",
	"microsoft excel", "excel", "google sheets", "numbers",
	"microsoft powerpoint", "powerpoint", "keynote",
	"notion", "obsidian", "onenote", "evernote", "roam research",
	"anki", "quizlet", "canvas", "blackboard", "moodle",
	"slack", "microsoft teams", "zoom", "webex", "google meet",
	"adobe acrobat", "pdf", "evince", "okular", "zotero", "mendeley",
	"terminal", "iterm", "warp", "konsole", "alacritty", "kitty", "wezterm",
}

var nonProductiveApps = []string{
	"spotify", "apple music", "music", "itunes",
	"netflix", "youtube", "disney+", "hulu", "prime video",
	"instagram", "facebook", "twitter", "tiktok", "reddit",
	"discord",
}

var browsers = []string{"chrome", "chromium", "firefox", "safari", "edge", "brave", "opera", "arc", "vivaldi"}

var productiveSites = []string{
	"github", "gitlab", "stack overflow", "stackoverflow",
	"docs.google.com", "google docs", "drive.google.com", "classroom.google.com",
	"canvas", "blackboard", "moodle", "quercus",
	"notion", "obsidian", "overleaf", "latex",
	"jupyter", "colab", "kaggle",
	"coursera", "edx", "udemy", "khan academy",
	"wikipedia", "scholar.google.com", "pubmed",
	"arxiv", "ieee", "acm.org", "pkg.go.dev",
}

var nonProductiveSites = []string{
	"youtube", "youtu.be", "netflix", "hulu",
	"instagram", "facebook", "twitter", "x.com",
	"reddit", "tiktok", "pinterest",
	"spotify", "soundcloud", "twitch",
}

var games = []string{
	"steam", "epic games", "battle.net", "gog galaxy", "lutris", "heroic",
	"minecraft", "roblox", "fortnite", "valorant", "league of legends",
	"counter-strike", "dota 2", "overwatch", "genshin impact", "apex legends",
}

var tabCountPattern = regexp.MustCompile(`\((\d+)\)`)

// containsAny returns the first needle found in any of the haystacks.
func containsAny(needles []string, haystacks ...string) (string, bool) {
	for _, n := range needles {
		for _, h := range haystacks {
			if h != "" && containsWord(h, n) {
				return n, true
			}
		}
	}
	return "", false
}

// containsWord matches needle in s on word boundaries so that "code" does
// not match "barcode".
func containsWord(s, needle string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], needle)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(needle)
		if boundary(s, start-1) && boundary(s, end) {
			return true
		}
		i = start + 1
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
}

// TabInfo is what could be read about a browser tab from a window title.
type TabInfo struct {
	Browser    bool
	Tab        string
	Count      int
	Productive bool
	Distracted bool
}

// ParseTab extracts browser tab information from a window title.
func ParseTab(title string) TabInfo {
	lower := strings.ToLower(title)
	if _, ok := containsAny(browsers, lower); !ok {
		return TabInfo{}
	}
	info := TabInfo{Browser: true, Tab: title}
	if i := strings.LastIndex(title, " - "); i >= 0 {
		info.Tab = strings.TrimSpace(title[:i])
	} else if i := strings.LastIndex(title, " | "); i >= 0 {
		info.Tab = strings.TrimSpace(title[:i])
	}
	tab := strings.ToLower(info.Tab)
	_, info.Productive = containsAny(productiveSites, tab)
	if !info.Productive {
		_, info.Distracted = containsAny(nonProductiveSites, tab)
	}
	if m := tabCountPattern.FindStringSubmatch(title); m != nil {
		info.Count, _ = strconv.Atoi(m[1])
	}
	return info
}

// Overloaded reports whether the browser shows at least threshold tabs.
func (t TabInfo) Overloaded(title string, threshold int) bool {
	if !t.Browser {
		return false
	}
	if t.Count > 0 {
		return t.Count >= threshold
	}
	return len(title) > longTitle
}

// WindowConfig holds the window tracking thresholds.
type WindowConfig struct {
	FocusThreshold time.Duration
	TabThreshold   int
	GamePause      bool
	Now            func() time.Time
}

// DefaultWindowConfig returns the production thresholds.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{FocusThreshold: 5 * time.Minute, TabThreshold: 5, GamePause: true}
}

// WindowAssessment is the breakdown of one window reading.
type WindowAssessment struct {
	Info     window.Info
	Category Category
	Tab      TabInfo
	Focus    time.Duration
	Game     string
	Score    float64
	Reason   string
}

// Classify decides whether the focused window is productive. Browsers are
// judged by their active tab.
func Classify(info window.Info) (Category, TabInfo) {
	app := strings.ToLower(info.App)
	title := strings.ToLower(info.Title)

	tab := ParseTab(info.Title)
	if _, isBrowser := containsAny(browsers, app); isBrowser || tab.Browser {
		tab.Browser = true
		switch {
		case tab.Productive:
			return CategoryProductive, tab
		case tab.Distracted:
			return CategoryNonProductive, tab
		default:
			return CategoryUnknown, tab
		}
	}

	if _, ok := containsAny(nonProductiveApps, app); ok {
		return CategoryNonProductive, tab
	}
	if _, ok := containsAny(productiveApps, app, title); ok {
		return CategoryProductive, tab
	}
	if _, ok := containsAny(nonProductiveApps, title); ok {
		return CategoryNonProductive, tab
	}
	return CategoryUnknown, tab
}

// AssessWindow scores a window that has held focus for the given duration.
func AssessWindow(info window.Info, focus time.Duration, cfg WindowConfig) WindowAssessment {
	a := WindowAssessment{Info: info, Focus: focus}
	if info.Empty() {
		a.Reason = "no active window"
		return a
	}
	a.Category, a.Tab = Classify(info)
	a.Game, _ = containsAny(games, strings.ToLower(info.App), strings.ToLower(info.Title))

	switch {
	case a.Category == CategoryProductive && focus >= cfg.FocusThreshold:
		a.Score = focusedProductiveScore
		a.Reason = fmt.Sprintf("%s focused for %s", info.App, focus.Round(time.Second))
	case a.Tab.Productive && a.Tab.Overloaded(info.Title, cfg.TabThreshold):
		a.Score = focusedProductiveScore
		a.Reason = fmt.Sprintf("many tabs open on %s", a.Tab.Tab)
	case a.Category != CategoryNonProductive && focus > 0 && cfg.FocusThreshold > 0:
		a.Score = min(focus.Minutes()/cfg.FocusThreshold.Minutes()*partialFocusCap, partialFocusCap)
		a.Reason = fmt.Sprintf("focus %s", focus.Round(time.Second))
	default:
		a.Reason = a.Category.String()
	}
	return a
}

// Window scores the focused window and how long it has held focus.
type Window struct {
	detector window.Detector
	cfg      WindowConfig
	now      func() time.Time

	current    window.Info
	focusStart time.Time
	last       WindowAssessment
}

// NewWindow returns a window source.
func NewWindow(detector window.Detector, cfg WindowConfig) *Window {
	return &Window{detector: detector, cfg: cfg, now: clockOrNow(cfg.Now)}
}

// Module implements Source.
func (w *Window) Module() score.Module {
	return score.ModuleWindow
}

// Score implements Source.
func (w *Window) Score(ctx context.Context) (float64, error) {
	now := w.now()
	info, err := w.detector.Active(ctx)
	if err != nil {
		w.current, w.focusStart, w.last = window.Info{}, time.Time{}, WindowAssessment{}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if info != w.current || w.focusStart.IsZero() {
		w.current = info
		w.focusStart = now
	}
	var focus time.Duration
	if !info.Empty() {
		focus = now.Sub(w.focusStart)
	}
	w.last = AssessWindow(info, focus, w.cfg)
	return w.last.Score, nil
}

// Uncertain implements Uncertainty: the app matched neither list.
func (w *Window) Uncertain() bool {
	return !w.last.Info.Empty() && w.last.Category == CategoryUnknown
}

// Observe implements Describer.
func (w *Window) Observe() Observation {
	return Observation{AppName: w.last.Info.App, WindowTitle: w.last.Info.Title}
}

// Paused implements Pauser.
func (w *Window) Paused() (bool, string) {
	if w.cfg.GamePause && w.last.Game != "" {
		return true, "game in focus: " + w.last.Info.App
	}
	return false, ""
}

// Last returns the breakdown of the most recent reading.
func (w *Window) Last() WindowAssessment {
	return w.last
}
