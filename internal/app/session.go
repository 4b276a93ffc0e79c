package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/blackwell-systems/deproductify/internal/classifier"
	"github.com/blackwell-systems/deproductify/internal/config"
	"github.com/blackwell-systems/deproductify/internal/keys"
	"github.com/blackwell-systems/deproductify/internal/monitor"
	"github.com/blackwell-systems/deproductify/internal/ocr"
	"github.com/blackwell-systems/deproductify/internal/screen"
	"github.com/blackwell-systems/deproductify/internal/signal"
	"github.com/blackwell-systems/deproductify/internal/store"
	"github.com/blackwell-systems/deproductify/internal/window"
)

// watchSession is everything one run of the monitor needs. Detectors that
// cannot start are left out with a warning; the session fails only when no
// detector is left.
type watchSession struct {
	cfg       *config.Config
	sources   []signal.Source
	keyboard  *signal.Keyboard
	feed      keys.Feed
	capturer  screen.Capturer
	cache     *classifier.Cache
	db        *store.DB
	sessionID string
	mon       *monitor.Monitor
}

func openSession(cfg *config.Config) (*watchSession, error) {
	s := &watchSession{cfg: cfg}

	if cfg.Sources.Vision {
		s.addVision()
	}
	if cfg.Sources.Window {
		s.addWindow()
	}
	if cfg.Sources.Keyboard {
		s.addKeyboard()
	}
	if len(s.sources) == 0 {
		s.close()
		return nil, errors.New("no detector could be started; run 'deproductify doctor'")
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		slog.Warn("history disabled", "error", err)
	} else {
		s.db = db
	}

	if cfg.Classifier.Enabled {
		s.addClassifier()
	}

	var cls classifier.Classifier
	if s.cache != nil {
		cls = s.cache
	}
	mon, err := monitor.New(monitor.Config{
		TickInterval:      cfg.TickInterval,
		Engine:            cfg.EngineConfig(),
		ClassifierTimeout: cfg.Classifier.Timeout,
	}, s.sources, cls)
	if err != nil {
		s.close()
		return nil, err
	}
	s.mon = mon

	if s.db != nil {
		id, err := s.db.CreateSession(time.Now(), cfg.TriggerThreshold, cfg.Cooldown, appVersion)
		if err != nil {
			slog.Warn("recording session", "error", err)
		}
		s.sessionID = id
	}
	return s, nil
}

func (s *watchSession) addVision() {
	capturer, err := screen.New()
	if err != nil {
		slog.Warn("vision detector disabled", "error", err)
		return
	}
	tess := ocr.New(s.cfg.Vision.TesseractPath)
	if !tess.Available() {
		slog.Warn("tesseract not found, vision will score brightness only", "path", s.cfg.Vision.TesseractPath)
	}
	s.capturer = capturer
	s.sources = append(s.sources, signal.NewVision(capturer, tess, signal.VisionConfig{
		BrightnessThreshold:  s.cfg.Vision.BrightnessThreshold,
		TextDensityThreshold: s.cfg.Vision.TextDensityThreshold,
		KeywordThreshold:     s.cfg.Vision.KeywordThreshold,
		MaxHashDistance:      s.cfg.Vision.MaxHashDistance,
	}))
}

func (s *watchSession) addWindow() {
	if window.Tool == "" {
		slog.Warn("window detector disabled", "error", window.ErrNoTool)
		return
	}
	wcfg := signal.DefaultWindowConfig()
	wcfg.FocusThreshold = s.cfg.Window.FocusThreshold
	wcfg.GamePause = s.cfg.Window.GamePause
	s.sources = append(s.sources, signal.NewWindow(window.New(), wcfg))
}

func (s *watchSession) addKeyboard() {
	feed := keys.New(s.cfg.Keyboard.Device)
	if _, err := feed.Device(); err != nil {
		slog.Warn("keyboard detector disabled", "error", err)
		return
	}
	s.feed = feed
	s.keyboard = signal.NewKeyboard(signal.KeyboardConfig{
		RateThreshold:  s.cfg.Keyboard.RateThreshold,
		SteadyDuration: s.cfg.Keyboard.SteadyDuration,
	})
	s.sources = append(s.sources, s.keyboard)
}

func (s *watchSession) addClassifier() {
	gemini, err := classifier.NewGemini(classifier.GeminiConfig{
		APIKey:  os.Getenv(s.cfg.Classifier.APIKeyEnv),
		Model:   s.cfg.Classifier.Model,
		Timeout: s.cfg.Classifier.Timeout,
	})
	if err != nil {
		slog.Warn("semantic fallback disabled", "error", err, "env", s.cfg.Classifier.APIKeyEnv)
		return
	}
	if s.db != nil {
		s.cache = classifier.NewCache(gemini, s.db)
	} else {
		s.cache = classifier.NewCache(gemini, nil)
	}
}

// record persists an event when history is available.
func (s *watchSession) record(e monitor.Event) {
	if s.db == nil || s.sessionID == "" {
		return
	}
	row := &store.EventRow{
		SessionID:  s.sessionID,
		Kind:       eventKind(e.Kind),
		Band:       e.Band.Float(),
		Fused:      e.Fused,
		Effective:  e.Effective,
		Reason:     e.Reason,
		OccurredAt: e.At,
	}
	if _, err := s.db.InsertEvent(row); err != nil {
		slog.Warn("recording event", "error", err)
	}
}

func eventKind(k monitor.EventKind) string {
	switch k {
	case monitor.EventActivate:
		return store.KindActivation
	case monitor.EventAdvisory:
		return store.KindAdvisory
	default:
		return store.KindResume
	}
}

func (s *watchSession) close() {
	if s.capturer != nil {
		if err := s.capturer.Close(); err != nil {
			slog.Debug("closing capturer", "error", err)
		}
	}
	if s.db != nil {
		if s.sessionID != "" {
			if err := s.db.EndSession(s.sessionID, time.Now()); err != nil {
				slog.Warn("closing session record", "error", err)
			}
		}
		if s.cache != nil {
			st := s.cache.Stats()
			slog.Debug("classification cache", "hits", st.Hits, "misses", st.Misses, "errors", st.Errors)
		}
		_ = s.db.Close()
	}
}

func (s *watchSession) describe() string {
	var names []string
	for _, src := range s.sources {
		names = append(names, string(src.Module()))
	}
	fallback := "off"
	if s.cache != nil {
		fallback = s.cfg.Classifier.Model
	}
	return fmt.Sprintf("detectors %v, fallback %s, threshold %.2f", names, fallback, s.cfg.TriggerThreshold)
}
