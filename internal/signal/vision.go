package signal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blackwell-systems/deproductify/internal/score"
	"github.com/blackwell-systems/deproductify/internal/screen"
)

// Contribution of each visual trigger to the vision score.
const (
	brightDocumentPoints = 0.3
	textDensityPoints    = 0.2
	workKeywordPoints    = 0.2
	lecturePoints        = 0.15
	mathPoints           = 0.15
)

// Below uncertainWords nothing is known; at or above it a score under
// uncertainScore means the heuristics saw text they could not place.
const (
	uncertainWords = 20
	uncertainScore = 0.3
)

// VisionConfig holds the visual heuristic thresholds.
type VisionConfig struct {
	BrightnessThreshold  float64
	TextDensityThreshold int
	KeywordThreshold     int
	MaxHashDistance      int
}

// DefaultVisionConfig returns the production thresholds.
func DefaultVisionConfig() VisionConfig {
	return VisionConfig{
		BrightnessThreshold:  200,
		TextDensityThreshold: 300,
		KeywordThreshold:     3,
		MaxHashDistance:      screen.DefaultMaxHashDistance,
	}
}

// VisionAssessment is the breakdown of one vision reading.
type VisionAssessment struct {
	Brightness     float64
	BrightDocument bool
	Words          int
	Keywords       []string
	Lecture        bool
	Math           bool
	Triggers       int
	Score          float64
}

// Uncertain reports whether the frame had enough text to judge but the
// heuristics found little.
func (a VisionAssessment) Uncertain() bool {
	return a.Words >= uncertainWords && a.Score < uncertainScore
}

// AssessVision scores a frame from its brightness (0-255) and OCR text.
func AssessVision(brightness float64, text string, cfg VisionConfig) VisionAssessment {
	a := VisionAssessment{
		Brightness:     brightness,
		BrightDocument: brightness >= cfg.BrightnessThreshold,
		Words:          len(strings.Fields(text)),
		Keywords:       matchKeywords(text, workKeywords),
		Lecture:        detectLecture(text),
		Math:           detectMath(text),
	}

	var total float64
	add := func(hit bool, points float64) {
		if hit {
			a.Triggers++
			total += points
		}
	}
	add(a.BrightDocument, brightDocumentPoints)
	add(a.Words >= cfg.TextDensityThreshold, textDensityPoints)
	add(len(a.Keywords) >= cfg.KeywordThreshold, workKeywordPoints)
	add(a.Lecture, lecturePoints)
	add(a.Math, mathPoints)

	a.Score = score.Clamp(total)
	return a
}

// TextExtractor turns a screenshot into text.
type TextExtractor interface {
	ExtractText(ctx context.Context, img []byte) (string, error)
}

// Vision scores what is on screen. OCR only runs when the frame differs
// perceptually from the last OCR'd frame; otherwise the previous text is
// reused.
type Vision struct {
	capturer screen.Capturer
	ocr      TextExtractor
	cfg      VisionConfig
	changes  *screen.ChangeDetector

	text string
	last VisionAssessment
}

// NewVision returns a vision source.
func NewVision(capturer screen.Capturer, ocr TextExtractor, cfg VisionConfig) *Vision {
	return &Vision{
		capturer: capturer,
		ocr:      ocr,
		cfg:      cfg,
		changes:  screen.NewChangeDetector(cfg.MaxHashDistance),
	}
}

// Module implements Source.
func (v *Vision) Module() score.Module {
	return score.ModuleVisual
}

// Score implements Source.
func (v *Vision) Score(ctx context.Context) (float64, error) {
	v.last = VisionAssessment{}

	data, err := v.capturer.Capture(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: capture: %v", ErrUnavailable, err)
	}
	img, err := screen.Decode(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if v.changes.Changed(img) {
		text, err := v.ocr.ExtractText(ctx, data)
		if err != nil {
			// Brightness alone still yields a reading.
			slog.Debug("ocr failed", "error", err)
			text = ""
			v.changes.Reset()
		}
		v.text = text
	} else {
		slog.Debug("reusing ocr text for similar frame")
	}

	v.last = AssessVision(screen.Brightness(img), v.text, v.cfg)
	return v.last.Score, nil
}

// Uncertain implements Uncertainty.
func (v *Vision) Uncertain() bool {
	return v.last.Uncertain()
}

// Observe implements Describer.
func (v *Vision) Observe() Observation {
	return Observation{Text: v.text}
}

// Last returns the breakdown of the most recent reading.
func (v *Vision) Last() VisionAssessment {
	return v.last
}
