// Package classifier asks a language model whether an ambiguous screen looks
// like work, caching answers by a hash of what was on screen.
package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrNoAPIKey is returned when the classifier has no credentials.
var ErrNoAPIKey = errors.New("classifier API key not set")

// maxContextText bounds how much OCR text is sent and hashed.
const maxContextText = 500

// Confidence is the classifier's confidence tier.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceUnsure Confidence = "unsure"
)

// ParseConfidence maps a model's wording onto a tier. Unknown wording is
// unsure.
func ParseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "confident", "very confident":
		return ConfidenceHigh
	case "medium", "moderate":
		return ConfidenceMedium
	case "low":
		return ConfidenceLow
	default:
		return ConfidenceUnsure
	}
}

// Factor is how much of a classification score is trusted.
func (c Confidence) Factor() float64 {
	switch c {
	case ConfidenceHigh:
		return 1.0
	case ConfidenceMedium:
		return 0.75
	case ConfidenceLow:
		return 0.5
	default:
		return 0
	}
}

// Context is what the classifier is shown.
type Context struct {
	AppName     string
	WindowTitle string
	Text        string
}

// Empty reports whether there is nothing to classify.
func (c Context) Empty() bool {
	return c.AppName == "" && c.WindowTitle == "" && strings.TrimSpace(c.Text) == ""
}

// snippet returns the text truncated to maxContextText bytes.
func (c Context) snippet() string {
	return truncate(strings.TrimSpace(c.Text), maxContextText)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Key is the content hash identifying this context in the cache.
func (c Context) Key() string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	sum := sha256.Sum256([]byte(norm(c.AppName) + "|" + norm(c.WindowTitle) + "|" + norm(c.snippet())))
	return hex.EncodeToString(sum[:])
}

// Result is one classification.
type Result struct {
	Score      float64    `json:"score"`
	Confidence Confidence `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
	Cached     bool       `json:"cached"`
}

// Weighted is the score scaled by the confidence factor.
func (r Result) Weighted() float64 {
	return r.Score * r.Confidence.Factor()
}

// Classifier classifies a screen context.
type Classifier interface {
	Classify(ctx context.Context, c Context) (Result, error)
}
