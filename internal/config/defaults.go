// Package config provides configuration loading and defaults for deproductify.
package config

import (
	"time"

	"github.com/blackwell-systems/deproductify/internal/score"
)

// DefaultConfigDir is the default location for deproductify configuration.
const DefaultConfigDir = "~/.config/deproductify"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "deproductify.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultTriggerThreshold is the effective score that activates the overlay.
const DefaultTriggerThreshold = score.DefaultThreshold

// DefaultCooldown is how long activations are suppressed after one fires.
const DefaultCooldown = score.DefaultCooldown

// DefaultTickInterval is the polling cadence of the monitoring loop.
const DefaultTickInterval = score.DefaultTickInterval

// DefaultWeights holds the fusion weights per module.
var DefaultWeights = Weights{
	Visual:   score.DefaultWeights.Visual,
	Window:   score.DefaultWeights.Window,
	Keyboard: score.DefaultWeights.Keyboard,
}

// DefaultSources enables every detector.
var DefaultSources = Sources{
	Vision:   true,
	Window:   true,
	Keyboard: true,
}

// DefaultVision holds the OCR and visual heuristic thresholds.
var DefaultVision = Vision{
	BrightnessThreshold:  200,
	TextDensityThreshold: 300,
	KeywordThreshold:     3,
	MaxHashDistance:      5,
	TesseractPath:        "tesseract",
}

// DefaultWindow holds the window tracking thresholds.
var DefaultWindow = Window{
	FocusThreshold: 5 * time.Minute,
	GamePause:      true,
}

// DefaultKeyboard holds the keystroke-rate thresholds.
var DefaultKeyboard = Keyboard{
	Device:         "",
	RateThreshold:  2.0,
	SteadyDuration: 15 * time.Second,
}

// DefaultClassifier holds the semantic fallback settings.
var DefaultClassifier = Classifier{
	Enabled:   true,
	Model:     "gemini-2.5-flash",
	APIKeyEnv: "GEMINI_API_KEY",
	Timeout:   10 * time.Second,
}

// DefaultPresenter holds the activation presenter settings.
var DefaultPresenter = Presenter{
	Command: "",
	Notify:  true,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
}
