package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/deproductify/internal/score"
	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level deproductify configuration.
type Config struct {
	TriggerThreshold float64       `mapstructure:"trigger_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	Weights          Weights       `mapstructure:"weights"`
	Sources          Sources       `mapstructure:"sources"`
	Vision           Vision        `mapstructure:"vision"`
	Window           Window        `mapstructure:"window"`
	Keyboard         Keyboard      `mapstructure:"keyboard"`
	Classifier       Classifier    `mapstructure:"classifier"`
	Presenter        Presenter     `mapstructure:"presenter"`
	Output           Output        `mapstructure:"output"`
}

// Weights defines the fusion weight of each signal source.
type Weights struct {
	Visual   float64 `mapstructure:"visual"`
	Window   float64 `mapstructure:"window"`
	Keyboard float64 `mapstructure:"keyboard"`
}

// Sources toggles individual detectors.
type Sources struct {
	Vision   bool `mapstructure:"vision"`
	Window   bool `mapstructure:"window"`
	Keyboard bool `mapstructure:"keyboard"`
}

// Vision defines OCR and visual heuristic thresholds.
type Vision struct {
	BrightnessThreshold  float64 `mapstructure:"brightness_threshold"`
	TextDensityThreshold int     `mapstructure:"text_density_threshold"`
	KeywordThreshold     int     `mapstructure:"keyword_threshold"`
	MaxHashDistance      int     `mapstructure:"max_hash_distance"`
	TesseractPath        string  `mapstructure:"tesseract_path"`
}

// Window defines window-tracking thresholds.
type Window struct {
	FocusThreshold time.Duration `mapstructure:"focus_threshold"`
	GamePause      bool          `mapstructure:"game_pause"`
}

// Keyboard defines keystroke-rate thresholds.
type Keyboard struct {
	Device         string        `mapstructure:"device"`
	RateThreshold  float64       `mapstructure:"rate_threshold"`
	SteadyDuration time.Duration `mapstructure:"steady_duration"`
}

// Classifier defines the semantic fallback settings.
type Classifier struct {
	Enabled   bool          `mapstructure:"enabled"`
	Model     string        `mapstructure:"model"`
	APIKeyEnv string        `mapstructure:"api_key_env"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Presenter defines how activations are presented.
type Presenter struct {
	Command string `mapstructure:"command"`
	Notify  bool   `mapstructure:"notify"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location),
// applies defaults and validates the result.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("trigger_threshold", DefaultTriggerThreshold)
	v.SetDefault("cooldown", DefaultCooldown)
	v.SetDefault("tick_interval", DefaultTickInterval)
	v.SetDefault("weights.visual", DefaultWeights.Visual)
	v.SetDefault("weights.window", DefaultWeights.Window)
	v.SetDefault("weights.keyboard", DefaultWeights.Keyboard)
	v.SetDefault("sources.vision", DefaultSources.Vision)
	v.SetDefault("sources.window", DefaultSources.Window)
	v.SetDefault("sources.keyboard", DefaultSources.Keyboard)
	v.SetDefault("vision.brightness_threshold", DefaultVision.BrightnessThreshold)
	v.SetDefault("vision.text_density_threshold", DefaultVision.TextDensityThreshold)
	v.SetDefault("vision.keyword_threshold", DefaultVision.KeywordThreshold)
	v.SetDefault("vision.max_hash_distance", DefaultVision.MaxHashDistance)
	v.SetDefault("vision.tesseract_path", DefaultVision.TesseractPath)
	v.SetDefault("window.focus_threshold", DefaultWindow.FocusThreshold)
	v.SetDefault("window.game_pause", DefaultWindow.GamePause)
	v.SetDefault("keyboard.device", DefaultKeyboard.Device)
	v.SetDefault("keyboard.rate_threshold", DefaultKeyboard.RateThreshold)
	v.SetDefault("keyboard.steady_duration", DefaultKeyboard.SteadyDuration)
	v.SetDefault("classifier.enabled", DefaultClassifier.Enabled)
	v.SetDefault("classifier.model", DefaultClassifier.Model)
	v.SetDefault("classifier.api_key_env", DefaultClassifier.APIKeyEnv)
	v.SetDefault("classifier.timeout", DefaultClassifier.Timeout)
	v.SetDefault("presenter.command", DefaultPresenter.Command)
	v.SetDefault("presenter.notify", DefaultPresenter.Notify)
	v.SetDefault("output.color", DefaultOutput.Color)

	v.SetEnvPrefix("DEPRODUCTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Keyboard.Device = expandPath(cfg.Keyboard.Device)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the scoring core cannot run with. It is called
// by Load so a bad config fails at startup rather than mid-session.
func (c *Config) Validate() error {
	if err := c.EngineConfig().Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.EngineConfig().Trigger.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval %s must be positive", ErrInvalid, c.TickInterval)
	}
	if !c.Sources.Vision && !c.Sources.Window && !c.Sources.Keyboard {
		return fmt.Errorf("%w: at least one source must be enabled", ErrInvalid)
	}
	if c.Keyboard.RateThreshold <= 0 {
		return fmt.Errorf("%w: keyboard.rate_threshold must be positive", ErrInvalid)
	}
	if c.Classifier.Enabled && c.Classifier.Timeout <= 0 {
		return fmt.Errorf("%w: classifier.timeout must be positive", ErrInvalid)
	}
	return nil
}

// EngineConfig converts the scoring settings for the score package.
func (c *Config) EngineConfig() score.EngineConfig {
	return score.EngineConfig{
		Weights: score.Weights{
			Visual:   c.Weights.Visual,
			Window:   c.Weights.Window,
			Keyboard: c.Weights.Keyboard,
		},
		Trigger: score.TriggerConfig{
			Threshold: c.TriggerThreshold,
			Cooldown:  c.Cooldown,
		},
	}
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(ConfigDir(), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
