// Package app wires the hazard camera together: capture, detectors, the
// frame pipeline, speech delivery and the overlay feed.
package app

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/teslashibe/go-hazardcam/internal/config"
	"github.com/teslashibe/go-hazardcam/pkg/camera"
)

// TTS modes.
const (
	TTSAuto   = "auto"   // OpenAI if a key is set, then espeak, then silent
	TTSOpenAI = "openai" // OpenAI with espeak fallback
	TTSEspeak = "espeak"
	TTSSilent = "silent"
)

// Config holds all configuration for the hazard camera.
// Flag parsing is done in cmd/hazardcam/main.go; this struct is data only.
type Config struct {
	LogLevel string

	// Capture
	CameraPreset string
	Device       string // Overrides the preset device when set
	ReplayDir    string // Read JPEG files instead of a camera
	ReplayLoop   bool

	// Detection
	ModelDir         string
	Models           []string // ONNX files in ModelDir, one detector each
	ConfidenceThresh float64
	MinBoxArea       float64  // Pixels; smaller boxes are dropped
	Labels           []string // Only these labels are kept when set
	AssignTrackIDs   bool

	// Hazard rules
	ProximityRatio float64
	SpeedThreshold float64
	StreetRules    bool

	// Alerts and speech
	Cooldown     time.Duration
	Gap          time.Duration
	TTSMode      string
	Voice        string
	StopTimeout  time.Duration
	OpenAIKey    string
	EspeakBinary string

	// Overlay feed
	WebPort   string
	NoWeb     bool
	StaticDir string
}

// DefaultCooldown is how long an alert stays suppressed after it is spoken.
const DefaultCooldown = 5 * time.Second

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:         config.DefaultLogLevel,
		CameraPreset:     camera.PresetDefault,
		ModelDir:         config.DefaultModelDir,
		Models:           []string{"yolov8n.onnx"},
		ConfidenceThresh: 0.4,
		AssignTrackIDs:   true,
		ProximityRatio:   0.5,
		SpeedThreshold:   40,
		Cooldown:         DefaultCooldown,
		Gap:              800 * time.Millisecond,
		TTSMode:          TTSAuto,
		StopTimeout:      2 * time.Second,
		EspeakBinary:     "espeak-ng",
		WebPort:          config.DefaultWebPort,
	}
}

// LoadEnvConfig loads configuration values from environment variables.
// Call this after flag parsing to apply environment overrides.
func (c *Config) LoadEnvConfig() {
	if c.Device == "" {
		if d := config.Camera(); d != config.DefaultCamera {
			c.Device = d
		}
	}
	if c.ModelDir == "" || c.ModelDir == config.DefaultModelDir {
		c.ModelDir = config.ModelDir()
	}
	if c.WebPort == "" || c.WebPort == config.DefaultWebPort {
		c.WebPort = config.WebPort()
	}
	if c.LogLevel == "" || c.LogLevel == config.DefaultLogLevel {
		c.LogLevel = config.LogLevel()
	}
	if c.Cooldown == DefaultCooldown {
		c.Cooldown = config.Duration("HAZARD_COOLDOWN", c.Cooldown)
	}
	c.OpenAIKey = config.OpenAIKey()
}

// CameraConfig resolves the preset and device override.
func (c *Config) CameraConfig() camera.Config {
	cfg := camera.DefaultConfig()
	if p := camera.GetPreset(c.CameraPreset); p != nil {
		cfg = *p
	}
	if c.Device != "" {
		cfg.Device = c.Device
	}
	return cfg
}

// ModelPaths returns the absolute model file paths.
func (c *Config) ModelPaths() []string {
	paths := make([]string, len(c.Models))
	for i, m := range c.Models {
		if filepath.IsAbs(m) {
			paths[i] = m
		} else {
			paths[i] = filepath.Join(c.ModelDir, m)
		}
	}
	return paths
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if camera.GetPreset(c.CameraPreset) == nil {
		return &ConfigError{Field: "CameraPreset", Message: fmt.Sprintf("unknown camera preset %q (valid: %v)", c.CameraPreset, camera.PresetNames())}
	}
	if c.ReplayDir == "" {
		cam := c.CameraConfig()
		if err := cam.Err(); err != nil {
			return &ConfigError{Field: "Camera", Message: err.Error()}
		}
	}
	if len(c.Models) == 0 {
		return &ConfigError{Field: "Models", Message: "at least one detection model is required"}
	}
	if c.ConfidenceThresh < 0 || c.ConfidenceThresh > 1 {
		return &ConfigError{Field: "ConfidenceThresh", Message: "confidence must be between 0 and 1"}
	}
	if c.MinBoxArea < 0 {
		return &ConfigError{Field: "MinBoxArea", Message: "minimum box area must not be negative"}
	}
	if c.ProximityRatio <= 0 || c.ProximityRatio > 1 {
		return &ConfigError{Field: "ProximityRatio", Message: "proximity ratio must be in (0, 1]"}
	}
	if c.SpeedThreshold <= 0 {
		return &ConfigError{Field: "SpeedThreshold", Message: "speed threshold must be positive"}
	}
	if c.Cooldown < 0 || c.Gap < 0 {
		return &ConfigError{Field: "Cooldown", Message: "cooldown and gap must not be negative"}
	}
	if !slices.Contains([]string{TTSAuto, TTSOpenAI, TTSEspeak, TTSSilent}, c.TTSMode) {
		return &ConfigError{Field: "TTSMode", Message: fmt.Sprintf("unknown tts mode %q", c.TTSMode)}
	}
	if c.TTSMode == TTSOpenAI && c.OpenAIKey == "" {
		return &ConfigError{Field: "OpenAIKey", Message: "OPENAI_API_KEY environment variable is required for openai TTS"}
	}
	if !c.NoWeb && c.WebPort == "" {
		return &ConfigError{Field: "WebPort", Message: "web port is required unless the overlay feed is disabled"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
