// Package camera describes capture settings and frame sources for the
// hazard pipeline. OpenCV capture lives in the webcam subpackage so this
// package builds without cgo.
package camera

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by a source after Close.
var ErrClosed = errors.New("camera: source closed")

// Config holds capture parameters.
type Config struct {
	// Device is a capture index ("0") or a video file path.
	Device string `json:"device"`

	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Target FPS; paces file playback
	Quality   int `json:"quality"`   // JPEG quality 1-100 for detector input
}

// Capture limits accepted by Validate.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns 640x480 at 30 FPS, the framing the hazard
// thresholds were tuned for.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   85,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errs []string

	if strings.TrimSpace(c.Device) == "" {
		errs = append(errs, "device is required")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errs = append(errs, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errs = append(errs, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errs = append(errs, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, "quality must be between 1 and 100")
	}

	return errs
}

// Err returns Validate's findings as a single error, or nil.
func (c *Config) Err() error {
	if errs := c.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera config: %s", strings.Join(errs, "; "))
	}
	return nil
}
