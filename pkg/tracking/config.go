package tracking

import (
	"fmt"
	"log/slog"
)

// Config holds all tunable parameters for object tracking
type Config struct {
	// Label smoothing
	HistorySize int // Raw labels kept per track for the majority vote

	// Upright-silhouette correction. A smoothed label in PersonConfusable is
	// reported as "person" when the box is taller than TallRatio of the frame
	// and taller than AspectRatio times its width.
	PersonConfusable []string
	TallRatio        float64
	AspectRatio      float64

	Logger *slog.Logger
}

// DefaultConfig returns the recommended configuration
func DefaultConfig() Config {
	return Config{
		HistorySize: 7,

		PersonConfusable: []string{"dog", "cat", "bear", "horse", "teddy bear"},
		TallRatio:        0.35, // Box height > 35% of frame height
		AspectRatio:      1.1,  // and height > 1.1x width

		Logger: slog.Default(),
	}
}

// NoCorrectionConfig returns defaults with the person relabeling disabled.
func NoCorrectionConfig() Config {
	cfg := DefaultConfig()
	cfg.PersonConfusable = nil
	return cfg
}

// Validate checks the configuration for impossible values.
func (c Config) Validate() error {
	if c.HistorySize < 1 {
		return fmt.Errorf("tracking: HistorySize must be >= 1, got %d", c.HistorySize)
	}
	if c.TallRatio < 0 || c.TallRatio > 1 {
		return fmt.Errorf("tracking: TallRatio must be within [0,1], got %v", c.TallRatio)
	}
	if c.AspectRatio < 0 {
		return fmt.Errorf("tracking: AspectRatio must be >= 0, got %v", c.AspectRatio)
	}
	return nil
}
