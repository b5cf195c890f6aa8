// Package config provides environment helpers for go-hazardcam commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Default runtime configuration.
const (
	DefaultCamera   = "0"
	DefaultModelDir = "models"
	DefaultWebPort  = "8090"
	DefaultLogLevel = "info"
)

// String returns the env var value or the fallback if unset or empty.
func String(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Int returns the env var parsed as an int, or the fallback if unset or invalid.
func Int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Float returns the env var parsed as a float64, or the fallback.
func Float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Duration returns the env var parsed with time.ParseDuration, or the fallback.
func Duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// Camera returns the capture device from HAZARD_CAMERA: an index, a
// device path or a video file.
func Camera() string {
	return String("HAZARD_CAMERA", DefaultCamera)
}

// ModelDir returns the model directory from HAZARD_MODELS.
func ModelDir() string {
	return String("HAZARD_MODELS", DefaultModelDir)
}

// WebPort returns the overlay feed port from HAZARD_WEB_PORT.
func WebPort() string {
	return String("HAZARD_WEB_PORT", DefaultWebPort)
}

// LogLevel returns the log level from LOG_LEVEL.
func LogLevel() string {
	return String("LOG_LEVEL", DefaultLogLevel)
}

// OpenAIKey returns OPENAI_API_KEY, empty if unset.
func OpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}
