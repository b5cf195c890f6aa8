package tts

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNoAPIKey is returned when a hosted provider has no API key.
	ErrNoAPIKey = errors.New("tts: API key required")

	// ErrEmptyText is returned for blank input.
	ErrEmptyText = errors.New("tts: empty text")

	// ErrProviderUnavailable is returned when a provider cannot be used,
	// for example when its binary is not installed.
	ErrProviderUnavailable = errors.New("tts: provider unavailable")

	// ErrAllProvidersFailed matches a ChainError.
	ErrAllProvidersFailed = errors.New("tts: all providers failed")
)

// APIError is a non-200 answer from a hosted provider.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string        // Provider error code, if any
	Message    string
	RetryAfter time.Duration // From the Retry-After header; zero if absent
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tts %s: status %d", e.Provider, e.StatusCode)
	if e.Code != "" {
		b.WriteString(" " + e.Code)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// Retryable reports whether the same request may succeed later: the
// provider throttled us or failed on its side.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Fatal reports whether the provider will keep refusing until it is
// reconfigured, such as with a bad key or an exhausted account.
func (e *APIError) Fatal() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
		return true
	}
	return false
}

// ProviderError tags an error with the provider that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("tts %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError tags err with provider. A nil err stays nil.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
