package tts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	providerEspeak = "espeak"
	defaultEspeak  = "espeak-ng"
)

// Espeak implements Provider by running espeak-ng locally. It needs no
// network and is the usual last entry of a Chain.
type Espeak struct {
	config *Config
	binary string
	logger *slog.Logger
}

// NewEspeak creates a local espeak-ng provider. It returns
// ErrProviderUnavailable if the binary cannot be found on PATH.
func NewEspeak(opts ...Option) (*Espeak, error) {
	cfg := DefaultConfig()
	cfg.VoiceID = "en"
	cfg.Binary = defaultEspeak
	cfg.Apply(opts...)

	binary, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, WrapError(providerEspeak, fmt.Errorf("%w: %s not found", ErrProviderUnavailable, cfg.Binary))
	}

	return &Espeak{
		config: cfg,
		binary: binary,
		logger: cfg.Logger.With("component", "tts.espeak"),
	}, nil
}

// Args returns the command line used to synthesize text.
func (e *Espeak) Args(text string) []string {
	args := []string{"--stdout", "-v", e.config.VoiceID}
	if e.config.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(e.config.Rate))
	}
	return append(args, "--", text)
}

// Synthesize renders text to WAV.
func (e *Espeak) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerEspeak, ErrEmptyText)
	}
	start := time.Now()

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, e.Args(text)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, WrapError(providerEspeak, err)
	}
	latency := time.Since(start).Milliseconds()

	e.logger.Debug("synthesized audio", "chars", len(text), "bytes", stdout.Len(), "latency_ms", latency)

	return &AudioResult{
		Audio: stdout.Bytes(),
		Format: AudioFormat{
			Encoding:   EncodingWAV,
			SampleRate: SampleRateFromEncoding(EncodingWAV),
			Channels:   1,
			BitDepth:   16,
		},
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health checks that the binary runs.
func (e *Espeak) Health(ctx context.Context) error {
	if err := exec.CommandContext(ctx, e.binary, "--version").Run(); err != nil {
		return WrapError(providerEspeak, err)
	}
	return nil
}

// Close is a no-op.
func (e *Espeak) Close() error {
	return nil
}

var _ Provider = (*Espeak)(nil)
