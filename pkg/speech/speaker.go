// Package speech delivers alert utterances to a Speaker from a background
// worker so the frame loop never waits on speech synthesis.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-hazardcam/pkg/audio"
	"github.com/teslashibe/go-hazardcam/pkg/tts"
)

// ErrSpeakerUnavailable is returned by a Speaker that cannot produce sound.
var ErrSpeakerUnavailable = errors.New("speech: speaker unavailable")

// Speaker begins speaking text and reports whether it is still speaking.
// Speak may return before playback ends. It must return promptly once ctx
// is done.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Busy() bool
}

// Interrupter is implemented by speakers that can cut playback short. The
// dispatcher calls Interrupt when it stops mid-utterance.
type Interrupter interface {
	Interrupt()
}

// Silent is a Speaker that only logs. It is used when no speech backend
// is available so the rest of the pipeline keeps running.
type Silent struct {
	Logger *slog.Logger
}

// Speak logs text.
func (s Silent) Speak(_ context.Context, text string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("alert (silent)", "component", "speech", "text", text)
	return nil
}

// Busy is always false.
func (Silent) Busy() bool { return false }

// Player plays synthesized audio asynchronously.
type Player interface {
	Play(result *tts.AudioResult) error
	IsPlaying() bool
	Cancel()
}

// TTSSpeaker synthesizes with a tts.Provider and plays through a Player.
type TTSSpeaker struct {
	provider tts.Provider
	player   Player
	timeout  time.Duration
}

// NewTTSSpeaker creates a speaker. timeout bounds each synthesis call on
// top of the caller's context.
func NewTTSSpeaker(provider tts.Provider, player Player, timeout time.Duration) *TTSSpeaker {
	return &TTSSpeaker{provider: provider, player: player, timeout: timeout}
}

// Speak synthesizes text and starts playback. Cancelling ctx aborts the
// synthesis request.
func (s *TTSSpeaker) Speak(ctx context.Context, text string) error {
	if s.provider == nil || s.player == nil {
		return ErrSpeakerUnavailable
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.provider.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.player.Play(result); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// Busy reports whether playback is in progress.
func (s *TTSSpeaker) Busy() bool {
	return s.player != nil && s.player.IsPlaying()
}

// Interrupt stops playback.
func (s *TTSSpeaker) Interrupt() {
	if s.player != nil {
		s.player.Cancel()
	}
}

var (
	_ Speaker     = Silent{}
	_ Speaker     = (*TTSSpeaker)(nil)
	_ Interrupter = (*TTSSpeaker)(nil)
	_ Player      = (*audio.Player)(nil)
)
