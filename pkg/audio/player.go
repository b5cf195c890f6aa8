// Package audio plays synthesized speech through a local command-line player.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/teslashibe/go-hazardcam/pkg/tts"
)

// ErrNoPlayer is returned when no player command is configured for an
// encoding.
var ErrNoPlayer = errors.New("audio: no player for encoding")

// Command builds the argv that plays audio of one encoding from stdin.
type Command []string

// Config maps encodings to player commands.
type Config struct {
	Commands map[tts.Encoding]Command
	Logger   *slog.Logger
}

// DefaultConfig plays WAV with aplay and everything else with ffplay.
func DefaultConfig() Config {
	ffplay := Command{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-i", "-"}
	return Config{
		Commands: map[tts.Encoding]Command{
			tts.EncodingWAV:   {"aplay", "-q", "-"},
			tts.EncodingMP3:   ffplay,
			tts.EncodingPCM24: {"aplay", "-q", "-t", "raw", "-f", "S16_LE", "-r", "24000", "-c", "1", "-"},
		},
		Logger: slog.Default(),
	}
}

// Player runs one playback process at a time.
type Player struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	playing bool

	// Callbacks
	OnPlaybackStart func()
	OnPlaybackEnd   func(err error)
}

// NewPlayer creates a player.
func NewPlayer(config Config) *Player {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Player{
		config: config,
		logger: config.Logger.With("component", "audio"),
	}
}

// Play starts playing result and returns once the player process is
// running. Any playback already in progress is cancelled first.
func (p *Player) Play(result *tts.AudioResult) error {
	if result == nil || len(result.Audio) == 0 {
		return nil
	}
	argv, ok := p.config.Commands[result.Format.Encoding]
	if !ok || len(argv) == 0 {
		return fmt.Errorf("%w: %s", ErrNoPlayer, result.Format.Encoding)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(result.Audio)

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start %s: %w", argv[0], err)
	}

	p.cmd = cmd
	p.cancel = cancel
	p.playing = true
	if p.OnPlaybackStart != nil {
		p.OnPlaybackStart()
	}

	go p.wait(cmd, cancel)
	return nil
}

func (p *Player) wait(cmd *exec.Cmd, cancel context.CancelFunc) {
	err := cmd.Wait()
	cancel()

	p.mu.Lock()
	current := p.cmd == cmd
	if current {
		p.cmd = nil
		p.cancel = nil
		p.playing = false
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Debug("playback ended with error", "error", err)
	}
	if current && p.OnPlaybackEnd != nil {
		p.OnPlaybackEnd(err)
	}
}

func (p *Player) stopLocked() {
	if p.cancel != nil {
		p.cancel()
	}
	p.cmd = nil
	p.cancel = nil
	p.playing = false
}

// Cancel stops any current playback immediately.
func (p *Player) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// IsPlaying returns whether a playback process is running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}
