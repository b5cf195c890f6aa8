// Package alert rate-limits and coalesces hazard alerts before they are
// queued for speech.
package alert

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/teslashibe/go-hazardcam/pkg/hazard"
)

// Enqueuer accepts utterances without blocking.
type Enqueuer interface {
	// Push enqueues text. force marks an item that must not displace
	// older pending items.
	Push(text string, force bool) (evicted, accepted bool)
}

// Config holds scheduler parameters.
type Config struct {
	Cooldown     time.Duration // Minimum gap before the same text is queued again
	MaxCoalesced int           // Literal texts per utterance before summarizing
	Clock        clock.Clock
	Logger       *slog.Logger
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Cooldown:     5 * time.Second,
		MaxCoalesced: DefaultMaxCoalesced,
		Clock:        clock.New(),
		Logger:       slog.Default(),
	}
}

// Stats counts scheduler decisions.
type Stats struct {
	Candidates int `json:"candidates"`
	Suppressed int `json:"suppressed"` // Dropped by cooldown
	Queued     int `json:"queued"`     // Utterances pushed
	Evicted    int `json:"evicted"`    // Older items displaced in the queue
	Rejected   int `json:"rejected"`   // Utterances the queue refused
}

// Scheduler decides which candidates advance to speech.
// It owns the cooldown table and is meant to be used from the frame loop
// only; it is not safe for concurrent use.
type Scheduler struct {
	config    Config
	queue     Enqueuer
	cooldowns map[string]time.Time
	stats     Stats
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that pushes to queue.
func NewScheduler(config Config, queue Enqueuer) *Scheduler {
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxCoalesced == 0 {
		config.MaxCoalesced = DefaultMaxCoalesced
	}
	return &Scheduler{
		config:    config,
		queue:     queue,
		cooldowns: make(map[string]time.Time),
		logger:    config.Logger.With("component", "alert"),
	}
}

// Select returns the texts whose cooldown has expired and stamps them with
// the current time. Stamping happens on selection, not on delivery, so a
// congested speech queue cannot build up repeats.
func (s *Scheduler) Select(cands []hazard.Candidate) []string {
	now := s.config.Clock.Now()
	selected := make([]string, 0, len(cands))

	for _, c := range cands {
		s.stats.Candidates++
		last, seen := s.cooldowns[c.Text]
		if seen && now.Sub(last) <= s.config.Cooldown {
			s.stats.Suppressed++
			continue
		}
		s.cooldowns[c.Text] = now
		selected = append(selected, c.Text)
	}
	return selected
}

// Schedule selects, coalesces and enqueues the frame's candidates. It
// returns the utterance and whether one was pushed.
func (s *Scheduler) Schedule(cands []hazard.Candidate) (string, bool) {
	selected := s.Select(cands)
	if len(selected) == 0 {
		return "", false
	}

	utterance := Coalesce(selected, s.config.MaxCoalesced)
	evicted, accepted := s.queue.Push(utterance, false)
	if evicted {
		s.stats.Evicted++
		s.logger.Warn("speech queue full, dropped oldest alert")
	}
	if !accepted {
		s.stats.Rejected++
		return utterance, false
	}

	s.stats.Queued++
	s.logger.Info("alert queued", "text", utterance, "selected", len(selected))
	return utterance, true
}

// Cooldowns returns the number of texts with a recorded send time.
func (s *Scheduler) Cooldowns() int {
	return len(s.cooldowns)
}

// LastSent returns when text was last selected.
func (s *Scheduler) LastSent(text string) (time.Time, bool) {
	t, ok := s.cooldowns[text]
	return t, ok
}

// Stats returns a copy of the counters.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Reset clears the cooldown table.
func (s *Scheduler) Reset() {
	clear(s.cooldowns)
}
