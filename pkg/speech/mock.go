package speech

import (
	"context"
	"sync"
	"time"
)

// MockSpeaker implements Speaker for testing.
type MockSpeaker struct {
	// SpeakFunc is called when Speak is invoked. If nil, Speak succeeds.
	SpeakFunc func(ctx context.Context, text string) error

	// Duration is how long Busy reports true after each Speak.
	Duration time.Duration

	mu        sync.Mutex
	spoken    []string
	spokenAt  []time.Time
	busyUntil time.Time
}

// Speak records text and marks the speaker busy for Duration.
func (m *MockSpeaker) Speak(ctx context.Context, text string) error {
	m.mu.Lock()
	now := time.Now()
	m.spoken = append(m.spoken, text)
	m.spokenAt = append(m.spokenAt, now)
	m.busyUntil = now.Add(m.Duration)
	fn := m.SpeakFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return nil
}

// Busy reports whether the simulated utterance is still playing.
func (m *MockSpeaker) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Now().Before(m.busyUntil)
}

// Spoken returns the texts passed to Speak.
func (m *MockSpeaker) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

// SpokenAt returns when each Speak call started.
func (m *MockSpeaker) SpokenAt() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.spokenAt...)
}

var _ Speaker = (*MockSpeaker)(nil)
