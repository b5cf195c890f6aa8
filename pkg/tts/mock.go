package tts

import (
	"context"
	"sync"
	"time"
)

// Mock is a Provider whose behavior is set per test through function
// fields. It records the texts it was asked to speak.
type Mock struct {
	// SynthesizeFunc answers Synthesize. Nil returns ErrProviderUnavailable.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)

	// HealthFunc answers Health. Nil is healthy.
	HealthFunc func(ctx context.Context) error

	// CloseFunc answers Close. Nil succeeds.
	CloseFunc func() error

	mu     sync.Mutex
	texts  []string
	closed int
}

// NewMock returns a mock that answers with a short silent WAV clip,
// about 60 ms per character.
func NewMock() *Mock {
	return &Mock{SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
		d := time.Duration(len(text)) * 60 * time.Millisecond
		return &AudioResult{
			Audio:     make([]byte, 44+int(d.Seconds()*22050)*2),
			Format:    AudioFormat{Encoding: EncodingWAV, SampleRate: 22050, Channels: 1, BitDepth: 16},
			Duration:  d,
			CharCount: len(text),
		}, nil
	}}
}

// Failing returns a mock whose Synthesize and Health return err.
func Failing(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(context.Context, string) (*AudioResult, error) { return nil, err },
		HealthFunc:     func(context.Context) error { return err },
	}
}

func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.SynthesizeFunc == nil {
		return nil, WrapError("mock", ErrProviderUnavailable)
	}
	return m.SynthesizeFunc(ctx, text)
}

func (m *Mock) Health(ctx context.Context) error {
	if m.HealthFunc == nil {
		return nil
	}
	return m.HealthFunc(ctx)
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()

	if m.CloseFunc == nil {
		return nil
	}
	return m.CloseFunc()
}

// Texts returns every text passed to Synthesize, in call order.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Closed returns how many times Close was called.
func (m *Mock) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Provider = (*Mock)(nil)
