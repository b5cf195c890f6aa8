package detection

import "sync"

// MockDetector implements Detector for testing.
// DetectFunc can be set to customize the output per call.
type MockDetector struct {
	ID string

	// DetectFunc is called when Detect is invoked.
	// If nil, Frames are returned in order, then empty lists.
	DetectFunc func(jpeg []byte) ([]Detection, error)

	// Frames are replayed one per Detect call when DetectFunc is nil.
	Frames [][]Detection

	mu     sync.Mutex
	calls  int
	closed bool
}

// NewMockDetector creates a mock that replays the given frames.
func NewMockDetector(id string, frames ...[]Detection) *MockDetector {
	return &MockDetector{ID: id, Frames: frames}
}

// Detect implements Detector.
func (m *MockDetector) Detect(jpeg []byte) ([]Detection, error) {
	m.mu.Lock()
	n := m.calls
	m.calls++
	m.mu.Unlock()

	if m.DetectFunc != nil {
		return m.DetectFunc(jpeg)
	}
	if n < len(m.Frames) {
		out := make([]Detection, len(m.Frames[n]))
		copy(out, m.Frames[n])
		return out, nil
	}
	return nil, nil
}

// Name implements Detector.
func (m *MockDetector) Name() string {
	if m.ID == "" {
		return "mock"
	}
	return m.ID
}

// Close implements Detector.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns the number of Detect calls.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify MockDetector implements Detector at compile time.
var _ Detector = (*MockDetector)(nil)
