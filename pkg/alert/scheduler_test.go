package alert

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/teslashibe/go-hazardcam/internal/log"
	"github.com/teslashibe/go-hazardcam/pkg/hazard"
)

type recordingQueue struct {
	items  []string
	cap    int
	forced []bool
}

func (q *recordingQueue) Push(text string, force bool) (bool, bool) {
	q.forced = append(q.forced, force)
	if q.cap > 0 && len(q.items) >= q.cap {
		q.items = append(q.items[1:], text)
		return true, true
	}
	q.items = append(q.items, text)
	return false, true
}

type refusingQueue struct{}

func (refusingQueue) Push(string, bool) (bool, bool) { return false, false }

func newTestScheduler(q Enqueuer) (*Scheduler, *clock.Mock) {
	mock := clock.NewMock()
	cfg := DefaultConfig()
	cfg.Clock = mock
	cfg.Logger = log.Discard()
	return NewScheduler(cfg, q), mock
}

func cands(texts ...string) []hazard.Candidate {
	out := make([]hazard.Candidate, len(texts))
	for i, t := range texts {
		out[i] = hazard.Candidate{Text: t}
	}
	return out
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		limit int
		want  string
	}{
		{"empty", nil, 3, ""},
		{"single", []string{"a"}, 3, "a"},
		{"at cap", []string{"a", "b", "c"}, 3, "a. b. c"},
		{"over cap", []string{"a", "b", "c", "d", "e"}, 3, "a. b. c. and 2 more alerts"},
		{"one over", []string{"a", "b", "c", "d"}, 3, "a. b. c. and 1 more alerts"},
		{"no cap", []string{"a", "b", "c", "d"}, 0, "a. b. c. d"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Coalesce(tc.texts, tc.limit); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestScheduler_CooldownSuppressesRepeat(t *testing.T) {
	q := &recordingQueue{}
	s, mock := newTestScheduler(q)

	s.Schedule(cands("Warning, dog very close."))
	mock.Add(2 * time.Second)
	if _, ok := s.Schedule(cands("Warning, dog very close.")); ok {
		t.Error("repeat inside cooldown should not be queued")
	}

	if len(q.items) != 1 {
		t.Fatalf("queue items: got %d, want 1", len(q.items))
	}
	if st := s.Stats(); st.Suppressed != 1 || st.Queued != 1 {
		t.Errorf("Stats: got %+v", st)
	}
}

func TestScheduler_CooldownBoundary(t *testing.T) {
	q := &recordingQueue{}
	s, mock := newTestScheduler(q)
	text := "Caution, fast moving car."

	s.Schedule(cands(text))
	mock.Add(5 * time.Second)
	if _, ok := s.Schedule(cands(text)); ok {
		t.Error("exactly the cooldown has not exceeded it")
	}
	mock.Add(time.Millisecond)
	if _, ok := s.Schedule(cands(text)); !ok {
		t.Error("text should be queued once the cooldown is exceeded")
	}
	if len(q.items) != 2 {
		t.Errorf("queue items: got %d, want 2", len(q.items))
	}
}

func TestScheduler_StampsOnSelection(t *testing.T) {
	s, mock := newTestScheduler(refusingQueue{})
	text := "Warning, person very close."

	start := mock.Now()
	if _, ok := s.Schedule(cands(text)); ok {
		t.Fatal("refusing queue should report not accepted")
	}
	last, ok := s.LastSent(text)
	if !ok || !last.Equal(start) {
		t.Errorf("cooldown should be stamped on selection, got %v %v", last, ok)
	}
	if s.Stats().Rejected != 1 {
		t.Errorf("Rejected: got %d, want 1", s.Stats().Rejected)
	}
}

func TestScheduler_CoalescesFrame(t *testing.T) {
	q := &recordingQueue{}
	s, _ := newTestScheduler(q)

	got, ok := s.Schedule(cands("a", "b", "c", "d", "e"))
	if !ok {
		t.Fatal("expected utterance to be queued")
	}
	want := "a. b. c. and 2 more alerts"
	if got != want {
		t.Errorf("utterance: got %q, want %q", got, want)
	}
	if diff := cmp.Diff([]string{want}, q.items); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{false}, q.forced); diff != "" {
		t.Errorf("scheduler pushes must not be forced (-want +got):\n%s", diff)
	}
	// Dropped texts are still stamped.
	if s.Cooldowns() != 5 {
		t.Errorf("Cooldowns: got %d, want 5", s.Cooldowns())
	}
}

func TestScheduler_MixedCooldowns(t *testing.T) {
	q := &recordingQueue{}
	s, mock := newTestScheduler(q)

	s.Schedule(cands("a"))
	mock.Add(time.Second)
	got, ok := s.Schedule(cands("a", "b"))
	if !ok || got != "b" {
		t.Errorf("got %q %v, want only the cooled-down text", got, ok)
	}
}

func TestScheduler_NothingSelected(t *testing.T) {
	q := &recordingQueue{}
	s, _ := newTestScheduler(q)

	if _, ok := s.Schedule(nil); ok {
		t.Error("no candidates should not queue anything")
	}
	if len(q.items) != 0 {
		t.Errorf("queue should be empty, got %v", q.items)
	}
}

func TestScheduler_EvictionCounted(t *testing.T) {
	q := &recordingQueue{cap: 1}
	s, _ := newTestScheduler(q)

	s.Schedule(cands("a"))
	s.Schedule(cands("b"))
	if s.Stats().Evicted != 1 {
		t.Errorf("Evicted: got %d, want 1", s.Stats().Evicted)
	}
	if diff := cmp.Diff([]string{"b"}, q.items); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}
}

func TestScheduler_Reset(t *testing.T) {
	q := &recordingQueue{}
	s, _ := newTestScheduler(q)

	s.Schedule(cands("a"))
	s.Reset()
	if s.Cooldowns() != 0 {
		t.Fatalf("Cooldowns after reset: got %d", s.Cooldowns())
	}
	if _, ok := s.Schedule(cands("a")); !ok {
		t.Error("text should be schedulable again after reset")
	}
}
