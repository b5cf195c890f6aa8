package detection

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-hazardcam/internal/log"
)

func testMultiConfig() MultiConfig {
	cfg := DefaultMultiConfig()
	cfg.Logger = log.Discard()
	return cfg
}

func TestNewMultiSource_RequiresSource(t *testing.T) {
	if _, err := NewMultiSource(testMultiConfig()); err == nil {
		t.Error("expected error with no sources")
	}
}

func TestMultiSource_FusesAcrossSources(t *testing.T) {
	coco := NewMockDetector("coco", []Detection{
		{Box: Box{0, 0, 100, 100}, Confidence: 0.6, Label: "dog"},
		{Box: Box{300, 300, 350, 350}, Confidence: 0.7, Label: "car"},
	})
	custom := NewMockDetector("custom", []Detection{
		{Box: Box{1, 1, 101, 101}, Confidence: 0.9, Label: "dog"},
	})

	m, err := NewMultiSource(testMultiConfig(), coco, custom)
	if err != nil {
		t.Fatalf("NewMultiSource: %v", err)
	}

	got, err := m.Detect(nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d detections, want 2: %+v", len(got), got)
	}
	if got[0].SourceID != "custom" || got[0].Confidence != 0.9 {
		t.Errorf("winner should be custom/0.9, got %+v", got[0])
	}
	if got[1].SourceID != "coco" || got[1].Label != "car" {
		t.Errorf("second should be coco car, got %+v", got[1])
	}
	if m.Name() != "multi" {
		t.Errorf("Name: got %q", m.Name())
	}
}

func TestMultiSource_StripsTrackIDsWithSeveralSources(t *testing.T) {
	a := NewMockDetector("a", []Detection{(Detection{Box: Box{0, 0, 10, 10}, Confidence: 0.9}).WithTrack(1)})
	b := NewMockDetector("b", []Detection{(Detection{Box: Box{50, 50, 60, 60}, Confidence: 0.9}).WithTrack(1)})

	m, _ := NewMultiSource(testMultiConfig(), a, b)
	got, _ := m.Detect(nil)
	for _, d := range got {
		if d.HasTrack() {
			t.Errorf("fused detection kept track id: %+v", d)
		}
	}
}

func TestMultiSource_SingleSourceKeepsTrackIDs(t *testing.T) {
	a := NewMockDetector("tracker", []Detection{(Detection{Box: Box{0, 0, 10, 10}, Confidence: 0.9}).WithTrack(7)})

	m, _ := NewMultiSource(testMultiConfig(), a)
	got, _ := m.Detect(nil)
	if len(got) != 1 || !got[0].HasTrack() || *got[0].TrackID != 7 {
		t.Errorf("single source should keep track id, got %+v", got)
	}
	if got[0].SourceID != "tracker" {
		t.Errorf("SourceID: got %q", got[0].SourceID)
	}
	if m.Name() != "tracker" {
		t.Errorf("Name: got %q", m.Name())
	}
}

func TestMultiSource_FailingSourceIsEmpty(t *testing.T) {
	ok := NewMockDetector("ok", []Detection{{Box: Box{0, 0, 10, 10}, Confidence: 0.9, Label: "dog"}})
	bad := &MockDetector{ID: "bad", DetectFunc: func([]byte) ([]Detection, error) {
		return nil, errors.New("inference crashed")
	}}

	m, _ := NewMultiSource(testMultiConfig(), ok, bad)
	got, err := m.Detect(nil)
	if err != nil {
		t.Fatalf("one failing source must not fail the frame: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d detections, want 1", len(got))
	}
}

func TestMultiSource_AllFail(t *testing.T) {
	boom := errors.New("boom")
	bad := &MockDetector{ID: "bad", DetectFunc: func([]byte) ([]Detection, error) { return nil, boom }}

	m, _ := NewMultiSource(testMultiConfig(), bad)
	got, err := m.Detect(nil)
	if !errors.Is(err, ErrAllSourcesFailed) {
		t.Errorf("expected ErrAllSourcesFailed, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no detections, got %+v", got)
	}
}

func TestMultiSource_Postprocess(t *testing.T) {
	src := NewMockDetector("coco", []Detection{
		{Box: Box{0, 0, 10, 10}, Confidence: 0.3, Label: "dog"},
		{Box: Box{50, 50, 60, 60}, Confidence: 0.8, Label: "dog"},
	})
	cfg := testMultiConfig()
	cfg.Postprocess = NewScoreFilter(0.4)

	m, _ := NewMultiSource(cfg, src)
	got, _ := m.Detect(nil)
	if len(got) != 1 || got[0].Confidence != 0.8 {
		t.Errorf("postprocess not applied: %+v", got)
	}
}

func TestMultiSource_CloseClosesAll(t *testing.T) {
	a, b := NewMockDetector("a"), NewMockDetector("b")
	m, _ := NewMultiSource(testMultiConfig(), a, b)

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.Closed() || !b.Closed() {
		t.Error("all sources should be closed")
	}
}
