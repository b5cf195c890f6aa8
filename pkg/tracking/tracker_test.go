package tracking

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/teslashibe/go-hazardcam/internal/log"
	"github.com/teslashibe/go-hazardcam/pkg/detection"
)

func newTestTracker(cfg Config) *Tracker {
	cfg.Logger = log.Discard()
	return New(cfg)
}

func tracked(id int, label string, box detection.Box) detection.Detection {
	return detection.Detection{Box: box, Confidence: 0.9, Label: label}.WithTrack(id)
}

// small keeps boxes clear of the upright correction.
var small = detection.Box{X1: 0, Y1: 0, X2: 40, Y2: 20}

func TestTracker_MajorityOverWindow(t *testing.T) {
	tr := newTestTracker(DefaultConfig())

	var last []Observation
	for i, label := range []string{"dog", "dog", "person", "dog", "dog", "dog", "dog"} {
		last = tr.Update(Frame{Index: i, Width: 640, Height: 480,
			Detections: []detection.Detection{tracked(1, label, small)}})
	}

	if last[0].SmoothedLabel != "dog" {
		t.Errorf("SmoothedLabel: got %q, want dog", last[0].SmoothedLabel)
	}
	obj, ok := tr.Get(1)
	if !ok {
		t.Fatal("track 1 should be live")
	}
	if diff := cmp.Diff([]string{"dog", "dog", "person", "dog", "dog", "dog", "dog"}, obj.History); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
}

func TestTracker_HistoryBounded(t *testing.T) {
	tr := newTestTracker(DefaultConfig())

	labels := []string{"cat", "cat", "cat", "cat", "cat", "dog", "dog", "dog", "dog", "dog"}
	for i, l := range labels {
		tr.Update(Frame{Index: i, Width: 640, Height: 480,
			Detections: []detection.Detection{tracked(3, l, small)}})
	}

	obj, _ := tr.Get(3)
	if len(obj.History) != 7 {
		t.Fatalf("History length: got %d, want 7", len(obj.History))
	}
	// Last 7: cat cat dog dog dog dog dog
	if obj.SmoothedLabel != "dog" {
		t.Errorf("SmoothedLabel: got %q, want dog", obj.SmoothedLabel)
	}
}

func TestTracker_TieGoesToMostRecent(t *testing.T) {
	tr := newTestTracker(DefaultConfig())

	var obs []Observation
	for i, l := range []string{"cat", "dog", "dog", "cat"} {
		obs = tr.Update(Frame{Index: i, Width: 640, Height: 480,
			Detections: []detection.Detection{tracked(1, l, small)}})
	}
	if obs[0].SmoothedLabel != "cat" {
		t.Errorf("2-2 tie should go to most recent (cat), got %q", obs[0].SmoothedLabel)
	}
}

func TestTracker_PrevCenter(t *testing.T) {
	tr := newTestTracker(DefaultConfig())

	first := tr.Update(Frame{Index: 0, Width: 640, Height: 480,
		Detections: []detection.Detection{tracked(1, "car", detection.Box{X1: 0, Y1: 0, X2: 20, Y2: 20})}})
	if first[0].PrevCenter != nil {
		t.Errorf("first sighting should have no previous center, got %+v", first[0].PrevCenter)
	}

	second := tr.Update(Frame{Index: 1, Width: 640, Height: 480,
		Detections: []detection.Detection{tracked(1, "car", detection.Box{X1: 50, Y1: 0, X2: 70, Y2: 20})}})
	if second[0].PrevCenter == nil {
		t.Fatal("second sighting should carry previous center")
	}
	if *second[0].PrevCenter != (detection.Point{X: 10, Y: 10}) {
		t.Errorf("PrevCenter: got %+v", *second[0].PrevCenter)
	}
	if second[0].Center != (detection.Point{X: 60, Y: 10}) {
		t.Errorf("Center: got %+v", second[0].Center)
	}
}

func TestTracker_ReleasesUnreportedTracks(t *testing.T) {
	tr := newTestTracker(DefaultConfig())

	tr.Update(Frame{Index: 0, Width: 640, Height: 480, Detections: []detection.Detection{
		tracked(1, "dog", small), tracked(2, "cat", small),
	}})
	if tr.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", tr.Len())
	}

	tr.Update(Frame{Index: 1, Width: 640, Height: 480, Detections: []detection.Detection{tracked(2, "cat", small)}})
	if tr.Len() != 1 {
		t.Fatalf("Len after drop: got %d, want 1", tr.Len())
	}
	if _, ok := tr.Get(1); ok {
		t.Error("track 1 should be released")
	}

	// Reappearing id starts fresh: no previous center, new history.
	obs := tr.Update(Frame{Index: 2, Width: 640, Height: 480, Detections: []detection.Detection{
		tracked(1, "horse", small), tracked(2, "cat", small),
	}})
	if obs[0].PrevCenter != nil {
		t.Error("reused id should not inherit previous center")
	}
	obj, _ := tr.Get(1)
	if diff := cmp.Diff([]string{"horse"}, obj.History); diff != "" {
		t.Errorf("reused slot kept stale history (-want +got):\n%s", diff)
	}
	if len(tr.records) != 2 {
		t.Errorf("arena should reuse slots, has %d records", len(tr.records))
	}
}

func TestTracker_ReleaseIgnoresFrameIndex(t *testing.T) {
	tests := []struct {
		name    string
		indices []int
	}{
		{"repeated index", []int{5, 5}},
		{"index restarts", []int{3, 0}},
		{"all zero", []int{0, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTestTracker(DefaultConfig())
			tr.Update(Frame{Index: tc.indices[0], Width: 640, Height: 480, Detections: []detection.Detection{
				tracked(1, "dog", small), tracked(2, "cat", small),
			}})
			tr.Update(Frame{Index: tc.indices[1], Width: 640, Height: 480, Detections: []detection.Detection{
				tracked(2, "cat", small),
			}})

			if _, ok := tr.Get(1); ok {
				t.Error("track 1 was not reported and should be released")
			}
			if tr.Len() != 1 {
				t.Errorf("Len: got %d, want 1", tr.Len())
			}
		})
	}
}

func TestTracker_UntrackedPassThrough(t *testing.T) {
	tr := newTestTracker(DefaultConfig())

	det := detection.Detection{Box: small, Label: "dog", Confidence: 0.5}
	for i := 0; i < 3; i++ {
		obs := tr.Update(Frame{Index: i, Width: 640, Height: 480, Detections: []detection.Detection{det}})
		if obs[0].PrevCenter != nil {
			t.Errorf("frame %d: untracked detection got a previous center", i)
		}
		if obs[0].SmoothedLabel != "dog" || obs[0].Label != "dog" {
			t.Errorf("frame %d: labels changed: %+v", i, obs[0])
		}
	}
	if tr.Len() != 0 {
		t.Errorf("untracked detections should not create tracks, got %d", tr.Len())
	}
}

func TestTracker_UprightCorrection(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		box       detection.Box
		corrected bool
	}{
		// Frame height 480: tall means > 168 px.
		{"reared dog", "dog", detection.Box{X1: 0, Y1: 0, X2: 100, Y2: 200}, true},
		{"short dog", "dog", detection.Box{X1: 0, Y1: 0, X2: 100, Y2: 150}, false},
		{"wide dog", "dog", detection.Box{X1: 0, Y1: 0, X2: 200, Y2: 200}, false},
		{"exact aspect", "dog", detection.Box{X1: 0, Y1: 0, X2: 200, Y2: 220}, false},
		{"not confusable", "car", detection.Box{X1: 0, Y1: 0, X2: 100, Y2: 200}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTestTracker(DefaultConfig())
			obs := tr.Update(Frame{Index: 0, Width: 640, Height: 480,
				Detections: []detection.Detection{tracked(1, tc.label, tc.box)}})

			if obs[0].Corrected != tc.corrected {
				t.Fatalf("Corrected: got %v, want %v", obs[0].Corrected, tc.corrected)
			}
			if tc.corrected && obs[0].Label != "person" {
				t.Errorf("Label: got %q, want person", obs[0].Label)
			}
			if obs[0].SmoothedLabel != tc.label {
				t.Errorf("SmoothedLabel must stay %q, got %q", tc.label, obs[0].SmoothedLabel)
			}
		})
	}
}

func TestTracker_CorrectionDoesNotRewriteHistory(t *testing.T) {
	tr := newTestTracker(DefaultConfig())
	tall := detection.Box{X1: 0, Y1: 0, X2: 100, Y2: 300}

	tr.Update(Frame{Index: 0, Width: 640, Height: 480, Detections: []detection.Detection{tracked(9, "dog", tall)}})
	obj, _ := tr.Get(9)
	if obj.SmoothedLabel != "dog" || obj.History[0] != "dog" {
		t.Errorf("history should keep raw label, got %+v", obj)
	}
}

func TestTracker_NoCorrectionConfig(t *testing.T) {
	tr := newTestTracker(NoCorrectionConfig())
	tall := detection.Box{X1: 0, Y1: 0, X2: 100, Y2: 300}

	obs := tr.Update(Frame{Index: 0, Width: 640, Height: 480, Detections: []detection.Detection{tracked(1, "dog", tall)}})
	if obs[0].Corrected {
		t.Error("correction should be disabled")
	}
}

func TestTracker_TracksSortedAndReset(t *testing.T) {
	tr := newTestTracker(DefaultConfig())
	tr.Update(Frame{Index: 0, Width: 640, Height: 480, Detections: []detection.Detection{
		tracked(5, "dog", small), tracked(2, "cat", small), tracked(9, "car", small),
	}})

	var got []int
	for _, o := range tr.Tracks() {
		got = append(got, o.TrackID)
	}
	if diff := cmp.Diff([]int{2, 5, 9}, got); diff != "" {
		t.Errorf("Tracks order (-want +got):\n%s", diff)
	}

	tr.Reset()
	if tr.Len() != 0 || len(tr.Tracks()) != 0 {
		t.Error("Reset should drop all tracks")
	}
}
