package detection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFuse_Empty(t *testing.T) {
	got := Fuse(nil, DefaultIoUThreshold)
	if got == nil || len(got) != 0 {
		t.Errorf("Fuse(nil): got %#v, want empty non-nil slice", got)
	}
}

func TestFuse_NoOverlapKeepsAll(t *testing.T) {
	in := []Detection{
		{Box: Box{0, 0, 10, 10}, Confidence: 0.9, Label: "dog", SourceID: "a"},
		{Box: Box{100, 100, 120, 120}, Confidence: 0.8, Label: "car", SourceID: "a"},
		{Box: Box{200, 0, 220, 40}, Confidence: 0.7, Label: "person", SourceID: "a"},
	}

	got := Fuse(in, DefaultIoUThreshold)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("Fuse mismatch (-want +got):\n%s", diff)
	}
}

func TestFuse_KeepsHigherConfidenceAcrossSources(t *testing.T) {
	low := Detection{Box: Box{0, 0, 100, 100}, Confidence: 0.6, Label: "dog", SourceID: "coco"}
	high := Detection{Box: Box{2, 2, 102, 102}, Confidence: 0.9, Label: "cat", SourceID: "custom"}

	got := Fuse([]Detection{low, high}, DefaultIoUThreshold)
	if len(got) != 1 {
		t.Fatalf("Fuse: got %d detections, want 1", len(got))
	}
	if diff := cmp.Diff(high, got[0]); diff != "" {
		t.Errorf("winner mismatch (-want +got):\n%s", diff)
	}
}

func TestFuse_ThresholdIsInclusive(t *testing.T) {
	// IoU of these boxes is exactly 0.5: kept.
	a := Detection{Box: Box{0, 0, 10, 10}, Confidence: 0.9, SourceID: "a"}
	b := Detection{Box: Box{0, 0, 5, 10}, Confidence: 0.8, SourceID: "b"}

	if got := Fuse([]Detection{a, b}, DefaultIoUThreshold); len(got) != 2 {
		t.Errorf("IoU == threshold should keep both, got %d", len(got))
	}
}

func TestFuse_TiesKeepEncounterOrder(t *testing.T) {
	first := Detection{Box: Box{0, 0, 10, 10}, Confidence: 0.8, Label: "first"}
	second := Detection{Box: Box{0, 0, 10, 10}, Confidence: 0.8, Label: "second"}

	got := Fuse([]Detection{first, second}, DefaultIoUThreshold)
	if len(got) != 1 || got[0].Label != "first" {
		t.Errorf("tie should keep first encountered, got %+v", got)
	}
}

func TestFuse_DegenerateNeverSuppresses(t *testing.T) {
	dets := []Detection{
		{Box: Box{5, 5, 5, 5}, Confidence: 0.99, Label: "speck"},
		{Box: Box{0, 0, 10, 10}, Confidence: 0.5, Label: "dog"},
	}

	got := Fuse(dets, DefaultIoUThreshold)
	if len(got) != 2 {
		t.Errorf("degenerate box should not suppress overlap, got %+v", got)
	}
}

func TestFuse_DoesNotMutateInput(t *testing.T) {
	in := []Detection{
		{Box: Box{0, 0, 10, 10}, Confidence: 0.1, Label: "a"},
		{Box: Box{50, 50, 60, 60}, Confidence: 0.9, Label: "b"},
	}
	before := append([]Detection(nil), in...)

	_ = Fuse(in, DefaultIoUThreshold)
	if diff := cmp.Diff(before, in); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestFilters(t *testing.T) {
	in := []Detection{
		{Box: Box{0, 0, 10, 10}, Confidence: 0.3, Label: "dog"},
		{Box: Box{0, 0, 2, 2}, Confidence: 0.9, Label: "dog"},
		{Box: Box{0, 0, 20, 20}, Confidence: 0.8, Label: "car"},
		{Box: Box{0, 0, 0, 20}, Confidence: 0.8, Label: "car"},
	}

	if got := NewScoreFilter(0.4)(in); len(got) != 3 {
		t.Errorf("ScoreFilter: got %d, want 3", len(got))
	}
	if got := NewAreaFilter(50)(in); len(got) != 2 {
		t.Errorf("AreaFilter: got %d, want 2", len(got))
	}
	if got := NewLabelFilter("car")(in); len(got) != 2 {
		t.Errorf("LabelFilter: got %d, want 2", len(got))
	}
	if got := NewLabelFilter()(in); len(got) != len(in) {
		t.Errorf("empty LabelFilter should keep all, got %d", len(got))
	}

	composed := Compose(NewScoreFilter(0.4), nil, NewAreaFilter(50))
	got := composed(in)
	if len(got) != 1 || got[0].Label != "car" {
		t.Errorf("Compose: got %+v", got)
	}
}
