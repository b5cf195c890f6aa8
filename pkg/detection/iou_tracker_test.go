package detection

import "testing"

func ids(dets []Detection) []int {
	out := make([]int, len(dets))
	for i, d := range dets {
		out[i] = *d.TrackID
	}
	return out
}

func TestIOUTracker_KeepsIdentityAcrossFrames(t *testing.T) {
	inner := NewMockDetector("yolo",
		[]Detection{
			{Box: Box{0, 0, 100, 100}, Label: "dog"},
			{Box: Box{300, 0, 400, 100}, Label: "car"},
		},
		[]Detection{
			// Order swapped and boxes nudged.
			{Box: Box{305, 0, 405, 100}, Label: "car"},
			{Box: Box{5, 0, 105, 100}, Label: "cat"},
		},
	)
	tr := NewIOUTracker(inner, DefaultIOUTrackerConfig())

	first, err := tr.Detect(nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	second, _ := tr.Detect(nil)

	f, s := ids(first), ids(second)
	if f[0] == f[1] {
		t.Fatalf("distinct objects got the same id: %v", f)
	}
	if s[0] != f[1] || s[1] != f[0] {
		t.Errorf("identities not carried over: first=%v second=%v", f, s)
	}
}

func TestIOUTracker_NewObjectGetsFreshID(t *testing.T) {
	tr := NewIOUTracker(NewMockDetector("m"), DefaultIOUTrackerConfig())

	a := tr.Assign([]Detection{{Box: Box{0, 0, 10, 10}}})
	b := tr.Assign([]Detection{{Box: Box{500, 500, 510, 510}}})

	if *a[0].TrackID == *b[0].TrackID {
		t.Errorf("non-overlapping object reused id %d", *a[0].TrackID)
	}
}

func TestIOUTracker_MaxMisses(t *testing.T) {
	cfg := DefaultIOUTrackerConfig()
	cfg.MaxMisses = 1
	tr := NewIOUTracker(NewMockDetector("m"), cfg)

	box := Box{0, 0, 10, 10}
	first := tr.Assign([]Detection{{Box: box}})
	tr.Assign(nil) // one miss tolerated
	again := tr.Assign([]Detection{{Box: box}})

	if *again[0].TrackID != *first[0].TrackID {
		t.Errorf("track should survive one miss: %d vs %d", *first[0].TrackID, *again[0].TrackID)
	}

	tr.Assign(nil)
	tr.Assign(nil)
	late := tr.Assign([]Detection{{Box: box}})
	if *late[0].TrackID == *first[0].TrackID {
		t.Error("track should be retired after exceeding MaxMisses")
	}
}
