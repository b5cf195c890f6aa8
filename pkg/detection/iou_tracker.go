package detection

import (
	"sort"
	"sync"
)

// IOUTrackerConfig configures identity assignment.
type IOUTrackerConfig struct {
	MinIoU    float64 // Minimum overlap to continue a track (default 0.3)
	MaxMisses int     // Frames a track may go unseen before its id is retired
}

// DefaultIOUTrackerConfig returns production defaults.
func DefaultIOUTrackerConfig() IOUTrackerConfig {
	return IOUTrackerConfig{
		MinIoU:    0.3,
		MaxMisses: 0,
	}
}

type liveTrack struct {
	id     int
	box    Box
	misses int
}

// IOUTracker wraps a Detector and assigns persistent track ids by greedy
// IoU matching against the boxes seen on the previous frame.
type IOUTracker struct {
	inner Detector
	cfg   IOUTrackerConfig

	mu     sync.Mutex
	tracks []liveTrack
	nextID int
}

// NewIOUTracker makes inner act as a tracker.
func NewIOUTracker(inner Detector, cfg IOUTrackerConfig) *IOUTracker {
	if cfg.MinIoU <= 0 {
		cfg.MinIoU = DefaultIOUTrackerConfig().MinIoU
	}
	return &IOUTracker{inner: inner, cfg: cfg, nextID: 1}
}

// Name implements Detector.
func (t *IOUTracker) Name() string {
	return t.inner.Name()
}

// Detect runs the wrapped detector and stamps each detection with a track id.
func (t *IOUTracker) Detect(jpeg []byte) ([]Detection, error) {
	dets, err := t.inner.Detect(jpeg)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.assign(dets), nil
}

// Assign stamps ids onto externally produced detections. It shares state
// with Detect.
func (t *IOUTracker) Assign(dets []Detection) []Detection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.assign(dets)
}

type pair struct {
	track, det int
	iou        float64
}

func (t *IOUTracker) assign(dets []Detection) []Detection {
	var pairs []pair
	for ti, tr := range t.tracks {
		for di, d := range dets {
			if iou := tr.box.IoU(d.Box); iou >= t.cfg.MinIoU {
				pairs = append(pairs, pair{ti, di, iou})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].iou > pairs[j].iou })

	trackUsed := make([]bool, len(t.tracks))
	detID := make([]int, len(dets))
	for _, p := range pairs {
		if trackUsed[p.track] || detID[p.det] != 0 {
			continue
		}
		trackUsed[p.track] = true
		detID[p.det] = t.tracks[p.track].id
	}

	next := make([]liveTrack, 0, len(dets)+len(t.tracks))
	for ti, tr := range t.tracks {
		if trackUsed[ti] {
			continue
		}
		tr.misses++
		if tr.misses <= t.cfg.MaxMisses {
			next = append(next, tr)
		}
	}

	out := make([]Detection, len(dets))
	for di, d := range dets {
		id := detID[di]
		if id == 0 {
			id = t.nextID
			t.nextID++
		}
		next = append(next, liveTrack{id: id, box: d.Box})
		out[di] = d.WithTrack(id)
	}
	t.tracks = next
	return out
}

// Close closes the wrapped detector.
func (t *IOUTracker) Close() error {
	return t.inner.Close()
}

// Verify IOUTracker implements Detector at compile time.
var _ Detector = (*IOUTracker)(nil)
