// Package tracking maintains per-identity state across frames: label
// smoothing over a short window and the previous centroid used for motion.
package tracking

import (
	"log/slog"
	"sort"

	"github.com/teslashibe/go-hazardcam/pkg/detection"
)

// Frame is one frame's detections plus the frame geometry.
type Frame struct {
	Index      int
	Width      int
	Height     int
	Detections []detection.Detection
}

// Observation is a detection enriched with track state for this frame.
type Observation struct {
	detection.Detection

	// SmoothedLabel is the majority label over the track history, or the
	// raw label for untracked detections.
	SmoothedLabel string

	// Label is the label hazard rules should use. It differs from
	// SmoothedLabel only when the upright-silhouette correction fired.
	Label     string
	Corrected bool

	Center     detection.Point
	PrevCenter *detection.Point // nil when the identity has no earlier center
}

// TrackedObject is a snapshot of one live track.
type TrackedObject struct {
	TrackID       int              `json:"track_id"`
	SmoothedLabel string           `json:"label"`
	History       []string         `json:"history"`
	LastCenter    *detection.Point `json:"last_center,omitempty"`
	LastSeenFrame int              `json:"last_seen_frame"`
}

// record is one arena slot.
type record struct {
	trackID   int
	history   labelHistory
	smoothed  string
	center    detection.Point
	hasCenter bool
	lastSeen  int    // Frame.Index, for snapshots
	seenGen   uint64 // Update call that last reported this track
}

// Tracker keeps identity state keyed by detector-provided track ids.
// Records live in a reusable arena; a track is released on the first frame
// its id is not reported. Not safe for concurrent use: it is owned by the
// frame loop.
type Tracker struct {
	config     Config
	confusable map[string]bool
	logger     *slog.Logger

	records []record
	index   map[int]int // track id -> arena slot
	free    []int

	// gen counts Update calls. Staleness is judged by it rather than by
	// Frame.Index, which callers may repeat or reset.
	gen uint64
}

// New creates a tracker.
func New(config Config) *Tracker {
	if config.HistorySize < 1 {
		config.HistorySize = DefaultConfig().HistorySize
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	confusable := make(map[string]bool, len(config.PersonConfusable))
	for _, l := range config.PersonConfusable {
		confusable[l] = true
	}

	return &Tracker{
		config:     config,
		confusable: confusable,
		logger:     config.Logger.With("component", "tracking"),
		index:      make(map[int]int),
	}
}

// Update folds one frame into the track table and returns one observation
// per detection, in input order. Detections without a track id pass
// through statelessly.
func (t *Tracker) Update(frame Frame) []Observation {
	t.gen++
	obs := make([]Observation, len(frame.Detections))

	for i, det := range frame.Detections {
		o := Observation{
			Detection:     det,
			SmoothedLabel: det.Label,
			Center:        det.Box.Center(),
		}
		if det.TrackID != nil {
			t.observe(&o, *det.TrackID, frame.Index)
		}
		o.Label = o.SmoothedLabel
		if t.looksUpright(o.SmoothedLabel, det.Box, frame.Height) {
			o.Label = detection.LabelPerson
			o.Corrected = true
		}
		obs[i] = o
	}

	t.releaseStale()
	return obs
}

func (t *Tracker) observe(o *Observation, id, frameIndex int) {
	slot, ok := t.index[id]
	if !ok {
		slot = t.alloc(id)
	}
	r := &t.records[slot]

	r.history.push(o.Detection.Label)
	r.smoothed = r.history.majority()
	if r.hasCenter {
		prev := r.center
		o.PrevCenter = &prev
	}
	r.center = o.Center
	r.hasCenter = true
	r.lastSeen = frameIndex
	r.seenGen = t.gen

	o.SmoothedLabel = r.smoothed
}

// alloc returns an arena slot for a new track id, reusing a freed one.
func (t *Tracker) alloc(id int) int {
	var slot int
	if n := len(t.free); n > 0 {
		slot = t.free[n-1]
		t.free = t.free[:n-1]
		t.records[slot].history.reset()
	} else {
		t.records = append(t.records, record{history: newLabelHistory(t.config.HistorySize)})
		slot = len(t.records) - 1
	}

	r := &t.records[slot]
	r.trackID = id
	r.smoothed = ""
	r.hasCenter = false
	t.index[id] = slot

	t.logger.Debug("track started", "track_id", id)
	return slot
}

// releaseStale frees every track not reported by the current Update.
func (t *Tracker) releaseStale() {
	for id, slot := range t.index {
		if t.records[slot].seenGen == t.gen {
			continue
		}
		delete(t.index, id)
		t.free = append(t.free, slot)
		t.logger.Debug("track ended", "track_id", id)
	}
}

// looksUpright reports whether a person-confusable label should be read as
// a person for this frame.
func (t *Tracker) looksUpright(label string, box detection.Box, frameHeight int) bool {
	if !t.confusable[label] || frameHeight <= 0 || box.Degenerate() {
		return false
	}
	h, w := box.Height(), box.Width()
	return h > t.config.TallRatio*float64(frameHeight) && h > t.config.AspectRatio*w
}

// Len returns the number of live tracks.
func (t *Tracker) Len() int {
	return len(t.index)
}

// Get returns a snapshot of one live track.
func (t *Tracker) Get(id int) (TrackedObject, bool) {
	slot, ok := t.index[id]
	if !ok {
		return TrackedObject{}, false
	}
	return t.snapshot(slot), true
}

// Tracks returns snapshots of all live tracks ordered by id.
func (t *Tracker) Tracks() []TrackedObject {
	out := make([]TrackedObject, 0, len(t.index))
	for _, slot := range t.index {
		out = append(out, t.snapshot(slot))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out
}

// Reset drops every track.
func (t *Tracker) Reset() {
	t.records = t.records[:0]
	t.free = t.free[:0]
	clear(t.index)
}

func (t *Tracker) snapshot(slot int) TrackedObject {
	r := &t.records[slot]
	obj := TrackedObject{
		TrackID:       r.trackID,
		SmoothedLabel: r.smoothed,
		History:       r.history.labels(),
		LastSeenFrame: r.lastSeen,
	}
	if r.hasCenter {
		c := r.center
		obj.LastCenter = &c
	}
	return obj
}
