// Package detection defines per-frame object detections, the Detector
// interface, and cross-source fusion of overlapping detections.
package detection

import (
	"errors"
	"math"
)

// ErrModelNotFound is returned when a detector model file is missing.
var ErrModelNotFound = errors.New("detection: model file not found")

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X1, Y1 float64 // Top-left corner
	X2, Y2 float64 // Bottom-right corner
}

// Point is a pixel position.
type Point struct {
	X, Y float64
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Width returns the box width (negative for inverted boxes).
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the box height (negative for inverted boxes).
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Degenerate reports whether the box has zero or negative area.
func (b Box) Degenerate() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// Area returns the area of the box, 0 for degenerate boxes.
func (b Box) Area() float64 {
	if b.Degenerate() {
		return 0
	}
	return b.Width() * b.Height()
}

// Center returns the centroid of the box.
func (b Box) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// IoU returns the intersection-over-union of two boxes.
// Non-overlapping or degenerate boxes yield 0.
func (b Box) IoU(other Box) float64 {
	if b.Degenerate() || other.Degenerate() {
		return 0
	}

	x1 := max(b.X1, other.X1)
	y1 := max(b.Y1, other.Y1)
	x2 := min(b.X2, other.X2)
	y2 := min(b.Y2, other.Y2)

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := b.Area() + other.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// Detection is one detector's report of one object in one frame.
type Detection struct {
	Box        Box
	Confidence float64 // 0-1
	Label      string
	SourceID   string // Detector that produced it
	TrackID    *int   // Persistent identity, nil when the source does not track
}

// HasTrack reports whether the detection carries a track identity.
func (d Detection) HasTrack() bool {
	return d.TrackID != nil
}

// WithTrack returns a copy of d with the given track id.
func (d Detection) WithTrack(id int) Detection {
	d.TrackID = &id
	return d
}

// Detector is the interface for object detection backends.
type Detector interface {
	// Detect finds objects in the JPEG image. Boxes are in pixels of the
	// decoded image.
	Detect(jpeg []byte) ([]Detection, error)

	// Name identifies the detector; used as the SourceID of its detections.
	Name() string

	// Close releases resources.
	Close() error
}
