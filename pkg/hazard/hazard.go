// Package hazard turns tracked objects into candidate spoken alerts using
// simple proximity and motion heuristics.
//
// The thresholds are frame-geometry heuristics tuned for one camera
// framing, not physical measurements. They are exposed through Config so
// they can be retuned for other resolutions and lenses.
package hazard

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/samber/lo"
	"github.com/teslashibe/go-hazardcam/pkg/detection"
	"github.com/teslashibe/go-hazardcam/pkg/tracking"
	"gonum.org/v1/gonum/floats"
)

// Priority orders candidates; lower values are spoken first.
type Priority int

const (
	PriorityProximity Priority = iota
	PriorityMotion
	PriorityObstacle
)

// String returns the rule name.
func (p Priority) String() string {
	switch p {
	case PriorityProximity:
		return "proximity"
	case PriorityMotion:
		return "motion"
	case PriorityObstacle:
		return "obstacle"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Candidate is one alert produced by one rule on one frame.
type Candidate struct {
	Text     string   `json:"text"`
	Priority Priority `json:"priority"`
}

// Annotation is the per-object overlay record.
type Annotation struct {
	TrackID    *int          `json:"track_id,omitempty"`
	Label      string        `json:"label"`
	Confidence float64       `json:"confidence"`
	Box        detection.Box `json:"box"`
	Corrected  bool          `json:"corrected,omitempty"`
	Alerts     []string      `json:"alerts,omitempty"`
}

// Result is the analyzer output for one frame.
type Result struct {
	Candidates  []Candidate
	Annotations []Annotation
}

// Texts returns the candidate texts in order.
func (r Result) Texts() []string {
	return lo.Map(r.Candidates, func(c Candidate, _ int) string { return c.Text })
}

// Config holds the rule thresholds.
type Config struct {
	// ProximityRatio: box area / frame area above this is "very close".
	ProximityRatio float64

	// SpeedThreshold: centroid displacement in pixels per frame above this
	// is "fast moving". Depends on frame rate and resolution.
	SpeedThreshold float64

	// MinConfidence: observations below this are annotated but raise no
	// alerts. Zero disables the filter.
	MinConfidence float64

	// ObstacleRules enables the street-obstacle rules below.
	ObstacleRules    bool
	PoleHeightRatio  float64 // Pole box height / frame height
	VehicleAreaRatio float64 // Car or truck box area / frame area

	Logger *slog.Logger
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		ProximityRatio:   0.5,
		SpeedThreshold:   40,
		ObstacleRules:    false,
		PoleHeightRatio:  0.6,
		VehicleAreaRatio: 0.2,
		Logger:           slog.Default(),
	}
}

// StreetConfig returns defaults with the obstacle rules enabled.
func StreetConfig() Config {
	cfg := DefaultConfig()
	cfg.ObstacleRules = true
	return cfg
}

// ProximityText is the alert text for an object that fills the frame.
func ProximityText(label string) string {
	return fmt.Sprintf("Warning, %s very close.", label)
}

// MotionText is the alert text for a fast-moving object.
func MotionText(label string) string {
	return fmt.Sprintf("Caution, fast moving %s.", label)
}

// Analyzer evaluates hazard rules. It is stateless between frames.
type Analyzer struct {
	config Config
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(config Config) *Analyzer {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Analyzer{
		config: config,
		logger: config.Logger.With("component", "hazard"),
	}
}

// Analyze evaluates every observation of a frame. Candidates come back
// ordered by priority (stable within a priority) with exact duplicate
// texts collapsed.
func (a *Analyzer) Analyze(frameW, frameH int, obs []tracking.Observation) Result {
	frameArea := float64(frameW) * float64(frameH)

	var cands []Candidate
	annotations := make([]Annotation, 0, len(obs))

	for _, o := range obs {
		var hits []Candidate
		if o.Confidence >= a.config.MinConfidence {
			hits = a.proximity(hits, o, frameArea)
			hits = a.motion(hits, o)
			if a.config.ObstacleRules {
				hits = a.obstacle(hits, o, frameH, frameArea)
			}
		}

		annotations = append(annotations, Annotation{
			TrackID:    o.TrackID,
			Label:      o.Label,
			Confidence: o.Confidence,
			Box:        o.Box,
			Corrected:  o.Corrected,
			Alerts:     lo.Uniq(lo.Map(hits, func(c Candidate, _ int) string { return c.Text })),
		})
		cands = append(cands, hits...)
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Priority < cands[j].Priority })
	cands = lo.UniqBy(cands, func(c Candidate) string { return c.Text })

	if len(cands) > 0 {
		a.logger.Debug("hazards detected", "count", len(cands))
	}
	return Result{Candidates: cands, Annotations: annotations}
}

func (a *Analyzer) proximity(hits []Candidate, o tracking.Observation, frameArea float64) []Candidate {
	if frameArea <= 0 || o.Box.Degenerate() {
		return hits
	}
	if o.Box.Area()/frameArea > a.config.ProximityRatio {
		hits = append(hits, Candidate{Text: ProximityText(o.Label), Priority: PriorityProximity})
	}
	return hits
}

func (a *Analyzer) motion(hits []Candidate, o tracking.Observation) []Candidate {
	if o.PrevCenter == nil {
		return hits
	}
	d := floats.Distance(
		[]float64{o.Center.X, o.Center.Y},
		[]float64{o.PrevCenter.X, o.PrevCenter.Y},
		2,
	)
	if d > a.config.SpeedThreshold {
		hits = append(hits, Candidate{Text: MotionText(o.Label), Priority: PriorityMotion})
	}
	return hits
}

func (a *Analyzer) obstacle(hits []Candidate, o tracking.Observation, frameH int, frameArea float64) []Candidate {
	if o.Box.Degenerate() {
		return hits
	}
	switch {
	case o.Label == "pole" && frameH > 0:
		if o.Box.Height() > a.config.PoleHeightRatio*float64(frameH) {
			hits = append(hits, Candidate{Text: ProximityText(o.Label), Priority: PriorityObstacle})
		}
	case o.Label == "car" || o.Label == "truck":
		if frameArea > 0 && o.Box.Area() > a.config.VehicleAreaRatio*frameArea {
			hits = append(hits, Candidate{Text: ProximityText(o.Label), Priority: PriorityObstacle})
		}
	}
	return hits
}
