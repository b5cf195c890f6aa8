package detection

// Postprocessor filters or modifies the detections of one frame.
type Postprocessor func([]Detection) []Detection

// NewScoreFilter drops detections below the given confidence.
func NewScoreFilter(conf float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Confidence >= conf {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewAreaFilter drops detections whose box area is below minArea pixels.
// Degenerate boxes are always dropped.
func NewAreaFilter(minArea float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if !d.Box.Degenerate() && d.Box.Area() >= minArea {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewLabelFilter keeps only detections whose label is in the allow list.
// An empty allow list keeps everything.
func NewLabelFilter(allow ...string) Postprocessor {
	if len(allow) == 0 {
		return func(in []Detection) []Detection { return in }
	}
	set := make(map[string]struct{}, len(allow))
	for _, l := range allow {
		set[l] = struct{}{}
	}
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if _, ok := set[d.Label]; ok {
				out = append(out, d)
			}
		}
		return out
	}
}

// Compose chains postprocessors left to right. Nil entries are skipped.
func Compose(steps ...Postprocessor) Postprocessor {
	return func(in []Detection) []Detection {
		for _, step := range steps {
			if step != nil {
				in = step(in)
			}
		}
		return in
	}
}
