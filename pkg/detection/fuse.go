package detection

import "sort"

// DefaultIoUThreshold is the overlap above which two detections are
// considered the same object.
const DefaultIoUThreshold = 0.5

// Fuse merges the detections of one frame from any number of sources into
// a deduplicated list.
//
// Detections are visited by confidence, highest first, ties in encounter
// order. A detection is kept only if its IoU with every detection already
// kept is <= threshold. Winners keep their whole box; nothing is averaged.
// The input slice is not modified.
func Fuse(dets []Detection, threshold float64) []Detection {
	if len(dets) == 0 {
		return []Detection{}
	}

	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Detection, 0, len(sorted))
	for _, d := range sorted {
		if overlapsAny(d, kept, threshold) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

func overlapsAny(d Detection, kept []Detection, threshold float64) bool {
	for _, k := range kept {
		if d.Box.IoU(k.Box) > threshold {
			return true
		}
	}
	return false
}
