package tracking

// labelHistory is a fixed-capacity ring of the most recent raw labels.
type labelHistory struct {
	buf   []string
	head  int // Next write position
	count int
}

func newLabelHistory(size int) labelHistory {
	return labelHistory{buf: make([]string, size)}
}

func (h *labelHistory) push(label string) {
	h.buf[h.head] = label
	h.head = (h.head + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

func (h *labelHistory) reset() {
	clear(h.buf)
	h.head = 0
	h.count = 0
}

func (h *labelHistory) len() int {
	return h.count
}

// at returns the i-th label counting back from the newest (0 = newest).
func (h *labelHistory) at(i int) string {
	idx := (h.head - 1 - i + 2*len(h.buf)) % len(h.buf)
	return h.buf[idx]
}

// labels returns the history oldest first.
func (h *labelHistory) labels() []string {
	out := make([]string, h.count)
	for i := 0; i < h.count; i++ {
		out[h.count-1-i] = h.at(i)
	}
	return out
}

// majority returns the most frequent label. Ties go to whichever of the
// tied labels was observed most recently.
func (h *labelHistory) majority() string {
	if h.count == 0 {
		return ""
	}

	counts := make(map[string]int, h.count)
	best := 0
	for i := 0; i < h.count; i++ {
		l := h.at(i)
		counts[l]++
		best = max(best, counts[l])
	}

	for i := 0; i < h.count; i++ {
		if l := h.at(i); counts[l] == best {
			return l
		}
	}
	return h.at(0)
}
