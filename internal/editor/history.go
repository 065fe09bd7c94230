package editor

// DefaultHistoryDepth bounds the undo stack when no depth is configured.
const DefaultHistoryDepth = 50

// History is a bounded stack of whole-document JSON snapshots. When full,
// the oldest snapshot is evicted.
type History struct {
	depth     int
	snapshots [][]byte
}

// NewHistory creates a stack holding at most depth snapshots.
// A non-positive depth falls back to DefaultHistoryDepth.
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &History{depth: depth}
}

// Push appends a snapshot, dropping the oldest one if the stack is full.
func (h *History) Push(snapshot []byte) {
	if len(h.snapshots) == h.depth {
		copy(h.snapshots, h.snapshots[1:])
		h.snapshots = h.snapshots[:h.depth-1]
	}
	h.snapshots = append(h.snapshots, snapshot)
}

// Pop removes and returns the newest snapshot.
func (h *History) Pop() ([]byte, bool) {
	if len(h.snapshots) == 0 {
		return nil, false
	}
	last := len(h.snapshots) - 1
	snapshot := h.snapshots[last]
	h.snapshots[last] = nil
	h.snapshots = h.snapshots[:last]
	return snapshot, true
}

func (h *History) Len() int { return len(h.snapshots) }
func (h *History) Depth() int { return h.depth }
