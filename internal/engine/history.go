package engine

// DefaultHistoryCapacity is how many grid snapshots undo keeps
const DefaultHistoryCapacity = 100

// History is a bounded stack of grid snapshots. pushing past capacity drops
// the oldest snapshot.
type History struct {
	capacity  int
	snapshots [][]string
}

// NewHistory creates a history holding at most capacity snapshots
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Push stores a copy of cells
func (h *History) Push(cells []string) {
	if len(h.snapshots) >= h.capacity {
		h.snapshots = h.snapshots[1:]
	}
	h.snapshots = append(h.snapshots, append([]string(nil), cells...))
}

// Pop removes and returns the most recent snapshot
func (h *History) Pop() ([]string, bool) {
	if len(h.snapshots) == 0 {
		return nil, false
	}
	last := h.snapshots[len(h.snapshots)-1]
	h.snapshots[len(h.snapshots)-1] = nil
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	return last, true
}

// Len returns the number of stored snapshots
func (h *History) Len() int {
	return len(h.snapshots)
}

// Clear drops every snapshot
func (h *History) Clear() {
	clear(h.snapshots)
	h.snapshots = h.snapshots[:0]
}
