package dsp

import "sync"

const defaultHistoryCapacity = 50

// History is a bounded chronological sequence of band frames. The
// pipeline is its only writer; renderers read through snapshots, so a
// slow renderer never delays analysis for more than a copy.
type History struct {
	mu     sync.RWMutex
	frames []BandFrame
	cap    int
}

// NewHistory creates a History retaining at most capacity frames.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	return &History{
		frames: make([]BandFrame, 0, capacity),
		cap:    capacity,
	}
}

// Capacity returns the configured maximum frame count.
func (h *History) Capacity() int {
	return h.cap
}

// Len returns the current number of retained frames.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.frames)
}

// Push appends a frame, evicting the oldest when full.
func (h *History) Push(frame BandFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.frames) == h.cap {
		n := copy(h.frames, h.frames[1:])
		h.frames = h.frames[:n]
	}
	h.frames = append(h.frames, frame)
}

// Current returns the most recently pushed frame, or false when empty.
func (h *History) Current() (BandFrame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.frames) == 0 {
		return nil, false
	}
	return h.frames[len(h.frames)-1], true
}

// Snapshot returns a copy of the retained frames, oldest first. The
// frames themselves are shared; they are never mutated after Push.
func (h *History) Snapshot() []BandFrame {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]BandFrame, len(h.frames))
	copy(out, h.frames)
	return out
}

// FadeWeight derives the render opacity for a frame from its age, the
// distance from the newest frame. The newest frame weighs 0.5 and the
// weight decays linearly to zero as age approaches capacity.
func FadeWeight(age, capacity int) float64 {
	if capacity <= 0 || age < 0 {
		return 0
	}
	w := 0.5 * (1.0 - float64(age)/float64(capacity))
	if w < 0 {
		return 0
	}
	return w
}

// FadeEpsilon is the conventional threshold below which renderers skip
// drawing a history layer.
const FadeEpsilon = 0.05
