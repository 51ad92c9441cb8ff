package dsp

import "sync"

const defaultSampleBufferCapacity = 4096

// SampleBuffer is a bounded FIFO of mono samples shared between the audio
// callback (producer) and the analysis loop (consumer). The producer side
// never blocks: if the lock is contended the push is skipped for that
// callback invocation and counted as dropped.
type SampleBuffer struct {
	mu      sync.Mutex
	samples []float32
	cap     int

	evicted uint64
}

// NewSampleBuffer creates a buffer holding at most capacity samples.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity <= 0 {
		capacity = defaultSampleBufferCapacity
	}
	return &SampleBuffer{
		samples: make([]float32, 0, capacity),
		cap:     capacity,
	}
}

// Capacity returns the configured maximum sample count.
func (b *SampleBuffer) Capacity() int {
	return b.cap
}

// Len returns the current number of buffered samples.
func (b *SampleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// TryPush appends samples to the tail, evicting the oldest excess so the
// length never exceeds capacity. It reports false without touching the
// buffer when the lock cannot be acquired immediately, so the real-time
// callback is never stalled by a slow consumer.
func (b *SampleBuffer) TryPush(in []float32) bool {
	if len(in) == 0 {
		return true
	}
	if !b.mu.TryLock() {
		return false
	}
	defer b.mu.Unlock()

	if len(in) >= b.cap {
		b.evicted += uint64(len(b.samples) + len(in) - b.cap)
		b.samples = append(b.samples[:0], in[len(in)-b.cap:]...)
		return true
	}

	b.samples = append(b.samples, in...)
	if excess := len(b.samples) - b.cap; excess > 0 {
		b.evicted += uint64(excess)
		n := copy(b.samples, b.samples[excess:])
		b.samples = b.samples[:n]
	}
	return true
}

// DrainFrame removes and returns the oldest n samples as a freshly
// allocated frame. When fewer than n samples are buffered it returns
// (nil, false) and leaves the buffer unchanged. The copy lets the caller
// run the FFT without holding the lock.
func (b *SampleBuffer) DrainFrame(n int) ([]float32, bool) {
	if n <= 0 {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.samples) < n {
		return nil, false
	}

	frame := make([]float32, n)
	copy(frame, b.samples[:n])
	rest := copy(b.samples, b.samples[n:])
	b.samples = b.samples[:rest]
	return frame, true
}

// Evicted returns the total number of samples dropped by FIFO eviction.
func (b *SampleBuffer) Evicted() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.evicted
}
