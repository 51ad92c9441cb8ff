package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq, sampleRate float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
	}
	return out
}

func TestPipelineEmpty(t *testing.T) {
	p := New(Config{})

	assert.False(t, p.Step(), "no samples buffered")
	_, ok := p.CurrentBandFrame()
	assert.False(t, ok, "no frame before any analysis")
	assert.Empty(t, p.History())
	assert.Zero(t, p.Stats().AnalyzedFrames)
}

func TestPipelineSineEndToEnd(t *testing.T) {
	p := New(Config{
		SampleRate: 44100,
		FrameSize:  1024,
		NumBands:   40,
		MinHz:      20,
		MaxHz:      20000,
	})

	// A tone at exactly bin 23 of the 1024-point FFT, near 1 kHz.
	freq := 23 * 44100.0 / 1024
	p.Push(sine(freq, 44100, 1024))

	require.Equal(t, 1, p.Drain())

	frame, ok := p.CurrentBandFrame()
	require.True(t, ok)
	require.Len(t, frame, 40)

	peak := 0
	for i, v := range frame {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if v > frame[peak] {
			peak = i
		}
	}

	// The tone shows up as a clearly dominant band in the low quarter of
	// the display, while the bottom band stays dark.
	assert.InDelta(t, 8, peak, 1, "peak band position for a ~1 kHz tone")
	assert.Greater(t, frame[peak]-frame[0], 0.3)
}

func TestPipelineSilenceYieldsZeroBands(t *testing.T) {
	p := New(Config{
		SampleRate: 44100,
		FrameSize:  1024,
		NumBands:   40,
		MinHz:      20,
		MaxHz:      20000,
	})

	p.Push(make([]float32, 1024))
	require.Equal(t, 1, p.Drain())

	frame, ok := p.CurrentBandFrame()
	require.True(t, ok)
	require.Len(t, frame, 40)
	for i, v := range frame {
		assert.Zero(t, v, "band %d", i)
	}
}

func TestPipelineDrainsFramesInOrder(t *testing.T) {
	p := New(Config{SampleRate: 44100, FrameSize: 1024, NumBands: 16})

	p.Push(make([]float32, 2048))
	p.Push(make([]float32, 512))

	assert.Equal(t, 2, p.Drain(), "two full frames buffered")
	assert.Equal(t, 512, p.Buffered(), "partial frame stays buffered")
	assert.False(t, p.Step())

	stats := p.Stats()
	assert.Equal(t, uint64(2560), stats.PushedSamples)
	assert.Equal(t, uint64(2), stats.AnalyzedFrames)
	assert.Zero(t, stats.SkippedPushes)

	assert.Len(t, p.History(), 2)
}

func TestPipelineHistoryBound(t *testing.T) {
	p := New(Config{SampleRate: 44100, FrameSize: 256, NumBands: 8, HistorySize: 3, BufferCapacity: 8192})

	for i := 0; i < 6; i++ {
		p.Push(make([]float32, 256))
		p.Step()
	}

	assert.Equal(t, 3, p.HistoryCapacity())
	assert.Len(t, p.History(), 3)
	assert.Equal(t, uint64(6), p.Stats().AnalyzedFrames)
}

func TestPipelineBufferEviction(t *testing.T) {
	p := New(Config{SampleRate: 44100, FrameSize: 1024, NumBands: 8, BufferCapacity: 2048})

	// Push more than the buffer holds without draining.
	for i := 0; i < 4; i++ {
		p.Push(make([]float32, 1024))
	}

	assert.Equal(t, 2048, p.Buffered())
	assert.Equal(t, uint64(2048), p.Stats().EvictedSamples)
	assert.Equal(t, 2, p.Drain(), "only the newest two frames survive")
}
