// Package pipeline wires the analysis stages into a single consumer-side
// unit: samples arrive from the device callback, frames are drained and
// transformed, and band frames accumulate in a bounded history for
// renderers. There are exactly two execution contexts: the audio
// callback calls Push and nothing else; everything downstream of the
// sample buffer belongs to the owner of Step.
package pipeline

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"spektar/internal/dsp"
)

// Config controls pipeline geometry. Zero values fall back to the
// defaults of the underlying components.
type Config struct {
	SampleRate     float64
	FrameSize      int
	NumBands       int
	HistorySize    int
	BufferCapacity int
	MinHz          float64
	MaxHz          float64
	Gain           float64
	Window         dsp.WindowFunc
	Log            *logrus.Logger
}

const (
	defaultFrameSize = 1024
	defaultNumBands  = 40
)

// Stats are cumulative pipeline counters. All fields are safe to read
// concurrently with audio delivery.
type Stats struct {
	PushedSamples  uint64
	SkippedPushes  uint64
	EvictedSamples uint64
	AnalyzedFrames uint64
}

// Pipeline converts raw samples into a rolling history of band frames.
type Pipeline struct {
	cfg      Config
	buffer   *dsp.SampleBuffer
	analyzer *dsp.Analyzer
	history  *dsp.History
	log      *logrus.Logger

	pushed   atomic.Uint64
	skipped  atomic.Uint64
	analyzed atomic.Uint64
}

// New constructs a Pipeline from the configuration.
func New(cfg Config) *Pipeline {
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = defaultFrameSize
	}
	if cfg.NumBands <= 0 {
		cfg.NumBands = defaultNumBands
	}
	if cfg.Log == nil {
		cfg.Log = logrus.New()
	}
	return &Pipeline{
		cfg:    cfg,
		buffer: dsp.NewSampleBuffer(cfg.BufferCapacity),
		analyzer: dsp.NewAnalyzer(dsp.AnalyzerConfig{
			SampleRate: cfg.SampleRate,
			MinHz:      cfg.MinHz,
			MaxHz:      cfg.MaxHz,
			Gain:       cfg.Gain,
			Window:     cfg.Window,
		}),
		history: dsp.NewHistory(cfg.HistorySize),
		log:     cfg.Log,
	}
}

// FrameSize returns the number of samples consumed per analysis pass.
func (p *Pipeline) FrameSize() int {
	return p.cfg.FrameSize
}

// NumBands returns the number of bands per frame.
func (p *Pipeline) NumBands() int {
	return p.cfg.NumBands
}

// HistoryCapacity returns the maximum number of retained band frames.
func (p *Pipeline) HistoryCapacity() int {
	return p.history.Capacity()
}

// Push feeds mono samples from the device layer. Safe to call from the
// real-time callback: it never blocks, dropping the chunk when the
// buffer lock is contended.
func (p *Pipeline) Push(samples []float32) {
	if p.buffer.TryPush(samples) {
		p.pushed.Add(uint64(len(samples)))
		return
	}
	p.skipped.Add(1)
}

// Step attempts one analysis pass: drain a frame, analyze, map to bands
// and record the result. It reports false when not enough samples have
// accumulated, which is the pipeline's natural backpressure, not an
// error.
func (p *Pipeline) Step() bool {
	frame, ok := p.buffer.DrainFrame(p.cfg.FrameSize)
	if !ok {
		return false
	}

	bins := p.analyzer.Analyze(frame)
	bands := dsp.MapBands(bins, p.cfg.NumBands)
	p.history.Push(bands)
	p.analyzed.Add(1)
	return true
}

// Drain runs Step until the sample buffer holds less than a frame,
// returning the number of frames analyzed. Called once per render tick
// so analysis cadence follows input arrival rate.
func (p *Pipeline) Drain() int {
	n := 0
	for p.Step() {
		n++
	}
	if n > 1 {
		p.log.WithField("frames", n).Debug("analysis catching up")
	}
	return n
}

// CurrentBandFrame returns the latest band frame, or false when no
// audio has been analyzed yet.
func (p *Pipeline) CurrentBandFrame() (dsp.BandFrame, bool) {
	return p.history.Current()
}

// History returns a snapshot of retained band frames, oldest first.
func (p *Pipeline) History() []dsp.BandFrame {
	return p.history.Snapshot()
}

// Stats returns a snapshot of the cumulative counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		PushedSamples:  p.pushed.Load(),
		SkippedPushes:  p.skipped.Load(),
		EvictedSamples: p.buffer.Evicted(),
		AnalyzedFrames: p.analyzed.Load(),
	}
}

// Buffered returns the number of samples waiting for analysis.
func (p *Pipeline) Buffered() int {
	return p.buffer.Len()
}
