package audio

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SynthSource generates a deterministic-looking test signal, three
// slowly drifting sine voices plus a little noise, and pushes it on the
// same cadence as a live capture. Used for --no-audio runs and demos.
type SynthSource struct {
	push       PushFunc
	sampleRate float64
	chunk      int
	rng        *rand.Rand

	phaseBass float64
	phaseMid  float64
	phaseHigh float64

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// SynthConfig controls the synthetic source.
type SynthConfig struct {
	SampleRate float64
	ChunkSize  int
	Push       PushFunc
	Log        *logrus.Logger
}

// NewSynthSource creates a synthetic sample source.
func NewSynthSource(cfg SynthConfig) *SynthSource {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.Log != nil {
		cfg.Log.WithField("sample_rate", cfg.SampleRate).Info("synthetic audio source enabled")
	}
	return &SynthSource{
		push:       cfg.Push,
		sampleRate: cfg.SampleRate,
		chunk:      cfg.ChunkSize,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		done:       make(chan struct{}),
	}
}

// SampleRate returns the generated stream's sample rate.
func (s *SynthSource) SampleRate() float64 {
	return s.sampleRate
}

// Start begins generating chunks in a goroutine.
func (s *SynthSource) Start() {
	interval := time.Duration(float64(s.chunk) / s.sampleRate * float64(time.Second))
	buf := make([]float32, s.chunk)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var t float64
		dt := 1.0 / s.sampleRate
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				// Voice frequencies wander so the spectrum moves.
				s.phaseBass += 0.11
				s.phaseMid += 0.23
				s.phaseHigh += 0.37
				fBass := 60 + 30*math.Sin(s.phaseBass)
				fMid := 800 + 400*math.Sin(s.phaseMid)
				fHigh := 5000 + 2000*math.Sin(s.phaseHigh)

				for i := range buf {
					v := 0.5*math.Sin(2*math.Pi*fBass*t) +
						0.3*math.Sin(2*math.Pi*fMid*t) +
						0.15*math.Sin(2*math.Pi*fHigh*t) +
						(s.rng.Float64()*2-1)*0.02
					buf[i] = float32(v)
					t += dt
				}
				s.push(buf)
			}
		}
	}()
}

// Close stops the generator.
func (s *SynthSource) Close() error {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	return nil
}
