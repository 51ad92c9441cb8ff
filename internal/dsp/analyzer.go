package dsp

import (
	"fmt"
	"math/cmplx"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the window applied before the FFT. Windowing is
// always on; there is deliberately no "none" option.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Lanczos
	Nuttall
)

func (w WindowFunc) String() string {
	switch w {
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case BartlettHann:
		return "bartletthann"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	default:
		return "unknown"
	}
}

// ParseWindowFunc converts a case-insensitive name to a WindowFunc,
// falling back to Hann with an error for unknown names.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown window function %q", name)
	}
}

// windowCoefficients fills coeffs with the window shape by applying the
// gonum window function to an all-ones slice.
func windowCoefficients(coeffs []float64, w WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch w {
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}

// Bin is a single spectral measurement: center frequency in Hz and a
// non-negative, amplitude-normalized magnitude.
type Bin struct {
	Freq float64
	Mag  float64
}

// Analyzer turns sample frames into frequency bins. It owns reusable
// workspace buffers so the steady-state Analyze path does not allocate
// beyond the returned bin slice.
type Analyzer struct {
	sampleRate float64
	minHz      float64
	maxHz      float64
	gain       float64
	windowFn   WindowFunc

	input     []float64
	coeffs    []float64
	windowSum float64
}

// AnalyzerConfig controls Analyzer behavior. Zero values pick defaults
// matching a typical 44.1 kHz capture visualized over the audible range.
type AnalyzerConfig struct {
	SampleRate float64
	MinHz      float64
	MaxHz      float64
	Gain       float64
	Window     WindowFunc
}

// NewAnalyzer creates an Analyzer with the provided configuration.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	if cfg.MaxHz <= 0 {
		cfg.MaxHz = 20_000
	}
	if cfg.MinHz < 0 {
		cfg.MinHz = 0
	}
	if cfg.Gain <= 0 {
		cfg.Gain = 2.0
	}
	return &Analyzer{
		sampleRate: cfg.SampleRate,
		minHz:      cfg.MinHz,
		maxHz:      cfg.MaxHz,
		gain:       cfg.Gain,
		windowFn:   cfg.Window,
	}
}

// SampleRate returns the configured input sample rate.
func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}

// Analyze windows the frame, zero-pads it to the next power of two,
// runs a real FFT and returns the magnitude bins whose frequency lies in
// [minHz, maxHz], ordered by increasing frequency. An empty frame or a
// frequency range outside the spectrum yields an empty result, never an
// error. Short frames are padded, never rejected.
func (a *Analyzer) Analyze(frame []float32) []Bin {
	if len(frame) == 0 {
		return nil
	}

	size := nextPow2(len(frame))
	a.ensureWorkspace(size)

	for i := range a.input {
		if i < len(frame) {
			a.input[i] = float64(frame[i]) * a.coeffs[i]
		} else {
			a.input[i] = 0
		}
	}

	spectrum := fft.FFTReal(a.input)

	// Amplitude normalization: a full-scale sine at an exact bin center
	// produces a magnitude of gain*1.0 at that bin.
	scale := 2.0 / a.windowSum * a.gain

	resolution := a.sampleRate / float64(size)
	bins := make([]Bin, 0, size/2+1)
	for i := 0; i <= size/2; i++ {
		freq := float64(i) * resolution
		if freq < a.minHz || freq > a.maxHz {
			continue
		}
		bins = append(bins, Bin{
			Freq: freq,
			Mag:  cmplx.Abs(spectrum[i]) * scale,
		})
	}
	return bins
}

func (a *Analyzer) ensureWorkspace(size int) {
	if len(a.input) == size {
		return
	}
	a.input = make([]float64, size)
	a.coeffs = make([]float64, size)
	windowCoefficients(a.coeffs, a.windowFn)
	a.windowSum = 0
	for _, c := range a.coeffs {
		a.windowSum += c
	}
	if a.windowSum == 0 {
		a.windowSum = 1
	}
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}
