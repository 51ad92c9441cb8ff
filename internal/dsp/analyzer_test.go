package dsp

import (
	"math"
	"testing"
)

func sine(freq, sampleRate float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
	}
	return out
}

func TestAnalyzeSilence(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{SampleRate: 44100})
	bins := a.Analyze(make([]float32, 1024))
	if len(bins) == 0 {
		t.Fatal("expected bins for a full frame")
	}
	for _, bin := range bins {
		if bin.Mag != 0 {
			t.Fatalf("silence produced magnitude %f at %f Hz", bin.Mag, bin.Freq)
		}
	}
}

func TestAnalyzeSinePeaksAtSignalFrequency(t *testing.T) {
	const sampleRate = 44100.0
	const size = 1024
	// Bin 23 exactly, so no spectral leakage muddies the assertion.
	freq := 23 * sampleRate / size

	a := NewAnalyzer(AnalyzerConfig{SampleRate: sampleRate})
	bins := a.Analyze(sine(freq, sampleRate, size))

	peak := 0
	for i, bin := range bins {
		if bin.Mag > bins[peak].Mag {
			peak = i
		}
	}
	resolution := sampleRate / size
	if math.Abs(bins[peak].Freq-freq) > resolution/2 {
		t.Fatalf("peak at %f Hz, signal at %f Hz", bins[peak].Freq, freq)
	}
	// Full-scale sine at a bin center normalizes to the configured gain.
	if math.Abs(bins[peak].Mag-2.0) > 0.05 {
		t.Fatalf("peak magnitude=%f want~2.0", bins[peak].Mag)
	}
	// Far away from the signal the spectrum is effectively empty.
	far := bins[len(bins)-1]
	if far.Mag > 0.01 {
		t.Fatalf("magnitude %f at %f Hz, expected near-zero", far.Mag, far.Freq)
	}
}

func TestAnalyzeShortFrameIsZeroPadded(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{SampleRate: 44100})
	bins := a.Analyze(make([]float32, 300))
	if len(bins) == 0 {
		t.Fatal("short frames are padded, not rejected")
	}
	// 300 samples pad to a 512-point FFT.
	resolution := 44100.0 / 512
	if math.Abs(bins[1].Freq-bins[0].Freq-resolution) > 1e-9 {
		t.Fatalf("bin spacing=%f want=%f", bins[1].Freq-bins[0].Freq, resolution)
	}
}

func TestAnalyzeEmptyFrame(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{})
	if bins := a.Analyze(nil); bins != nil {
		t.Fatalf("empty frame should yield no bins, got %d", len(bins))
	}
}

func TestAnalyzeRangeOutsideSpectrum(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{SampleRate: 8000, MinHz: 30000, MaxHz: 40000})
	if bins := a.Analyze(make([]float32, 256)); len(bins) != 0 {
		t.Fatalf("range above Nyquist should yield no bins, got %d", len(bins))
	}
}

func TestAnalyzeRespectsFrequencyBounds(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{SampleRate: 44100, MinHz: 200, MaxHz: 5000})
	for _, bin := range a.Analyze(make([]float32, 1024)) {
		if bin.Freq < 200 || bin.Freq > 5000 {
			t.Fatalf("bin at %f Hz outside [200, 5000]", bin.Freq)
		}
	}
}

func TestParseWindowFunc(t *testing.T) {
	cases := map[string]WindowFunc{
		"":         Hann,
		"hann":     Hann,
		"Hanning":  Hann,
		"HAMMING":  Hamming,
		"blackman": Blackman,
		"nuttall":  Nuttall,
	}
	for name, want := range cases {
		got, err := ParseWindowFunc(name)
		if err != nil {
			t.Fatalf("ParseWindowFunc(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("ParseWindowFunc(%q)=%v want=%v", name, got, want)
		}
	}

	got, err := ParseWindowFunc("sawtooth")
	if err == nil {
		t.Fatal("expected an error for an unknown window name")
	}
	if got != Hann {
		t.Fatalf("unknown name should fall back to hann, got %v", got)
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{
		0:    1,
		1:    1,
		2:    2,
		3:    4,
		5:    8,
		16:   16,
		31:   32,
		257:  512,
		1024: 1024,
	}
	for input, want := range cases {
		if got := nextPow2(input); got != want {
			t.Fatalf("nextPow2(%d)=%d want=%d", input, got, want)
		}
	}
}
