package dsp

import (
	"math"
	"testing"
)

func flatBins(n int, mag float64) []Bin {
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Freq: float64(i), Mag: mag}
	}
	return bins
}

func TestMapBandsFrameLength(t *testing.T) {
	if got := len(MapBands(flatBins(100, 0.5), 40)); got != 40 {
		t.Fatalf("len=%d want=40", got)
	}
	if got := len(MapBands(nil, 40)); got != 40 {
		t.Fatalf("empty input: len=%d want=40", got)
	}
	if got := len(MapBands(flatBins(100, 0.5), 0)); got != 0 {
		t.Fatalf("zero bands: len=%d want=0", got)
	}
}

func TestMapBandsQuadraticPartition(t *testing.T) {
	// With 64 bins and 8 bands the ranges are [i^2, (i+1)^2), so a single
	// hot bin at index 9 lands in band 3, averaged over its 7 bins.
	bins := flatBins(64, 0)
	bins[9].Mag = 0.7

	bands := MapBands(bins, 8)
	for i, v := range bands {
		want := 0.0
		if i == 3 {
			want = 0.7 / 7
		}
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("band[%d]=%f want=%f", i, v, want)
		}
	}
}

func TestMapBandsDegenerateRangesAreZero(t *testing.T) {
	// 20 bands over 4 bins: the quadratic spacing leaves the low bands
	// with empty index ranges.
	bands := MapBands(flatBins(4, 1.0), 20)
	if bands[0] != 0 {
		t.Fatalf("band[0]=%f want=0 for a degenerate range", bands[0])
	}
	if bands[len(bands)-1] == 0 {
		t.Fatal("highest band should cover the tail bins")
	}
}

func TestMapBandsClampsToUnit(t *testing.T) {
	for _, v := range MapBands(flatBins(100, 5.0), 10) {
		if v < 0 || v > 1 {
			t.Fatalf("band value %f outside [0, 1]", v)
		}
	}
	// All bins hot beyond 1.0: every non-degenerate band saturates.
	bands := MapBands(flatBins(100, 5.0), 10)
	if bands[len(bands)-1] != 1 {
		t.Fatalf("saturated band=%f want=1", bands[len(bands)-1])
	}
}
