package dsp

import (
	"math"
	"testing"
)

func TestHistoryBoundAndOrder(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Push(BandFrame{float64(i)})
	}

	if h.Len() != 3 {
		t.Fatalf("len=%d want=3", h.Len())
	}
	frames := h.Snapshot()
	for i, want := range []float64{2, 3, 4} {
		if frames[i][0] != want {
			t.Fatalf("frames[%d]=%f want=%f", i, frames[i][0], want)
		}
	}

	current, ok := h.Current()
	if !ok || current[0] != 4 {
		t.Fatalf("current=%v ok=%v want newest frame", current, ok)
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(10)
	if _, ok := h.Current(); ok {
		t.Fatal("empty history should report no current frame")
	}
	if got := h.Snapshot(); len(got) != 0 {
		t.Fatalf("snapshot of empty history has %d frames", len(got))
	}
}

func TestFadeWeight(t *testing.T) {
	cases := []struct {
		age, capacity int
		want          float64
	}{
		{0, 50, 0.5},
		{25, 50, 0.25},
		{50, 50, 0},
		{60, 50, 0},
		{-1, 50, 0},
		{0, 0, 0},
	}
	for _, c := range cases {
		if got := FadeWeight(c.age, c.capacity); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("FadeWeight(%d, %d)=%f want=%f", c.age, c.capacity, got, c.want)
		}
	}
}
