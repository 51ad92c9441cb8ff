package dsp

import "testing"

func seq(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start + i)
	}
	return out
}

func TestSampleBufferPushAndDrainOrder(t *testing.T) {
	b := NewSampleBuffer(16)
	if !b.TryPush(seq(0, 4)) {
		t.Fatal("uncontended push should succeed")
	}
	if !b.TryPush(seq(4, 4)) {
		t.Fatal("uncontended push should succeed")
	}

	frame, ok := b.DrainFrame(6)
	if !ok {
		t.Fatal("expected a frame from 8 buffered samples")
	}
	for i, s := range frame {
		if s != float32(i) {
			t.Fatalf("frame[%d]=%f want=%d", i, s, i)
		}
	}
	if b.Len() != 2 {
		t.Fatalf("remaining=%d want=2", b.Len())
	}
}

func TestSampleBufferEvictsOldest(t *testing.T) {
	b := NewSampleBuffer(8)
	b.TryPush(seq(0, 6))
	b.TryPush(seq(6, 6))

	if b.Len() != 8 {
		t.Fatalf("len=%d want capacity 8", b.Len())
	}
	if b.Evicted() != 4 {
		t.Fatalf("evicted=%d want=4", b.Evicted())
	}

	// The oldest 4 samples are gone; the survivors keep arrival order.
	frame, ok := b.DrainFrame(8)
	if !ok {
		t.Fatal("expected a full frame")
	}
	for i, s := range frame {
		if s != float32(4+i) {
			t.Fatalf("frame[%d]=%f want=%d", i, s, 4+i)
		}
	}
}

func TestSampleBufferOversizePushKeepsTail(t *testing.T) {
	b := NewSampleBuffer(4)
	if !b.TryPush(seq(0, 10)) {
		t.Fatal("oversize push should still succeed")
	}
	frame, ok := b.DrainFrame(4)
	if !ok {
		t.Fatal("expected a full frame")
	}
	for i, s := range frame {
		if s != float32(6+i) {
			t.Fatalf("frame[%d]=%f want=%d", i, s, 6+i)
		}
	}
}

func TestSampleBufferDrainUnderfull(t *testing.T) {
	b := NewSampleBuffer(16)
	b.TryPush(seq(0, 5))

	if frame, ok := b.DrainFrame(6); ok || frame != nil {
		t.Fatalf("drain of 6 from 5 buffered: got frame=%v ok=%v", frame, ok)
	}
	if b.Len() != 5 {
		t.Fatalf("underfull drain must leave the buffer unchanged, len=%d", b.Len())
	}
	if _, ok := b.DrainFrame(0); ok {
		t.Fatal("drain of 0 samples should report false")
	}
}

func TestSampleBufferEmptyPush(t *testing.T) {
	b := NewSampleBuffer(8)
	if !b.TryPush(nil) {
		t.Fatal("empty push is a no-op, not a drop")
	}
	if b.Len() != 0 {
		t.Fatalf("len=%d want=0", b.Len())
	}
}
