package config

import "testing"

func TestNewDefaults(t *testing.T) {
	cfg := New()
	if cfg.FrameSize != DefaultFrameSize {
		t.Fatalf("frame size=%d want=%d", cfg.FrameSize, DefaultFrameSize)
	}
	if cfg.NumBands != DefaultNumBands {
		t.Fatalf("bands=%d want=%d", cfg.NumBands, DefaultNumBands)
	}
	if cfg.MinHz >= cfg.MaxHz {
		t.Fatalf("default frequency range [%f, %f] is empty", cfg.MinHz, cfg.MaxHz)
	}
	if cfg.TargetFPS <= 0 {
		t.Fatalf("default fps=%f must be positive", cfg.TargetFPS)
	}
	if cfg.Window != "hann" {
		t.Fatalf("default window=%q want=hann", cfg.Window)
	}
}
