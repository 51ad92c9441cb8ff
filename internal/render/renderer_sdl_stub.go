//go:build !sdl

package render

import (
	"errors"

	"spektar/internal/dsp"
)

type sdlState struct{}

// InitSDL reports that the windowed backend is unavailable in this build.
func (r *Renderer) InitSDL(title string) error {
	return errors.New("SDL backend not enabled; rebuild with -tags sdl")
}

func (r *Renderer) renderSDL(current dsp.BandFrame, history []dsp.BandFrame, status string) Frame {
	return Frame{Status: status, Quit: true}
}

func (r *Renderer) closeSDL() error { return nil }

// SupportsSDL reports whether the windowed backend was compiled in.
func SupportsSDL() bool { return false }
