//go:build sdl

package render

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"spektar/internal/dsp"
)

type sdlState struct {
	initialized bool
	window      *sdl.Window
	renderer    *sdl.Renderer
	width       int32
	height      int32
	title       string
}

const (
	sdlDefaultWidth  = 800
	sdlDefaultHeight = 600
)

// InitSDL switches the renderer to the windowed backend.
func (r *Renderer) InitSDL(title string) error {
	if r.sdl != nil {
		return nil
	}
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("init sdl: %w", err)
	}
	window, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		sdlDefaultWidth, sdlDefaultHeight,
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return fmt.Errorf("create window: %w", err)
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		_ = window.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return fmt.Errorf("create renderer: %w", err)
	}
	_ = renderer.SetDrawBlendMode(sdl.BLENDMODE_BLEND)

	r.sdl = &sdlState{
		initialized: true,
		window:      window,
		renderer:    renderer,
		width:       sdlDefaultWidth,
		height:      sdlDefaultHeight,
		title:       title,
	}
	return nil
}

// renderSDL draws the current frame as solid gradient bars and the
// history as translucent layers whose alpha follows the fade weight.
func (r *Renderer) renderSDL(current dsp.BandFrame, history []dsp.BandFrame, status string) Frame {
	state := r.sdl
	if w, h := state.window.GetSize(); w > 0 && h > 0 {
		state.width, state.height = w, h
	}

	_ = state.renderer.SetDrawColor(8, 8, 12, 255)
	_ = state.renderer.Clear()

	if len(current) > 0 {
		bandWidth := float64(state.width) / float64(len(current))

		// History first so the current frame draws on top.
		capacity := r.fadeCapacity(history)
		for idx, frame := range history {
			age := len(history) - 1 - idx
			fade := dsp.FadeWeight(age, capacity)
			if fade <= dsp.FadeEpsilon {
				continue
			}
			alpha := uint8(fade * 2 * 255)
			for i, v := range frame {
				h := clamp01(v) * float64(state.height) * 0.5
				if h < 1 {
					continue
				}
				x := int32(float64(i) * bandWidth)
				// Blue to purple trail, brighter for louder bands.
				_ = state.renderer.SetDrawColor(100, 100, uint8(155+clamp01(v)*100), alpha)
				_ = state.renderer.FillRect(&sdl.Rect{
					X: x,
					Y: state.height - int32(h),
					W: int32(bandWidth) - 2,
					H: int32(h),
				})
			}
		}

		for i, v := range current {
			level := clamp01(v)
			h := level * float64(state.height)
			if h < 1 {
				continue
			}
			x := int32(float64(i) * bandWidth)
			// Green to red gradient by intensity.
			_ = state.renderer.SetDrawColor(uint8(level*255), uint8((1-level)*255), 0, 255)
			_ = state.renderer.FillRect(&sdl.Rect{
				X: x,
				Y: state.height - int32(h),
				W: int32(bandWidth) - 2,
				H: int32(h),
			})
		}
	}

	state.renderer.Present()

	if status != "" && status != state.title {
		state.window.SetTitle(status)
		state.title = status
	}

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			return Frame{Status: status, Quit: true}
		}
	}

	return Frame{Status: status}
}

func (r *Renderer) closeSDL() error {
	if r.sdl == nil {
		return nil
	}
	if r.sdl.renderer != nil {
		_ = r.sdl.renderer.Destroy()
	}
	if r.sdl.window != nil {
		_ = r.sdl.window.Destroy()
	}
	if r.sdl.initialized {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
	}
	r.sdl = nil
	return nil
}

// SupportsSDL reports whether the windowed backend was compiled in.
func SupportsSDL() bool { return true }
