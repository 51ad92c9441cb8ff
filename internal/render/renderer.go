// Package render draws band frames as vertical bars. The terminal
// backend is always available; an SDL window backend is compiled in
// with the sdl build tag.
package render

import (
	"fmt"
	"strings"

	"spektar/internal/dsp"
)

// Partial-height block glyphs, lowest to tallest.
var barBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const ghostGlyph = '░'

// Frame is one rendered picture plus a status line. Quit is set when
// the windowed backend received a close event.
type Frame struct {
	Lines  []string
	Status string
	Quit   bool
}

// Renderer converts the current band frame and history into printable
// lines. It reuses internal buffers across frames.
type Renderer struct {
	width      int
	height     int
	useANSI    bool
	showGhost  bool
	historyCap int

	sdl *sdlState

	levels []float64
	ghosts []float64
	sb     strings.Builder
}

// New creates a terminal renderer of the given character dimensions.
func New(width, height int, useANSI bool) *Renderer {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	return &Renderer{
		width:     width,
		height:    height,
		useANSI:   useANSI,
		showGhost: true,
	}
}

// SetHistoryCapacity tells the renderer the bound of the history store,
// so fade weights stay stable while the history is still filling up.
func (r *Renderer) SetHistoryCapacity(n int) {
	r.historyCap = n
}

// fadeCapacity is the capacity FadeWeight ages against: the configured
// history bound, or the snapshot length when none was set.
func (r *Renderer) fadeCapacity(history []dsp.BandFrame) int {
	if r.historyCap >= len(history) && r.historyCap > 0 {
		return r.historyCap
	}
	return len(history)
}

// Resize updates the output dimensions.
func (r *Renderer) Resize(width, height int) {
	if width > 0 {
		r.width = width
	}
	if height > 0 {
		r.height = height
	}
}

// ToggleGhost flips drawing of the faded history layer.
func (r *Renderer) ToggleGhost() {
	r.showGhost = !r.showGhost
}

// GhostEnabled reports whether the history layer is drawn.
func (r *Renderer) GhostEnabled() bool {
	return r.showGhost
}

// Render draws the current frame as full-height bars and, underneath,
// the history as a half-height ghost layer whose intensity follows the
// fade weight of each frame's age. A nil current frame renders a
// "waiting for audio" picture.
func (r *Renderer) Render(current dsp.BandFrame, history []dsp.BandFrame, status string) Frame {
	if r.sdl != nil {
		return r.renderSDL(current, history, status)
	}

	if len(current) == 0 {
		return r.renderWaiting(status)
	}

	r.fillLevels(current)
	r.fillGhosts(history)

	lines := make([]string, 0, r.height)
	for row := 0; row < r.height; row++ {
		// Row 0 is the top of the picture.
		cellTop := float64(r.height-row) / float64(r.height)
		cellBottom := float64(r.height-row-1) / float64(r.height)

		r.sb.Reset()
		for col := 0; col < r.width; col++ {
			level := r.levels[col]
			ghost := r.ghosts[col]

			switch {
			case level >= cellTop:
				r.writeCell(colorFor(level), barGlyphFor(1.0))
			case level > cellBottom:
				frac := (level - cellBottom) * float64(r.height)
				r.writeCell(colorFor(level), barGlyphFor(frac))
			case r.showGhost && ghost > cellBottom:
				r.writeGhost()
			default:
				r.sb.WriteByte(' ')
			}
		}
		if r.useANSI {
			r.sb.WriteString("\x1b[0m")
		}
		lines = append(lines, r.sb.String())
	}

	return Frame{Lines: lines, Status: status}
}

// Close releases backend resources. The terminal backend holds none.
func (r *Renderer) Close() error {
	return r.closeSDL()
}

func (r *Renderer) renderWaiting(status string) Frame {
	lines := make([]string, r.height)
	msg := "waiting for audio data..."
	for i := range lines {
		if i == r.height/2 && r.width > len(msg) {
			pad := (r.width - len(msg)) / 2
			lines[i] = strings.Repeat(" ", pad) + msg
		} else {
			lines[i] = ""
		}
	}
	return Frame{Lines: lines, Status: status}
}

// fillLevels spreads the band values across the output columns.
func (r *Renderer) fillLevels(current dsp.BandFrame) {
	if len(r.levels) != r.width {
		r.levels = make([]float64, r.width)
	}
	for col := 0; col < r.width; col++ {
		band := col * len(current) / r.width
		r.levels[col] = clamp01(current[band])
	}
}

// fillGhosts computes, per column, the tallest faded history bar. Each
// history frame contributes at half height scaled by its fade weight,
// mirroring the translucent trail of the windowed backend.
func (r *Renderer) fillGhosts(history []dsp.BandFrame) {
	if len(r.ghosts) != r.width {
		r.ghosts = make([]float64, r.width)
	}
	for i := range r.ghosts {
		r.ghosts[i] = 0
	}
	if !r.showGhost || len(history) == 0 {
		return
	}

	capacity := r.fadeCapacity(history)
	for idx, frame := range history {
		age := len(history) - 1 - idx
		fade := dsp.FadeWeight(age, capacity)
		if fade <= dsp.FadeEpsilon {
			continue
		}
		for col := 0; col < r.width; col++ {
			band := col * len(frame) / r.width
			if band >= len(frame) {
				continue
			}
			h := clamp01(frame[band]) * fade
			if h > r.ghosts[col] {
				r.ghosts[col] = h
			}
		}
	}
}

func (r *Renderer) writeCell(color int, glyph rune) {
	if r.useANSI {
		fmt.Fprintf(&r.sb, "\x1b[38;5;%dm%c", color, glyph)
		return
	}
	r.sb.WriteRune(glyph)
}

func (r *Renderer) writeGhost() {
	if r.useANSI {
		fmt.Fprintf(&r.sb, "\x1b[38;5;%dm%c", 60, ghostGlyph) // dim blue-gray
		return
	}
	r.sb.WriteRune('.')
}

// colorFor maps an intensity to a green-yellow-red 256-color ramp.
func colorFor(level float64) int {
	switch {
	case level < 0.35:
		return 40 // green
	case level < 0.6:
		return 118
	case level < 0.8:
		return 220 // yellow
	default:
		return 196 // red
	}
}

func barGlyphFor(frac float64) rune {
	idx := int(frac * float64(len(barBlocks)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(barBlocks) {
		idx = len(barBlocks) - 1
	}
	return barBlocks[idx]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
