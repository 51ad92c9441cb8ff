// Package app ties together the input source, the analysis pipeline and
// a renderer into the interactive visualizer.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"spektar/internal/audio"
	"spektar/internal/config"
	"spektar/internal/dsp"
	"spektar/internal/pipeline"
	"spektar/internal/render"
	"spektar/internal/web"
)

type inputEvent int

const (
	inputEventQuit inputEvent = iota
	inputEventToggleGhost
	inputEventToggleRecording
)

// App owns the pipeline and the chosen input source and render backend.
type App struct {
	cfg *config.Config
	log *logrus.Logger

	pipe     atomic.Pointer[pipeline.Pipeline]
	renderer *render.Renderer
	capture  *audio.Capture
	file     *audio.FileSource
	synth    *audio.SynthSource
	webSrv   *web.Server

	profiler *profiler

	deviceLabel string
	recording   bool
	width       int
	height      int
	last        time.Time
	inputEvents chan inputEvent
}

// New constructs the application. A capture device that fails to open
// is not fatal: the pipeline runs with an empty buffer and the renderer
// shows the waiting state.
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	if log == nil {
		log = logrus.New()
	}

	windowFn, err := dsp.ParseWindowFunc(cfg.Window)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		log:    log,
		width:  80,
		height: 24,
	}

	sampleRate := cfg.SampleRate

	switch {
	case cfg.NoAudio:
		a.synth = audio.NewSynthSource(audio.SynthConfig{
			SampleRate: sampleRate,
			Push:       a.push,
			Log:        log,
		})
		sampleRate = a.synth.SampleRate()
		a.deviceLabel = "synthetic"
	case cfg.InputFile != "":
		src, err := audio.NewFileSource(audio.FileSourceConfig{
			Path: cfg.InputFile,
			Push: a.push,
			Log:  log,
		})
		if err != nil {
			return nil, fmt.Errorf("file input: %w", err)
		}
		a.file = src
		sampleRate = src.SampleRate()
		a.deviceLabel = cfg.InputFile
	default:
		capture, err := audio.NewCapture(audio.CaptureConfig{
			DeviceName: cfg.DeviceName,
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			Push:       a.push,
			Log:        log,
		})
		if err != nil {
			log.WithError(err).Error("audio capture unavailable, showing empty spectrum")
		} else {
			a.capture = capture
			sampleRate = capture.SampleRate()
			if info := capture.Device(); info != nil {
				a.deviceLabel = info.Name
			}
		}
	}

	a.pipe.Store(pipeline.New(pipeline.Config{
		SampleRate:     sampleRate,
		FrameSize:      cfg.FrameSize,
		NumBands:       cfg.NumBands,
		HistorySize:    cfg.HistorySize,
		BufferCapacity: cfg.BufferCapacity,
		MinHz:          cfg.MinHz,
		MaxHz:          cfg.MaxHz,
		Gain:           cfg.Gain,
		Window:         windowFn,
		Log:            log,
	}))

	a.renderer = render.New(a.width, a.height, !cfg.NoColor)
	a.renderer.SetHistoryCapacity(a.pipe.Load().HistoryCapacity())
	if cfg.SDL {
		if err := a.renderer.InitSDL("spektar"); err != nil {
			return nil, err
		}
	}

	if cfg.WebPort > 0 {
		a.webSrv = web.NewServer(a.pipe.Load(), log)
		a.webSrv.Start(cfg.WebPort)
	}

	if cfg.Record && a.capture != nil {
		if err := a.capture.StartRecording(cfg.OutputFile); err != nil {
			return nil, err
		}
		a.recording = true
	}

	a.profiler = newProfiler(cfg.Profile, log)
	a.last = time.Now()
	return a, nil
}

// push forwards a chunk of samples from whichever source is active.
// Runs on the source's delivery thread and never blocks.
func (a *App) push(samples []float32) {
	if p := a.pipe.Load(); p != nil {
		p.Push(samples)
	}
}

// Run starts the input source and the render loop until context
// cancellation or a quit event.
func (a *App) Run(ctx context.Context) error {
	if a.synth != nil {
		a.synth.Start()
	}
	if a.file != nil {
		a.file.Start()
	}

	fps := a.cfg.TargetFPS
	if fps <= 0 {
		fps = config.DefaultTargetFPS
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	terminalMode := !a.cfg.SDL
	if terminalMode {
		enterAltScreen()
		clearScreen()
		hideCursor()
		defer func() {
			showCursor()
			exitAltScreen()
		}()
	}

	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	a.startInputListener(inputCtx)
	a.ensureDimensions()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-a.inputEvents:
			if !ok {
				a.inputEvents = nil
				continue
			}
			switch evt {
			case inputEventQuit:
				return nil
			case inputEventToggleGhost:
				a.renderer.ToggleGhost()
			case inputEventToggleRecording:
				a.toggleRecording()
			}
		case <-ticker.C:
			quit, err := a.step(terminalMode)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// Close releases the input source, web server and renderer.
func (a *App) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.capture != nil {
		keep(a.capture.Close())
	}
	if a.file != nil {
		keep(a.file.Close())
	}
	if a.synth != nil {
		keep(a.synth.Close())
	}
	if a.webSrv != nil {
		keep(a.webSrv.Close())
	}
	keep(a.renderer.Close())
	keep(a.profiler.Close())
	return firstErr
}

func (a *App) step(terminalMode bool) (quit bool, err error) {
	a.profiler.beginFrame()
	if terminalMode {
		a.ensureDimensions()
	}

	now := time.Now()
	delta := now.Sub(a.last).Seconds()
	if delta <= 0 {
		delta = 1.0 / a.cfg.TargetFPS
	}
	a.last = now

	pipe := a.pipe.Load()
	pipe.Drain()
	a.profiler.markSection("analyze")

	current, _ := pipe.CurrentBandFrame()
	history := pipe.History()
	frame := a.renderer.Render(current, history, a.status(pipe, 1.0/delta))
	a.profiler.markSection("render")

	if terminalMode {
		moveCursorHome()
		for _, line := range frame.Lines {
			fmt.Println(line)
		}
		fmt.Print(statusBar(frame.Status, a.width))
	}

	if a.webSrv != nil {
		a.webSrv.Broadcast()
	}
	a.profiler.endFrame()

	return frame.Quit, nil
}

func (a *App) status(pipe *pipeline.Pipeline, fps float64) string {
	stats := pipe.Stats()
	s := fmt.Sprintf("spektar | %.0f fps | frames=%d buffered=%d", fps, stats.AnalyzedFrames, pipe.Buffered())
	if stats.SkippedPushes > 0 || stats.EvictedSamples > 0 {
		s += fmt.Sprintf(" dropped=%d/%d", stats.SkippedPushes, stats.EvictedSamples)
	}
	if a.deviceLabel != "" {
		s += " | " + a.deviceLabel
	}
	if a.recording {
		s += " | REC"
	}
	return s
}

func (a *App) toggleRecording() {
	if a.capture == nil {
		return
	}
	if a.recording {
		if err := a.capture.StopRecording(); err != nil {
			a.log.WithError(err).Warn("stop recording")
			return
		}
		a.recording = false
		return
	}
	if err := a.capture.StartRecording(a.cfg.OutputFile); err != nil {
		a.log.WithError(err).Warn("start recording")
		return
	}
	a.recording = true
}

func (a *App) ensureDimensions() {
	fd := int(os.Stdout.Fd())
	if fd < 0 {
		return
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return
	}
	renderHeight := h - 1 // reserve the status line
	if renderHeight <= 0 {
		renderHeight = 1
	}
	if w == a.width && renderHeight == a.height {
		return
	}
	a.width = w
	a.height = renderHeight
	a.renderer.Resize(w, renderHeight)
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.WithError(err).Debug("keyboard input disabled")
		a.inputEvents = nil
		return
	}

	events := make(chan inputEvent, 16)
	a.inputEvents = events

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			evt, ok := mapKey(char, key)
			if !ok {
				continue
			}
			if evt == inputEventQuit {
				events <- evt
				return
			}
			select {
			case events <- evt:
			default:
			}
		}
	}()
}

// mapKey translates a keypress into an input event. Space toggles the
// ghost layer; 'g' is kept as an alias.
func mapKey(char rune, key keyboard.Key) (inputEvent, bool) {
	switch {
	case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC:
		return inputEventQuit, true
	case char == 'q' || char == 'Q':
		return inputEventQuit, true
	case key == keyboard.KeySpace || char == 'g' || char == 'G':
		return inputEventToggleGhost, true
	case char == 'r' || char == 'R':
		return inputEventToggleRecording, true
	}
	return 0, false
}

// statusBar pads or truncates the status line to the terminal width,
// counting runes so a multibyte device name is never split mid-sequence.
func statusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return text + strings.Repeat(" ", width-len(runes))
}

func clearScreen() {
	fmt.Print("\x1b[2J")
	moveCursorHome()
}

func moveCursorHome() {
	fmt.Print("\x1b[H")
}

func hideCursor() {
	fmt.Print("\x1b[?25l")
}

func showCursor() {
	fmt.Print("\x1b[?25h")
}

func enterAltScreen() {
	fmt.Print("\x1b[?1049h")
}

func exitAltScreen() {
	fmt.Print("\x1b[?1049l\x1b[0m")
}
