package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"spektar/internal/app"
	"spektar/internal/audio"
	"spektar/internal/config"
)

func main() {
	cfg := config.New()

	rootCmd := &cobra.Command{
		Use:           "spektar",
		Short:         "Live audio spectrum visualizer",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDevices()
		},
	}
	rootCmd.AddCommand(listCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfg.DeviceName, "device", "d", "", "Input device name (substring match, default: auto-detect)")
	flags.StringVarP(&cfg.InputFile, "input", "i", "", "Visualize an audio file (wav, mp3, ogg) instead of a device")
	flags.BoolVar(&cfg.NoAudio, "no-audio", false, "Run with a synthetic test signal")
	flags.Float64VarP(&cfg.SampleRate, "sample-rate", "s", 0, "Sample rate override in Hz (0 = device default)")
	flags.IntVarP(&cfg.Channels, "channels", "c", config.DefaultChannels, "Capture channels, downmixed to mono")

	flags.IntVar(&cfg.FrameSize, "frame-size", config.DefaultFrameSize, "Samples per analysis frame")
	flags.IntVarP(&cfg.NumBands, "bands", "n", config.DefaultNumBands, "Number of frequency bands")
	flags.IntVar(&cfg.HistorySize, "history", config.DefaultHistorySize, "Band frames retained for the fade trail")
	flags.IntVar(&cfg.BufferCapacity, "buffer-size", config.DefaultBufferCapacity, "Sample buffer capacity")
	flags.Float64Var(&cfg.MinHz, "min-freq", config.DefaultMinHz, "Lower frequency bound in Hz")
	flags.Float64Var(&cfg.MaxHz, "max-freq", config.DefaultMaxHz, "Upper frequency bound in Hz")
	flags.Float64Var(&cfg.Gain, "gain", config.DefaultGain, "Magnitude gain applied before band clamping")
	flags.StringVarP(&cfg.Window, "window", "w", config.DefaultWindow,
		"FFT window function (hann|hamming|blackman|blackmannuttall|bartletthann|lanczos|nuttall)")

	flags.Float64Var(&cfg.TargetFPS, "fps", config.DefaultTargetFPS, "Target render frames per second")
	flags.BoolVar(&cfg.NoColor, "no-color", false, "Disable ANSI color output")
	flags.BoolVar(&cfg.SDL, "sdl", false, "Render in an SDL window (requires a build with -tags sdl)")
	flags.IntVarP(&cfg.WebPort, "web-port", "p", 0, "Serve band frames over WebSocket on this port (0 = off)")

	flags.BoolVarP(&cfg.Record, "record", "r", false, "Record the capture stream to a WAV file")
	flags.StringVarP(&cfg.OutputFile, "output", "o", "", "Recording file name (default: spektar-<timestamp>.wav)")

	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&cfg.Profile, "profile", "", "Append frame timings to this CSV file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "spektar: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = "spektar-" + time.Now().Format("02-01-2006-150405") + ".wav"
	}

	log := newLogger(cfg.Verbose)

	needPortAudio := !cfg.NoAudio && cfg.InputFile == ""
	if needPortAudio {
		if err := audio.Initialize(); err != nil {
			return fmt.Errorf("initialize PortAudio: %w", err)
		}
		defer audio.Terminate()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("cleanup")
		}
	}()

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func validate(cfg *config.Config) error {
	if cfg.FrameSize <= 0 || cfg.FrameSize > config.MaxFrameSize {
		return fmt.Errorf("frame-size must be in 1..%d (got %d)", config.MaxFrameSize, cfg.FrameSize)
	}
	if cfg.NumBands <= 0 || cfg.NumBands > config.MaxNumBands {
		return fmt.Errorf("bands must be in 1..%d (got %d)", config.MaxNumBands, cfg.NumBands)
	}
	if cfg.HistorySize <= 0 {
		return fmt.Errorf("history must be positive (got %d)", cfg.HistorySize)
	}
	if cfg.MinHz < 0 || cfg.MaxHz <= cfg.MinHz {
		return fmt.Errorf("invalid frequency range [%.0f, %.0f]", cfg.MinHz, cfg.MaxHz)
	}
	if cfg.TargetFPS <= 0 {
		return fmt.Errorf("fps must be positive (got %.2f)", cfg.TargetFPS)
	}
	return nil
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func listDevices() error {
	if err := audio.Initialize(); err != nil {
		return fmt.Errorf("initialize PortAudio: %w", err)
	}
	defer audio.Terminate()

	devices, err := audio.ListInputDevices()
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Audio Input Devices ===\n\n")
	for _, dev := range devices {
		marker := ""
		if dev.IsDefaultInput {
			marker = " (default)"
		}
		fmt.Printf("- %s [%s]%s\n    inputs:%d sample:%.0f Hz\n",
			dev.Name, dev.HostAPI, marker, dev.MaxInput, dev.DefaultSampleHz)
	}
	if dev, err := audio.AutoDetectDevice(); err == nil && dev != nil {
		fmt.Printf("\nAuto-detected input: %s (%.0f Hz, %d channels)\n",
			dev.Name, dev.DefaultSampleRate, dev.MaxInputChannels)
	}
	return nil
}
