// Package config holds the runtime configuration for the spectrum
// visualizer, constructed from command line flags.
package config

// Defaults and limits for the analysis pipeline.
const (
	DefaultFrameSize      = 1024  // samples per analysis pass
	DefaultNumBands       = 40    // bands per frame
	DefaultHistorySize    = 50    // retained band frames
	DefaultBufferCapacity = 4096  // sample buffer bound
	DefaultMinHz          = 20.0  // lower frequency bound
	DefaultMaxHz          = 20000 // upper frequency bound
	DefaultGain           = 2.0   // magnitude gain before clamping
	DefaultWindow         = "hann"
	DefaultTargetFPS      = 60.0
	DefaultChannels       = 2 // stereo capture, downmixed to mono

	MaxFrameSize = 8192
	MaxNumBands  = 512
)

// Config holds all runtime options.
type Config struct {
	// Input selection. InputFile takes precedence over DeviceName;
	// NoAudio replaces both with the synthetic source.
	DeviceName string
	InputFile  string
	NoAudio    bool
	SampleRate float64 // 0 means use the device default
	Channels   int

	// Analysis geometry.
	FrameSize      int
	NumBands       int
	HistorySize    int
	BufferCapacity int
	MinHz          float64
	MaxHz          float64
	Gain           float64
	Window         string

	// Presentation.
	TargetFPS float64
	NoColor   bool
	SDL       bool
	WebPort   int // 0 disables the web server

	// Recording.
	Record     bool
	OutputFile string

	// Diagnostics.
	Verbose bool
	Profile string // CSV frame-timing output path, empty disables
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Channels:       DefaultChannels,
		FrameSize:      DefaultFrameSize,
		NumBands:       DefaultNumBands,
		HistorySize:    DefaultHistorySize,
		BufferCapacity: DefaultBufferCapacity,
		MinHz:          DefaultMinHz,
		MaxHz:          DefaultMaxHz,
		Gain:           DefaultGain,
		Window:         DefaultWindow,
		TargetFPS:      DefaultTargetFPS,
	}
}
