package audio

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// PushFunc receives chunks of mono float32 samples from a source. It
// must be safe to call from the PortAudio callback thread and must not
// block.
type PushFunc func(samples []float32)

// Capture wraps a PortAudio input stream, downmixes to mono in the
// callback and forwards the samples to the pipeline.
type Capture struct {
	stream     *portaudio.Stream
	sampleRate float64
	channels   int
	device     *portaudio.DeviceInfo
	push       PushFunc
	log        *logrus.Logger

	mono []float32

	// recorder is read by the callback thread and swapped by the app
	// goroutine, so access goes through the atomic pointer.
	recorder atomic.Pointer[recorder]
}

// CaptureConfig controls how a Capture instance is created.
type CaptureConfig struct {
	DeviceName string
	SampleRate float64
	Channels   int
	ChunkSize  int
	Push       PushFunc
	Log        *logrus.Logger
}

const defaultChunkSize = 512

// NewCapture opens and starts a PortAudio input stream. Failure here is
// fatal to capture only; the caller's pipeline keeps running empty.
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if cfg.Push == nil {
		return nil, fmt.Errorf("capture requires a push function")
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.Log == nil {
		cfg.Log = logrus.New()
	}

	device, err := findDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}

	if cfg.Channels > device.MaxInputChannels {
		cfg.Channels = device.MaxInputChannels
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = device.DefaultSampleRate
	}

	capture := &Capture{
		sampleRate: sampleRate,
		channels:   cfg.Channels,
		device:     device,
		push:       cfg.Push,
		log:        cfg.Log,
		mono:       make([]float32, cfg.ChunkSize),
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		Output:          portaudio.StreamDeviceParameters{},
		SampleRate:      sampleRate,
		FramesPerBuffer: cfg.ChunkSize,
	}, capture.process)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	capture.stream = stream

	if err := capture.stream.Start(); err != nil {
		_ = capture.stream.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}

	cfg.Log.WithFields(logrus.Fields{
		"device":      device.Name,
		"sample_rate": sampleRate,
		"channels":    cfg.Channels,
	}).Info("audio capture started")

	return capture, nil
}

// Close stops recording if active, then stops and closes the stream.
func (c *Capture) Close() error {
	if err := c.StopRecording(); err != nil {
		c.log.WithError(err).Warn("stop recording")
	}
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil && !errorsIsInvalidStreamState(err) {
		return err
	}
	return c.stream.Close()
}

// SampleRate returns the stream sample rate.
func (c *Capture) SampleRate() float64 {
	return c.sampleRate
}

// Device returns the PortAudio device associated with the capture stream.
func (c *Capture) Device() *portaudio.DeviceInfo {
	return c.device
}

// process runs on the PortAudio callback thread. It downmixes to mono,
// hands the chunk to the pipeline and taps it for recording. No path in
// here may block.
func (c *Capture) process(in []float32) {
	samples := in
	if c.channels > 1 {
		frames := len(in) / c.channels
		if frames > len(c.mono) {
			frames = len(c.mono)
		}
		for i := 0; i < frames; i++ {
			sum := float32(0)
			base := i * c.channels
			for ch := 0; ch < c.channels; ch++ {
				sum += in[base+ch]
			}
			c.mono[i] = sum / float32(c.channels)
		}
		samples = c.mono[:frames]
	}

	c.push(samples)

	if rec := c.recorder.Load(); rec != nil {
		rec.write(samples)
	}
}

func findDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		return findDeviceByName(name)
	}

	if dev, err := portaudio.DefaultInputDevice(); err == nil && dev != nil && dev.MaxInputChannels > 0 {
		return dev, nil
	}

	if host, err := portaudio.DefaultHostApi(); err == nil {
		if host != nil && host.DefaultInputDevice != nil && host.DefaultInputDevice.MaxInputChannels > 0 {
			return host.DefaultInputDevice, nil
		}
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	if candidate := pickBestDevice(devices); candidate != nil {
		return candidate, nil
	}

	return nil, fmt.Errorf("no suitable audio input device found")
}

func findDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	name = strings.ToLower(name)
	for _, device := range devices {
		if device.MaxInputChannels == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(device.Name), name) {
			return device, nil
		}
	}

	return nil, fmt.Errorf("audio device %q not found", name)
}

func pickBestDevice(devices []*portaudio.DeviceInfo) *portaudio.DeviceInfo {
	type scored struct {
		dev   *portaudio.DeviceInfo
		score int
	}

	var (
		results  []scored
		keywords = []string{"monitor", "loopback", "mix", "stereo mix", "what u hear"}
	)

	defaultInputIndex := -1
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultInputIndex = def.Index
	}

	defaultHostIndex := -1
	if host, err := portaudio.DefaultHostApi(); err == nil && host != nil && host.DefaultInputDevice != nil {
		defaultHostIndex = host.DefaultInputDevice.Index
	}

	for _, d := range devices {
		if d == nil || d.MaxInputChannels <= 0 {
			continue
		}

		score := d.MaxInputChannels
		if d.Index == defaultInputIndex {
			score += 50
		}
		if d.Index == defaultHostIndex {
			score += 40
		}

		lower := strings.ToLower(d.Name)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score += 20
				break
			}
		}
		if strings.Contains(lower, "default") {
			score += 10
		}

		results = append(results, scored{dev: d, score: score})
	}

	if len(results) == 0 {
		return nil
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return strings.ToLower(results[i].dev.Name) < strings.ToLower(results[j].dev.Name)
		}
		return results[i].score > results[j].score
	})

	return results[0].dev
}

// errorsIsInvalidStreamState checks if the provided error stems from stopping an already stopped stream.
func errorsIsInvalidStreamState(err error) bool {
	if err == nil {
		return false
	}
	const invalidStateMsg = "PaErrorCode -9986"
	return strings.Contains(err.Error(), invalidStateMsg)
}

// AutoDetectDevice returns the best available input device PortAudio can find.
func AutoDetectDevice() (*portaudio.DeviceInfo, error) {
	return findDevice("")
}
