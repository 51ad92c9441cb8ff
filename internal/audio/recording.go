package audio

import (
	"fmt"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

const recordBitDepth = 16

const maxConsecutiveWriteFailures = 5

// recorder taps the mono capture stream and encodes it as 16-bit PCM
// WAV. The mutex serializes the callback-side Write against close, so
// the encoder is never finalized under an in-flight write.
type recorder struct {
	mu       sync.Mutex
	closed   bool
	disabled bool
	file     *os.File
	encoder  *wav.Encoder
	buf      *goaudio.IntBuffer
	log      *logrus.Logger

	writeFailures int
}

func newRecorder(filename string, sampleRate, chunkSize int, log *logrus.Logger) (*recorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	return &recorder{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, recordBitDepth, 1, 1),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: 1,
				SampleRate:  sampleRate,
			},
			Data: make([]int, chunkSize),
		},
		log: log,
	}, nil
}

// StartRecording begins encoding the capture stream to filename.
func (c *Capture) StartRecording(filename string) error {
	if c.recorder.Load() != nil {
		return fmt.Errorf("already recording")
	}

	rec, err := newRecorder(filename, int(c.sampleRate), len(c.mono), c.log)
	if err != nil {
		return err
	}
	c.recorder.Store(rec)

	c.log.WithField("file", filename).Info("recording started")
	return nil
}

// StopRecording finalizes the WAV file. Safe to call when not recording.
// The recorder pointer is swapped out before closing, so the callback
// either misses the tap entirely or finishes its write first.
func (c *Capture) StopRecording() error {
	rec := c.recorder.Swap(nil)
	if rec == nil {
		return nil
	}
	return rec.close()
}

func (r *recorder) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.encoder.Close(); err != nil {
		_ = r.file.Close()
		return fmt.Errorf("close encoder: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close recording: %w", err)
	}
	return nil
}

// write runs on the callback thread. It skips the chunk rather than
// block when a concurrent close holds the lock, and after repeated
// failures it disables itself so a broken disk cannot stall audio
// delivery forever.
func (r *recorder) write(samples []float32) {
	if !r.mu.TryLock() {
		return
	}
	defer r.mu.Unlock()
	if r.closed || r.disabled {
		return
	}

	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		r.buf.Data[i] = int(s * 32767)
	}

	if err := r.encoder.Write(r.buf); err != nil {
		r.writeFailures++
		r.log.WithError(err).Warn("recording write failed")
		if r.writeFailures >= maxConsecutiveWriteFailures {
			r.disabled = true
			r.log.Error("recording disabled after repeated write failures")
		}
		return
	}
	r.writeFailures = 0
}
