package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/sirupsen/logrus"
)

// sampleReader abstracts a decoded audio file: interleaved float32
// samples in [-1, 1] at a fixed rate and channel count.
type sampleReader interface {
	ReadSamples(dst []float32) (int, error)
	SampleRate() int
	Channels() int
}

// FileSource decodes an audio file and feeds it to the pipeline at
// real-time pace, so a file behaves like a live input. Supported
// formats: WAV, MP3, Ogg Vorbis.
type FileSource struct {
	path   string
	reader sampleReader
	file   *os.File
	push   PushFunc
	log    *logrus.Logger

	chunkFrames int

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// FileSourceConfig controls how a FileSource is created.
type FileSourceConfig struct {
	Path      string
	ChunkSize int
	Push      PushFunc
	Log       *logrus.Logger
}

// NewFileSource opens path and prepares the matching decoder. The
// format is chosen by file extension.
func NewFileSource(cfg FileSourceConfig) (*FileSource, error) {
	if cfg.Push == nil {
		return nil, fmt.Errorf("file source requires a push function")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.Log == nil {
		cfg.Log = logrus.New()
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	var reader sampleReader
	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".wav":
		reader, err = newWavReader(f)
	case ".mp3":
		reader, err = newMP3Reader(f)
	case ".ogg":
		reader, err = newOggReader(f)
	default:
		err = fmt.Errorf("unsupported input format %q", filepath.Ext(cfg.Path))
	}
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	cfg.Log.WithFields(logrus.Fields{
		"file":        cfg.Path,
		"sample_rate": reader.SampleRate(),
		"channels":    reader.Channels(),
	}).Info("file input opened")

	return &FileSource{
		path:        cfg.Path,
		reader:      reader,
		file:        f,
		push:        cfg.Push,
		log:         cfg.Log,
		chunkFrames: cfg.ChunkSize,
		done:        make(chan struct{}),
	}, nil
}

// SampleRate returns the decoded stream's sample rate.
func (s *FileSource) SampleRate() float64 {
	return float64(s.reader.SampleRate())
}

// Start begins streaming decoded samples in a goroutine. Each tick
// pushes one chunk so the pipeline sees the same cadence as a live
// device. At end of file the goroutine exits and the pipeline simply
// stops receiving samples.
func (s *FileSource) Start() {
	channels := s.reader.Channels()
	interleaved := make([]float32, s.chunkFrames*channels)
	mono := make([]float32, s.chunkFrames)

	interval := time.Duration(float64(s.chunkFrames) / float64(s.reader.SampleRate()) * float64(time.Second))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				n, err := s.reader.ReadSamples(interleaved)
				if n > 0 {
					frames := n / channels
					for i := 0; i < frames; i++ {
						sum := float32(0)
						for ch := 0; ch < channels; ch++ {
							sum += interleaved[i*channels+ch]
						}
						mono[i] = sum / float32(channels)
					}
					s.push(mono[:frames])
				}
				if err != nil {
					if err != io.EOF {
						s.log.WithError(err).Warn("file decode error")
					} else {
						s.log.WithField("file", s.path).Info("file input finished")
					}
					return
				}
			}
		}
	}()
}

// Close stops streaming and releases the file.
func (s *FileSource) Close() error {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	return s.file.Close()
}

// --- WAV via go-audio ---

type wavReader struct {
	dec   *wav.Decoder
	buf   *goaudio.IntBuffer
	scale float32
}

func newWavReader(f *os.File) (sampleReader, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("read WAV data: %w", err)
	}
	return &wavReader{
		dec:   dec,
		scale: float32(int(1) << (dec.BitDepth - 1)),
	}, nil
}

func (r *wavReader) SampleRate() int { return int(r.dec.SampleRate) }
func (r *wavReader) Channels() int   { return int(r.dec.NumChans) }

func (r *wavReader) ReadSamples(dst []float32) (int, error) {
	if r.buf == nil || cap(r.buf.Data) < len(dst) {
		r.buf = &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: int(r.dec.NumChans),
				SampleRate:  int(r.dec.SampleRate),
			},
			Data: make([]int, len(dst)),
		}
	}
	r.buf.Data = r.buf.Data[:len(dst)]

	n, err := r.dec.PCMBuffer(r.buf)
	for i := 0; i < n; i++ {
		dst[i] = float32(r.buf.Data[i]) / r.scale
	}
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}

// --- MP3 via go-mp3 ---

type mp3Reader struct {
	dec *mp3.Decoder
	buf []byte
}

func newMP3Reader(f *os.File) (sampleReader, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}
	return &mp3Reader{dec: dec}, nil
}

func (r *mp3Reader) SampleRate() int { return r.dec.SampleRate() }

// go-mp3 always outputs interleaved 16-bit stereo.
func (r *mp3Reader) Channels() int { return 2 }

func (r *mp3Reader) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(r.buf) < need {
		r.buf = make([]byte, need)
	}
	r.buf = r.buf[:need]

	n, err := r.dec.Read(r.buf)
	samples := n / 2
	for i := 0; i < samples; i++ {
		v := int16(uint16(r.buf[2*i]) | uint16(r.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}
	return samples, err
}

// --- Ogg Vorbis via oggvorbis ---

type oggReader struct {
	dec *oggvorbis.Reader
}

func newOggReader(f *os.File) (sampleReader, error) {
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decode ogg: %w", err)
	}
	return &oggReader{dec: dec}, nil
}

func (r *oggReader) SampleRate() int { return r.dec.SampleRate() }
func (r *oggReader) Channels() int   { return r.dec.Channels() }

func (r *oggReader) ReadSamples(dst []float32) (int, error) {
	return r.dec.Read(dst)
}
