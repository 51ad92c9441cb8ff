package audio

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestRecorderWritesPlayableWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	rec, err := newRecorder(path, 44100, 512, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	chunk := make([]float32, 512)
	for i := range chunk {
		chunk[i] = 0.25
	}
	for i := 0; i < 4; i++ {
		rec.write(chunk)
	}
	if err := rec.close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("recording is not a valid WAV file")
	}
	if dec.NumChans != 1 {
		t.Fatalf("channels=%d want mono", dec.NumChans)
	}
}

func TestRecorderCloseDuringWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	rec, err := newRecorder(path, 44100, 256, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	chunk := make([]float32, 256)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Hammer the callback path while close races it from this goroutine.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				rec.write(chunk)
			}
		}
	}()

	if err := rec.close(); err != nil {
		t.Fatal(err)
	}
	close(stop)
	wg.Wait()

	// Writes after close are no-ops, never writes to a finalized encoder.
	rec.write(chunk)
	if err := rec.close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestRecorderClampsSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	rec, err := newRecorder(path, 44100, 4, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	rec.write([]float32{2.0, -2.0, 0.5, 0})
	if rec.buf.Data[0] != 32767 {
		t.Fatalf("over-range sample encoded as %d want 32767", rec.buf.Data[0])
	}
	if rec.buf.Data[1] != -32767 {
		t.Fatalf("under-range sample encoded as %d want -32767", rec.buf.Data[1])
	}
	if err := rec.close(); err != nil {
		t.Fatal(err)
	}
}
