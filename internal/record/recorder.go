package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/orate/internal/audio"
	homedir "github.com/mitchellh/go-homedir"
)

// DefaultSampleRate is the capture rate.
const DefaultSampleRate = 44100

var (
	// ErrNotRecording is returned when stopping a recorder that is idle
	ErrNotRecording = errors.New("not recording")

	// ErrAlreadyRecording is returned when starting a recorder twice
	ErrAlreadyRecording = errors.New("already recording")
)

// Input is a capture device.
type Input interface {
	Open(sampleRate int) error
	// Read blocks until the next buffer of samples in [-1, 1] is available.
	Read() ([]float32, error)
	Close() error
}

// Recorder collects samples from an Input between Start and Stop.
type Recorder struct {
	input      Input
	sampleRate int

	mu      sync.Mutex
	samples []int16
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	started time.Time
}

// NewRecorder creates a recorder reading from input at sampleRate.
func NewRecorder(input Input, sampleRate int) *Recorder {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Recorder{input: input, sampleRate: sampleRate}
}

// Start opens the input and captures in the background until Stop or ctx
// ends.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		return ErrAlreadyRecording
	}
	if err := r.input.Open(r.sampleRate); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.samples = nil
	r.err = nil
	r.started = time.Now()

	go r.loop(ctx, r.done)
	log.Debug("Recording started", "rate", r.sampleRate)
	return nil
}

func (r *Recorder) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for ctx.Err() == nil {
		buf, err := r.input.Read()
		if err != nil {
			if ctx.Err() == nil {
				r.mu.Lock()
				r.err = err
				r.mu.Unlock()
			}
			return
		}
		r.mu.Lock()
		r.samples = append(r.samples, audio.Int16sFromFloat32(buf)...)
		r.mu.Unlock()
	}
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done != nil
}

// Stop ends the capture and returns what was recorded.
func (r *Recorder) Stop() (*audio.PCM, error) {
	r.mu.Lock()
	done, cancel := r.done, r.cancel
	r.mu.Unlock()

	if done == nil {
		return nil, ErrNotRecording
	}

	cancel()
	closeErr := r.input.Close()
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()

	r.done = nil
	r.cancel = nil
	pcm := audio.FromInt16s(r.samples, r.sampleRate)
	r.samples = nil

	log.Debug("Recording stopped", "duration", pcm.Duration(), "elapsed", time.Since(r.started))
	if r.err != nil {
		return pcm, fmt.Errorf("capture failed: %w", r.err)
	}
	if closeErr != nil {
		return pcm, fmt.Errorf("failed to close input: %w", closeErr)
	}
	return pcm, nil
}

// RecordUntil records until done is closed or ctx ends.
func (r *Recorder) RecordUntil(ctx context.Context, done <-chan struct{}) (*audio.PCM, error) {
	if err := r.Start(ctx); err != nil {
		return nil, err
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
	return r.Stop()
}

// FileName returns the name of a recording made at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("tts_recording_%d.wav", t.UnixMilli())
}

// Save writes pcm as a WAV file into dir and returns its path.
func Save(dir string, pcm *audio.PCM, now time.Time) (string, error) {
	dir, err := homedir.Expand(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create recordings directory: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create recording: %w", err)
	}
	if err := audio.EncodeWAV(f, pcm); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
