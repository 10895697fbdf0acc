package record

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// framesPerBuffer is how many samples one Read returns.
const framesPerBuffer = 512

// PortAudioInput reads mono float samples from the default input device.
type PortAudioInput struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []float32
}

// NewPortAudioInput returns an input for the default microphone. Nothing is
// opened until Open.
func NewPortAudioInput() *PortAudioInput {
	return &PortAudioInput{}
}

// Open initializes PortAudio and starts a capture stream.
func (p *PortAudioInput) Open(sampleRate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return fmt.Errorf("capture already running")
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	p.buffer = make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, p.buffer)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	p.stream = stream
	return nil
}

// Read blocks until one buffer was captured and returns a copy of it.
func (p *PortAudioInput) Read() ([]float32, error) {
	p.mu.Lock()
	stream := p.stream
	p.mu.Unlock()

	if stream == nil {
		return nil, ErrNotRecording
	}
	if err := stream.Read(); err != nil {
		return nil, err
	}

	samples := make([]float32, len(p.buffer))
	copy(samples, p.buffer)
	return samples, nil
}

// Close stops the stream and releases PortAudio.
func (p *PortAudioInput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	_ = p.stream.Stop()
	err := p.stream.Close()
	p.stream = nil
	if termErr := portaudio.Terminate(); err == nil {
		err = termErr
	}
	return err
}

var _ Input = (*PortAudioInput)(nil)
