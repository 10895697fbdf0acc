package engines

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/orate/internal/audio"
	"github.com/dgnsrekt/orate/internal/speech"
)

// MockEngine renders silence lasting as long as the text would take to
// say. It needs no external programs.
type MockEngine struct {
	wordDuration time.Duration
	latency      time.Duration

	mu    sync.Mutex
	calls []speech.Utterance
}

// MockConfig holds configuration for the mock engine.
type MockConfig struct {
	// WordDuration is the length of one word at rate 1 (defaults to 400ms,
	// 150 words per minute).
	WordDuration time.Duration

	// Latency simulates synthesis time.
	Latency time.Duration
}

// NewMockEngine creates a mock engine.
func NewMockEngine(config MockConfig) *MockEngine {
	if config.WordDuration <= 0 {
		config.WordDuration = 400 * time.Millisecond
	}
	return &MockEngine{
		wordDuration: config.WordDuration,
		latency:      config.Latency,
	}
}

// Name implements audio.Synthesizer.
func (e *MockEngine) Name() string {
	return EngineMock
}

// Synthesize returns silence proportional to the word count.
func (e *MockEngine) Synthesize(ctx context.Context, u speech.Utterance) (*audio.PCM, error) {
	if err := checkText(u.Text); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.calls = append(e.calls, u)
	e.mu.Unlock()

	if e.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.latency):
		}
	}

	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	words := len(strings.Fields(u.Text))
	d := time.Duration(float64(words) * float64(e.wordDuration) / rate)
	return audio.Silence(d, audio.DefaultSampleRate), nil
}

// Calls returns the utterances synthesized so far.
func (e *MockEngine) Calls() []speech.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]speech.Utterance(nil), e.calls...)
}

// Voices returns two fixed voices.
func (e *MockEngine) Voices(context.Context) ([]speech.Voice, error) {
	return []speech.Voice{
		{ID: "mock-en", Name: "Mock English", Language: "en-US", Default: true},
		{ID: "mock-de", Name: "Mock German", Language: "de-DE"},
	}, nil
}

// Info returns engine capabilities.
func (e *MockEngine) Info() Info {
	return Info{
		Name:        EngineMock,
		SampleRate:  audio.DefaultSampleRate,
		MaxTextSize: maxTextSize,
		CanPitch:    true,
	}
}

// Validate implements Synthesizer.
func (e *MockEngine) Validate() error {
	return nil
}

// Close implements Synthesizer.
func (e *MockEngine) Close() error {
	return nil
}

var (
	_ Synthesizer        = (*MockEngine)(nil)
	_ speech.VoiceLister = (*MockEngine)(nil)
)
