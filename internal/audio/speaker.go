package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/orate/internal/cache"
	"github.com/dgnsrekt/orate/internal/speech"
)

// Synthesizer renders an utterance to PCM.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, u speech.Utterance) (*PCM, error)
}

// Cache stores rendered clips by key. *cache.Manager satisfies it.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// Speaker is a speech.Engine that synthesizes each utterance (or takes it
// from the cache) and plays it through an Output.
type Speaker struct {
	synth Synthesizer
	out   Output
	cache Cache

	mu     sync.Mutex
	cancel context.CancelFunc
}

// SpeakerOption configures a Speaker.
type SpeakerOption func(*Speaker)

// WithCache makes the speaker reuse rendered clips.
func WithCache(c Cache) SpeakerOption {
	return func(s *Speaker) {
		s.cache = c
	}
}

// NewSpeaker creates a speaker over synth and out.
func NewSpeaker(synth Synthesizer, out Output, opts ...SpeakerOption) (*Speaker, error) {
	if synth == nil {
		return nil, errors.New("synthesizer cannot be nil")
	}
	if out == nil {
		return nil, errors.New("audio output cannot be nil")
	}
	s := &Speaker{synth: synth, out: out}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Speak renders u and blocks until it finished playing. It returns the
// context error when the utterance was cancelled.
func (s *Speaker) Speak(ctx context.Context, u speech.Utterance) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	pcm, err := s.render(ctx, u)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.out.Play(ctx, pcm, u.Volume); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return speech.NewTTSError(speech.ErrorCodeAudioFailure, "playback failed", err)
	}
	return nil
}

// render returns the utterance's audio at the output sample rate.
func (s *Speaker) render(ctx context.Context, u speech.Utterance) (*PCM, error) {
	rate := s.out.SampleRate()
	key := cache.Key(s.synth.Name(), u.Voice.Key(), u.Text, u.Rate, u.Pitch, rate)

	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			log.Debug("Cache hit", "key", key)
			return NewPCM(data, rate)
		}
	}

	pcm, err := s.synth.Synthesize(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if pcm == nil || len(pcm.Data) == 0 {
		return nil, speech.NewTTSError(speech.ErrorCodeEngineFailure, "engine produced no audio", nil).
			WithContext("engine", s.synth.Name())
	}

	pcm, err = pcm.Resample(rate)
	if err != nil {
		return nil, speech.NewTTSError(speech.ErrorCodeAudioFormat, "cannot convert engine audio", err)
	}

	if s.cache != nil {
		if err := s.cache.Put(key, pcm.Data); err != nil {
			log.Debug("Cache write failed", "error", err)
		}
	}
	return pcm, nil
}

// CancelAll abandons the utterance in flight and silences the output.
func (s *Speaker) CancelAll() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if err := s.out.Stop(); err != nil {
		log.Debug("Stopping output failed", "error", err)
	}
}

// Pause suspends the clip currently playing.
func (s *Speaker) Pause() error {
	return s.out.Pause()
}

// Resume continues a paused clip.
func (s *Speaker) Resume() error {
	return s.out.Resume()
}

// Voices lists the synthesizer's voices when it can enumerate them.
func (s *Speaker) Voices(ctx context.Context) ([]speech.Voice, error) {
	lister, ok := s.synth.(speech.VoiceLister)
	if !ok {
		return nil, fmt.Errorf("%s engine cannot list voices", s.synth.Name())
	}
	return lister.Voices(ctx)
}

var (
	_ speech.Engine      = (*Speaker)(nil)
	_ speech.Pauser      = (*Speaker)(nil)
	_ speech.VoiceLister = (*Speaker)(nil)
)
