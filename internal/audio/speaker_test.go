package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/orate/internal/cache"
	"github.com/dgnsrekt/orate/internal/speech"
)

type fakeSynth struct {
	mu     sync.Mutex
	calls  int
	err    error
	rate   int
	voices []speech.Voice
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) Synthesize(_ context.Context, u speech.Utterance) (*PCM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return Silence(time.Duration(len(u.Text))*time.Millisecond, f.rate), nil
}

func (f *fakeSynth) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type listingSynth struct {
	fakeSynth
}

func (l *listingSynth) Voices(context.Context) ([]speech.Voice, error) {
	return l.voices, nil
}

// fakeOutput records clips; when block is set Play waits for ctx or Stop.
type fakeOutput struct {
	mu      sync.Mutex
	played  []*PCM
	volumes []float64
	stops   int
	pauses  int
	block   bool
	playing chan struct{}
	stopped chan struct{}
}

func newFakeOutput(block bool) *fakeOutput {
	return &fakeOutput{
		block:   block,
		playing: make(chan struct{}, 1),
		stopped: make(chan struct{}, 1),
	}
}

func (f *fakeOutput) Play(ctx context.Context, pcm *PCM, volume float64) error {
	f.mu.Lock()
	f.played = append(f.played, pcm)
	f.volumes = append(f.volumes, volume)
	f.mu.Unlock()

	if !f.block {
		return nil
	}
	f.playing <- struct{}{}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.stopped:
		return nil
	}
}

func (f *fakeOutput) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return nil
}

func (f *fakeOutput) Resume() error { return nil }

func (f *fakeOutput) Stop() error {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	select {
	case f.stopped <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeOutput) SampleRate() int { return DefaultSampleRate }

func TestNewSpeakerRequiresParts(t *testing.T) {
	if _, err := NewSpeaker(nil, newFakeOutput(false)); err == nil {
		t.Error("expected error for nil synthesizer")
	}
	if _, err := NewSpeaker(&fakeSynth{rate: 22050}, nil); err == nil {
		t.Error("expected error for nil output")
	}
}

func TestSpeakerPlaysAtOutputRate(t *testing.T) {
	out := newFakeOutput(false)
	s, err := NewSpeaker(&fakeSynth{rate: 22050}, out)
	if err != nil {
		t.Fatal(err)
	}

	u := speech.Utterance{Text: "hello", Rate: 1, Pitch: 1, Volume: 0.7}
	if err := s.Speak(context.Background(), u); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	if len(out.played) != 1 {
		t.Fatalf("played %d clips, want 1", len(out.played))
	}
	if out.played[0].SampleRate != DefaultSampleRate {
		t.Errorf("clip rate = %d, want %d", out.played[0].SampleRate, DefaultSampleRate)
	}
	if out.volumes[0] != 0.7 {
		t.Errorf("volume = %v, want 0.7", out.volumes[0])
	}
}

func TestSpeakerUsesCache(t *testing.T) {
	synth := &fakeSynth{rate: DefaultSampleRate}
	out := newFakeOutput(false)
	s, err := NewSpeaker(synth, out, WithCache(cache.NewMemoryCache(1<<20)))
	if err != nil {
		t.Fatal(err)
	}

	u := speech.Utterance{Text: "again", Rate: 1, Pitch: 1, Volume: 1}
	for i := 0; i < 3; i++ {
		if err := s.Speak(context.Background(), u); err != nil {
			t.Fatalf("Speak() error = %v", err)
		}
	}

	if synth.Calls() != 1 {
		t.Errorf("synthesized %d times, want 1", synth.Calls())
	}
	if len(out.played) != 3 {
		t.Errorf("played %d clips, want 3", len(out.played))
	}
}

func TestSpeakerCachesPerVoice(t *testing.T) {
	synth := &fakeSynth{rate: DefaultSampleRate}
	out := newFakeOutput(false)
	s, err := NewSpeaker(synth, out, WithCache(cache.NewMemoryCache(1<<20)))
	if err != nil {
		t.Fatal(err)
	}

	voices := []speech.Voice{
		{ID: "en-gb", Name: "British"},
		{ID: "de", Name: "German"},
		{ID: "en-gb", Name: "British"},
	}
	for _, v := range voices {
		u := speech.Utterance{Text: "hello", Voice: v, Rate: 1, Pitch: 1, Volume: 1}
		if err := s.Speak(context.Background(), u); err != nil {
			t.Fatalf("Speak(%s) error = %v", v.ID, err)
		}
	}

	if synth.Calls() != 2 {
		t.Errorf("synthesized %d times, want 2", synth.Calls())
	}
}

func TestSpeakerSynthesisError(t *testing.T) {
	boom := errors.New("boom")
	out := newFakeOutput(false)
	s, _ := NewSpeaker(&fakeSynth{err: boom}, out)

	err := s.Speak(context.Background(), speech.Utterance{Text: "x", Rate: 1, Pitch: 1, Volume: 1})
	if !errors.Is(err, boom) {
		t.Errorf("Speak() error = %v, want boom", err)
	}
	if len(out.played) != 0 {
		t.Error("nothing should play after a synthesis error")
	}
}

func TestSpeakerCancelAll(t *testing.T) {
	out := newFakeOutput(true)
	s, _ := NewSpeaker(&fakeSynth{rate: DefaultSampleRate}, out)

	done := make(chan error, 1)
	go func() {
		done <- s.Speak(context.Background(), speech.Utterance{Text: "long text", Rate: 1, Pitch: 1, Volume: 1})
	}()

	select {
	case <-out.playing:
	case <-time.After(time.Second):
		t.Fatal("playback never started")
	}

	s.CancelAll()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Speak() error = %v, want nil or context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Speak did not return after CancelAll")
	}
	if out.stops == 0 {
		t.Error("CancelAll should stop the output")
	}
}

func TestSpeakerVoices(t *testing.T) {
	plain, _ := NewSpeaker(&fakeSynth{rate: 22050}, newFakeOutput(false))
	if _, err := plain.Voices(context.Background()); err == nil {
		t.Error("expected error when the synthesizer cannot list voices")
	}

	synth := &listingSynth{fakeSynth{rate: 22050, voices: []speech.Voice{{ID: "a", Name: "A"}}}}
	lister, _ := NewSpeaker(synth, newFakeOutput(false))
	voices, err := lister.Voices(context.Background())
	if err != nil || len(voices) != 1 {
		t.Errorf("Voices() = %v, %v", voices, err)
	}
}

func TestSpeakerPauseForwards(t *testing.T) {
	out := newFakeOutput(false)
	s, _ := NewSpeaker(&fakeSynth{rate: 22050}, out)
	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	if out.pauses != 1 {
		t.Errorf("pauses = %d, want 1", out.pauses)
	}
}
