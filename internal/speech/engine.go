package speech

import (
	"context"
)

// Utterance is a single request to vocalize a fragment with fixed prosody.
type Utterance struct {
	Text   string
	Voice  Voice
	Rate   float64
	Pitch  float64
	Volume float64
}

// Engine speaks utterances. Implementations include the audio.Speaker, which
// chains a synthesizer, a cache and an oto player.
type Engine interface {
	// Speak vocalizes u and blocks until it finished (nil), failed (error)
	// or ctx was cancelled (ctx.Err()). Exactly one result per call.
	Speak(ctx context.Context, u Utterance) error

	// CancelAll abandons any pending or in-flight utterance.
	CancelAll()
}

// Pauser is implemented by engines that can suspend in-flight audio.
type Pauser interface {
	Pause() error
	Resume() error
}

// VoiceLister is implemented by engines that can enumerate their voices.
type VoiceLister interface {
	Voices(ctx context.Context) ([]Voice, error)
}
