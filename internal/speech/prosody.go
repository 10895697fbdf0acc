package speech

import (
	"fmt"
	"math"
	"strings"
)

// Default prosody values, matching the neutral preset.
const (
	DefaultRate     = 1.0
	DefaultPitch    = 1.0
	DefaultVolume   = 1.0
	DefaultEmphasis = 1.0
)

// jitterScale bounds the random rate/pitch variation to ±5% per unit of
// emphasis.
const jitterScale = 0.1

// Settings is the snapshot of user-tunable options a playback run uses.
type Settings struct {
	Voice         Voice
	Rate          float64
	Pitch         float64
	Volume        float64
	Emphasis      float64
	Emotion       string
	NaturalPauses bool
}

// DefaultSettings returns neutral settings with natural pauses enabled.
func DefaultSettings() Settings {
	return Settings{
		Rate:          DefaultRate,
		Pitch:         DefaultPitch,
		Volume:        DefaultVolume,
		Emphasis:      DefaultEmphasis,
		Emotion:       PresetNeutral,
		NaturalPauses: true,
	}
}

// Validate checks the numeric ranges of the prosody values.
func (s Settings) Validate() error {
	switch {
	case !(s.Rate > 0):
		return fmt.Errorf("%w: rate must be positive, got %v", ErrInvalidSettings, s.Rate)
	case !(s.Pitch > 0):
		return fmt.Errorf("%w: pitch must be positive, got %v", ErrInvalidSettings, s.Pitch)
	case !(s.Volume >= 0 && s.Volume <= 1):
		return fmt.Errorf("%w: volume must be between 0 and 1, got %v", ErrInvalidSettings, s.Volume)
	case !(s.Emphasis >= 0):
		return fmt.Errorf("%w: emphasis must not be negative, got %v", ErrInvalidSettings, s.Emphasis)
	}
	return nil
}

// Prosody is the effective rate, pitch and volume for one chunk.
type Prosody struct {
	Rate   float64
	Pitch  float64
	Volume float64
}

// Vary derives the prosody of a chunk from the settings and a uniform draw
// in [0,1). Questions raise the pitch and exclamations get louder and
// slightly slower; those overrides replace the jittered value.
func Vary(text string, s Settings, draw float64) Prosody {
	variation := (draw - 0.5) * jitterScale * s.Emphasis

	p := Prosody{
		Rate:   s.Rate * (1 + variation),
		Pitch:  s.Pitch * (1 + variation),
		Volume: s.Volume,
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "?") {
		p.Pitch = s.Pitch * 1.1
	}
	if strings.HasSuffix(trimmed, "!") {
		p.Volume = math.Min(1, p.Volume*1.2)
		p.Rate = s.Rate * 0.95
	}
	return p
}

// utterance builds the engine request for a chunk.
func (s Settings) utterance(c Chunk, draw float64) Utterance {
	p := Vary(c.Text, s, draw)
	return Utterance{
		Text:   c.Text,
		Voice:  s.Voice,
		Rate:   p.Rate,
		Pitch:  p.Pitch,
		Volume: p.Volume,
	}
}
