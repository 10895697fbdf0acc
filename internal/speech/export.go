package speech

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Fallbacks used in exports when no voice is selected.
const (
	ExportDefaultVoice    = "default"
	ExportDefaultLanguage = "en-US"
)

// Export is the JSON document produced by "export settings".
type Export struct {
	Text      string         `json:"text"`
	Settings  ExportSettings `json:"settings"`
	Timestamp time.Time      `json:"timestamp"`
}

// ExportSettings mirrors Settings with the voice flattened to name and
// language.
type ExportSettings struct {
	Voice         string  `json:"voice"`
	Language      string  `json:"language"`
	Rate          float64 `json:"rate"`
	Pitch         float64 `json:"pitch"`
	Volume        float64 `json:"volume"`
	Emotion       string  `json:"emotion"`
	Emphasis      float64 `json:"emphasis"`
	NaturalPauses bool    `json:"naturalPauses"`
}

// NewExport builds the export record for text and settings at now.
func NewExport(text string, s Settings, now time.Time) Export {
	voice, lang := s.Voice.Name, s.Voice.Language
	if voice == "" {
		voice = ExportDefaultVoice
	}
	if lang == "" {
		lang = ExportDefaultLanguage
	}
	return Export{
		Text: text,
		Settings: ExportSettings{
			Voice:         voice,
			Language:      lang,
			Rate:          s.Rate,
			Pitch:         s.Pitch,
			Volume:        s.Volume,
			Emotion:       s.Emotion,
			Emphasis:      s.Emphasis,
			NaturalPauses: s.NaturalPauses,
		},
		Timestamp: now.UTC(),
	}
}

// ExportFileName is the suggested file name for an export made at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("tts_export_%d.json", now.UnixMilli())
}

// Write encodes the export as indented JSON.
func (e Export) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("unable to encode export: %w", err)
	}
	return nil
}

// ReadExport decodes an export document.
func ReadExport(r io.Reader) (Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return Export{}, fmt.Errorf("unable to decode export: %w", err)
	}
	return e, nil
}

// ToSettings converts the exported settings back. The voice only carries a
// name and language; callers resolve it against the engine's voices.
func (e Export) ToSettings() Settings {
	s := Settings{
		Rate:          e.Settings.Rate,
		Pitch:         e.Settings.Pitch,
		Volume:        e.Settings.Volume,
		Emphasis:      e.Settings.Emphasis,
		Emotion:       e.Settings.Emotion,
		NaturalPauses: e.Settings.NaturalPauses,
	}
	if e.Settings.Voice != ExportDefaultVoice {
		s.Voice = Voice{Name: e.Settings.Voice, Language: e.Settings.Language}
	}
	return s
}
