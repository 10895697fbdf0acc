package speech

import (
	"fmt"
	"sort"
)

// Emotion preset names.
const (
	PresetNeutral      = "neutral"
	PresetHappy        = "happy"
	PresetSad          = "sad"
	PresetExcited      = "excited"
	PresetCalm         = "calm"
	PresetSerious      = "serious"
	PresetStorytelling = "storytelling"
)

// Preset is a named rate/pitch/emphasis combination.
type Preset struct {
	Rate     float64
	Pitch    float64
	Emphasis float64
}

var presets = map[string]Preset{
	PresetNeutral:      {Rate: 1, Pitch: 1, Emphasis: 1},
	PresetHappy:        {Rate: 1.1, Pitch: 1.2, Emphasis: 1.3},
	PresetSad:          {Rate: 0.85, Pitch: 0.9, Emphasis: 0.8},
	PresetExcited:      {Rate: 1.3, Pitch: 1.3, Emphasis: 1.4},
	PresetCalm:         {Rate: 0.9, Pitch: 0.95, Emphasis: 0.9},
	PresetSerious:      {Rate: 0.95, Pitch: 0.85, Emphasis: 1.1},
	PresetStorytelling: {Rate: 1, Pitch: 1.05, Emphasis: 1.2},
}

// presetOrder is the order presets are offered in the UI.
var presetOrder = []string{
	PresetNeutral,
	PresetHappy,
	PresetSad,
	PresetExcited,
	PresetCalm,
	PresetSerious,
	PresetStorytelling,
}

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// PresetNames lists the presets in display order.
func PresetNames() []string {
	names := make([]string, len(presetOrder))
	copy(names, presetOrder)
	return names
}

// NextPreset returns the preset after name, wrapping around. Unknown names
// start over at the first preset.
func NextPreset(name string) string {
	for i, n := range presetOrder {
		if n == name {
			return presetOrder[(i+1)%len(presetOrder)]
		}
	}
	return presetOrder[0]
}

// ApplyPreset copies the preset's rate, pitch and emphasis into s and records
// the emotion label. Volume, voice and pauses are left alone.
func (s *Settings) ApplyPreset(name string) error {
	p, ok := presets[name]
	if !ok {
		known := PresetNames()
		sort.Strings(known)
		return fmt.Errorf("%w: %q (known: %v)", ErrUnknownPreset, name, known)
	}
	s.Rate = p.Rate
	s.Pitch = p.Pitch
	s.Emphasis = p.Emphasis
	s.Emotion = name
	return nil
}
