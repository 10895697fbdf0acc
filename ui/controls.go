package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgnsrekt/orate/internal/speech"
)

// control is one of the tunable playback settings.
type control int

const (
	controlVoice control = iota
	controlEmotion
	controlRate
	controlPitch
	controlVolume
	controlEmphasis
	controlPauses
	numControls
)

func (c control) String() string {
	return [...]string{
		controlVoice:    "Voice",
		controlEmotion:  "Emotion",
		controlRate:     "Rate",
		controlPitch:    "Pitch",
		controlVolume:   "Volume",
		controlEmphasis: "Emphasis",
		controlPauses:   "Natural pauses",
	}[c]
}

const sliderWidth = 20

// slider bounds a numeric control.
type slider struct {
	min, max, step float64
}

var sliders = map[control]slider{
	controlRate:     {min: 0.5, max: 2, step: 0.1},
	controlPitch:    {min: 0.5, max: 2, step: 0.1},
	controlVolume:   {min: 0, max: 1, step: 0.1},
	controlEmphasis: {min: 0, max: 2, step: 0.1},
}

// move steps v by dir steps and clamps it to the slider range. Values are
// kept at two decimals so repeated steps don't drift.
func (s slider) move(v float64, dir int) float64 {
	v += float64(dir) * s.step
	v = math.Round(v*100) / 100
	return max(s.min, min(s.max, v))
}

// fraction is the position of v within the slider range.
func (s slider) fraction(v float64) float64 {
	if s.max <= s.min {
		return 0
	}
	return max(0, min(1, (v-s.min)/(s.max-s.min)))
}

type controlsModel struct {
	selected control
	settings speech.Settings
	voices   []speech.Voice
	voice    int
}

func newControlsModel(settings speech.Settings, voices []speech.Voice) controlsModel {
	m := controlsModel{
		settings: settings,
		voices:   voices,
		voice:    -1,
	}
	if len(voices) == 0 {
		return m
	}

	m.voice = voiceIndex(voices, settings.Voice)
	m.settings.Voice = voices[m.voice]
	return m
}

// voiceIndex finds want among voices, falling back to the default voice.
func voiceIndex(voices []speech.Voice, want speech.Voice) int {
	for i, v := range voices {
		if want.ID != "" && v.ID == want.ID {
			return i
		}
	}
	for i, v := range voices {
		if want.Name != "" && v.Name == want.Name {
			return i
		}
	}
	def := speech.DefaultVoice(voices)
	for i, v := range voices {
		if v == def {
			return i
		}
	}
	return 0
}

// Settings returns the settings as currently tuned.
func (m controlsModel) Settings() speech.Settings {
	return m.settings
}

func (m *controlsModel) up() {
	m.selected = (m.selected + numControls - 1) % numControls
}

func (m *controlsModel) down() {
	m.selected = (m.selected + 1) % numControls
}

// adjust moves the selected control one step in dir (-1 or +1).
func (m *controlsModel) adjust(dir int) {
	switch m.selected {
	case controlVoice:
		if len(m.voices) == 0 {
			return
		}
		m.voice = (m.voice + dir + len(m.voices)) % len(m.voices)
		m.settings.Voice = m.voices[m.voice]
	case controlEmotion:
		name := speech.NextPreset(m.settings.Emotion)
		if dir < 0 {
			name = prevPreset(m.settings.Emotion)
		}
		_ = m.settings.ApplyPreset(name)
	case controlRate:
		m.settings.Rate = sliders[controlRate].move(m.settings.Rate, dir)
	case controlPitch:
		m.settings.Pitch = sliders[controlPitch].move(m.settings.Pitch, dir)
	case controlVolume:
		m.settings.Volume = sliders[controlVolume].move(m.settings.Volume, dir)
	case controlEmphasis:
		m.settings.Emphasis = sliders[controlEmphasis].move(m.settings.Emphasis, dir)
	case controlPauses:
		m.settings.NaturalPauses = !m.settings.NaturalPauses
	}
}

// prevPreset is the inverse of speech.NextPreset.
func prevPreset(name string) string {
	names := speech.PresetNames()
	for i, n := range names {
		if n == name {
			return names[(i+len(names)-1)%len(names)]
		}
	}
	return names[0]
}

func (m controlsModel) value(c control) string {
	switch c {
	case controlVoice:
		if m.voice < 0 {
			return "default"
		}
		return m.settings.Voice.Label()
	case controlEmotion:
		if m.settings.Emotion == "" {
			return speech.PresetNeutral
		}
		return m.settings.Emotion
	case controlRate:
		return fmt.Sprintf("%.1f", m.settings.Rate)
	case controlPitch:
		return fmt.Sprintf("%.1f", m.settings.Pitch)
	case controlVolume:
		return fmt.Sprintf("%.1f", m.settings.Volume)
	case controlEmphasis:
		return fmt.Sprintf("%.1f", m.settings.Emphasis)
	case controlPauses:
		if m.settings.NaturalPauses {
			return "on"
		}
		return "off"
	}
	return ""
}

func (m controlsModel) number(c control) float64 {
	switch c {
	case controlRate:
		return m.settings.Rate
	case controlPitch:
		return m.settings.Pitch
	case controlVolume:
		return m.settings.Volume
	case controlEmphasis:
		return m.settings.Emphasis
	}
	return 0
}

func sliderView(fraction float64) string {
	filled := int(math.Round(fraction * sliderWidth))
	return sliderFilledStyle.Render(strings.Repeat("━", filled)) +
		sliderEmptyStyle.Render(strings.Repeat("─", sliderWidth-filled))
}

func (m controlsModel) View(focused bool) string {
	var b strings.Builder
	for c := control(0); c < numControls; c++ {
		selected := focused && c == m.selected

		cursor := "  "
		label := controlLabelStyle.Render(c.String())
		value := controlValueStyle.Render(m.value(c))
		if selected {
			cursor = focusedSectionStyle.Render("> ")
			label = selectedControlLabelStyle.Render(c.String())
			value = selectedControlValueStyle.Render(m.value(c))
		}

		b.WriteString(cursor + label)
		if s, ok := sliders[c]; ok {
			b.WriteString(sliderView(s.fraction(m.number(c))) + " ")
		}
		b.WriteString(value)
		if c+1 < numControls {
			b.WriteRune('\n')
		}
	}
	return b.String()
}
