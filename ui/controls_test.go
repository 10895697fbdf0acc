package ui

import (
	"testing"

	"github.com/dgnsrekt/orate/internal/speech"
)

func testVoices() []speech.Voice {
	return []speech.Voice{
		{ID: "en", Name: "English", Language: "en"},
		{ID: "en-gb", Name: "British", Language: "en-GB", Default: true},
		{ID: "de", Name: "German", Language: "de"},
	}
}

func TestSliderMove(t *testing.T) {
	tests := []struct {
		name  string
		s     slider
		value float64
		dir   int
		want  float64
	}{
		{"step up", sliders[controlRate], 1, 1, 1.1},
		{"step down", sliders[controlRate], 1, -1, 0.9},
		{"clamped at max", sliders[controlRate], 2, 1, 2},
		{"clamped at min", sliders[controlVolume], 0, -1, 0},
		{"no drift", sliders[controlPitch], 1.3, -1, 1.2},
		{"volume max", sliders[controlVolume], 0.95, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.move(tt.value, tt.dir); got != tt.want {
				t.Errorf("move(%v, %d) = %v, want %v", tt.value, tt.dir, got, tt.want)
			}
		})
	}
}

func TestSliderFraction(t *testing.T) {
	s := slider{min: 0, max: 2, step: 0.1}
	if got := s.fraction(1); got != 0.5 {
		t.Errorf("fraction(1) = %v, want 0.5", got)
	}
	if got := s.fraction(3); got != 1 {
		t.Errorf("fraction(3) = %v, want 1", got)
	}
	if got := s.fraction(-1); got != 0 {
		t.Errorf("fraction(-1) = %v, want 0", got)
	}
}

func TestNewControlsModel_PicksVoice(t *testing.T) {
	tests := []struct {
		name string
		want speech.Voice
		id   string
	}{
		{"default voice", speech.Voice{}, "en-gb"},
		{"by id", speech.Voice{ID: "de"}, "de"},
		{"by name", speech.Voice{Name: "English"}, "en"},
		{"unknown falls back to default", speech.Voice{ID: "fr"}, "en-gb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := speech.DefaultSettings()
			s.Voice = tt.want
			m := newControlsModel(s, testVoices())
			if got := m.Settings().Voice.ID; got != tt.id {
				t.Errorf("voice = %q, want %q", got, tt.id)
			}
		})
	}
}

func TestNewControlsModel_NoVoices(t *testing.T) {
	m := newControlsModel(speech.DefaultSettings(), nil)
	if got := m.value(controlVoice); got != "default" {
		t.Errorf("voice value = %q, want default", got)
	}

	m.selected = controlVoice
	m.adjust(1)
	if m.Settings().Voice != (speech.Voice{}) {
		t.Errorf("voice changed without voices: %+v", m.Settings().Voice)
	}
}

func TestControls_Adjust(t *testing.T) {
	m := newControlsModel(speech.DefaultSettings(), testVoices())

	m.selected = controlVoice
	m.adjust(1)
	if got := m.Settings().Voice.ID; got != "de" {
		t.Errorf("next voice = %q, want de", got)
	}
	m.adjust(1)
	if got := m.Settings().Voice.ID; got != "en" {
		t.Errorf("voice did not wrap: %q", got)
	}
	m.adjust(-1)
	if got := m.Settings().Voice.ID; got != "de" {
		t.Errorf("previous voice = %q, want de", got)
	}

	m.selected = controlEmotion
	m.adjust(1)
	s := m.Settings()
	if s.Emotion != speech.PresetHappy || s.Rate != 1.1 || s.Pitch != 1.2 || s.Emphasis != 1.3 {
		t.Errorf("happy preset not applied: %+v", s)
	}
	m.adjust(-1)
	if got := m.Settings().Emotion; got != speech.PresetNeutral {
		t.Errorf("previous preset = %q, want neutral", got)
	}

	m.selected = controlVolume
	m.adjust(-1)
	if got := m.Settings().Volume; got != 0.9 {
		t.Errorf("volume = %v, want 0.9", got)
	}

	m.selected = controlPauses
	m.adjust(1)
	if m.Settings().NaturalPauses {
		t.Error("natural pauses should be off")
	}
}

func TestControls_Navigation(t *testing.T) {
	m := newControlsModel(speech.DefaultSettings(), nil)
	m.up()
	if m.selected != controlPauses {
		t.Errorf("up from the first control = %v, want %v", m.selected, controlPauses)
	}
	m.down()
	if m.selected != controlVoice {
		t.Errorf("down from the last control = %v, want %v", m.selected, controlVoice)
	}
}

func TestPrevPreset(t *testing.T) {
	names := speech.PresetNames()
	for _, name := range names {
		if got := prevPreset(speech.NextPreset(name)); got != name {
			t.Errorf("prevPreset(NextPreset(%q)) = %q", name, got)
		}
	}
	if got := prevPreset("bogus"); got != names[0] {
		t.Errorf("prevPreset(bogus) = %q, want %q", got, names[0])
	}
}

func TestControls_Value(t *testing.T) {
	s := speech.DefaultSettings()
	s.Rate = 1.25
	s.NaturalPauses = false
	m := newControlsModel(s, testVoices())

	tests := []struct {
		c    control
		want string
	}{
		{controlVoice, "British (en-GB) - DEFAULT"},
		{controlEmotion, "neutral"},
		{controlRate, "1.2"},
		{controlPauses, "off"},
	}
	for _, tt := range tests {
		t.Run(tt.c.String(), func(t *testing.T) {
			if got := m.value(tt.c); got != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
		})
	}
}
