package engines

import (
	"context"
	"reflect"
	"testing"

	"github.com/dgnsrekt/orate/internal/speech"
)

func TestEspeakArgs(t *testing.T) {
	e, err := NewEspeakEngine(EspeakConfig{Binary: "espeak-ng", Voice: "en-us"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		u    speech.Utterance
		want []string
	}{
		{
			name: "neutral",
			u:    speech.Utterance{Text: "hi", Rate: 1, Pitch: 1},
			want: []string{"-v", "en-us", "-s", "175", "-p", "50", "-w", "out.wav", "--stdin"},
		},
		{
			name: "voice and prosody",
			u:    speech.Utterance{Text: "hi", Voice: speech.Voice{ID: "de", Name: "German"}, Rate: 1.2, Pitch: 1.1},
			want: []string{"-v", "de", "-s", "210", "-p", "55", "-w", "out.wav", "--stdin"},
		},
		{
			name: "clamped",
			u:    speech.Utterance{Text: "hi", Rate: 0.1, Pitch: 3},
			want: []string{"-v", "en-us", "-s", "80", "-p", "99", "-w", "out.wav", "--stdin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.args(tt.u, "out.wav"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEspeakVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-gb           --/M      English_(Great_Britain) gmw/en            (en 2)
 5  en-us           --/M      English_(America)  gmw/en-US            (en 3)

`)
	voices := parseEspeakVoices(out, "en-us")

	want := []speech.Voice{
		{ID: "af", Name: "Afrikaans", Language: "af"},
		{ID: "en-gb", Name: "English (Great Britain)", Language: "en-gb"},
		{ID: "en-us", Name: "English (America)", Language: "en-us", Default: true},
	}
	if !reflect.DeepEqual(voices, want) {
		t.Errorf("parseEspeakVoices() = %+v, want %+v", voices, want)
	}
}

func TestEspeakRejectsEmptyText(t *testing.T) {
	e, _ := NewEspeakEngine(EspeakConfig{Binary: "espeak-ng"})
	_, err := e.Synthesize(context.Background(), speech.Utterance{Text: " "})
	if err == nil {
		t.Error("expected error for blank text")
	}
}
