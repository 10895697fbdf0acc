package speech

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// naturalVoice matches voice names that usually sound less robotic.
var naturalVoice = regexp.MustCompile(`(?i)natural|enhanced|neural|premium`)

// Voice describes one voice an engine offers.
type Voice struct {
	ID       string
	Name     string
	Language string
	Default  bool
}

// Tag parses the voice language. Unknown or empty languages yield
// language.Und.
func (v Voice) Tag() language.Tag {
	tag, err := language.Parse(v.Language)
	if err != nil {
		return language.Und
	}
	return tag
}

// IsNatural reports whether the voice name advertises a natural or neural
// voice.
func (v Voice) IsNatural() bool {
	return naturalVoice.MatchString(v.Name)
}

// Key is what engines select the voice by: the ID, or the name for voices
// that have none.
func (v Voice) Key() string {
	if v.ID != "" {
		return v.ID
	}
	return v.Name
}

// Label is the voice as shown in pickers: "Name (lang)" plus a marker for
// the engine default.
func (v Voice) Label() string {
	label := v.Name
	if v.Language != "" {
		label = fmt.Sprintf("%s (%s)", v.Name, v.Language)
	}
	if v.Default {
		label += " - DEFAULT"
	}
	return label
}

// SortVoices orders voices in place: natural voices first, then by name.
func SortVoices(voices []Voice) {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(voices, func(i, j int) bool {
		a, b := voices[i].IsNatural(), voices[j].IsNatural()
		if a != b {
			return a
		}
		return c.CompareString(voices[i].Name, voices[j].Name) < 0
	})
}

type voiceNames []Voice

func (v voiceNames) String(i int) string { return v[i].Name }
func (v voiceNames) Len() int            { return len(v) }

// FindVoice resolves a user query to a voice: an exact ID or name match
// (case-insensitive) wins, otherwise the best fuzzy name match.
func FindVoice(voices []Voice, query string) (Voice, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return DefaultVoice(voices), nil
	}

	for _, v := range voices {
		if strings.EqualFold(v.ID, query) || strings.EqualFold(v.Name, query) {
			return v, nil
		}
	}

	matches := fuzzy.FindFrom(query, voiceNames(voices))
	if len(matches) == 0 {
		return Voice{}, fmt.Errorf("%w: %q", ErrVoiceNotFound, query)
	}
	return voices[matches[0].Index], nil
}

// DefaultVoice returns the engine default voice, the first voice if none is
// marked, or the zero Voice for an empty list.
func DefaultVoice(voices []Voice) Voice {
	for _, v := range voices {
		if v.Default {
			return v
		}
	}
	if len(voices) > 0 {
		return voices[0]
	}
	return Voice{}
}

// FilterLanguage keeps the voices whose language matches tag's base
// language.
func FilterLanguage(voices []Voice, tag language.Tag) []Voice {
	want, _ := tag.Base()
	var out []Voice
	for _, v := range voices {
		t := v.Tag()
		if t == language.Und {
			continue
		}
		if base, _ := t.Base(); base == want {
			out = append(out, v)
		}
	}
	return out
}
