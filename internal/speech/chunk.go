package speech

import (
	"regexp"
	"strings"
	"time"
)

// Pause lengths inserted after a chunk, keyed by its trailing punctuation.
const (
	SentencePause = 400 * time.Millisecond
	ClausePause   = 200 * time.Millisecond
)

// chunkPattern matches a run of non-punctuation followed by any punctuation
// that closes it.
var chunkPattern = regexp.MustCompile(`[^.!?;:,\n]+[.!?;:,\n]*`)

// Chunk is one fragment of text handed to the engine as a single utterance.
type Chunk struct {
	// Text is the trimmed fragment, never empty when produced with pauses on.
	Text string

	// PauseAfter is how long to wait after the fragment finished speaking.
	PauseAfter time.Duration
}

// Split segments text for playback. With naturalPauses disabled the whole
// trimmed text is returned as a single chunk without a pause.
func Split(text string, naturalPauses bool) []Chunk {
	if !naturalPauses {
		return []Chunk{{Text: strings.TrimSpace(text)}}
	}

	runs := chunkPattern.FindAllString(text, -1)
	if runs == nil {
		runs = []string{text}
	}

	chunks := make([]Chunk, 0, len(runs))
	for _, run := range runs {
		trimmed := strings.TrimSpace(run)
		if trimmed == "" {
			continue
		}
		chunks = append(chunks, Chunk{Text: trimmed, PauseAfter: pauseFor(trimmed)})
	}
	return chunks
}

// pauseFor picks the pause after a trimmed, non-empty fragment.
func pauseFor(fragment string) time.Duration {
	switch {
	case strings.HasSuffix(fragment, "."),
		strings.HasSuffix(fragment, "!"),
		strings.HasSuffix(fragment, "?"):
		return SentencePause
	case strings.HasSuffix(fragment, ","),
		strings.HasSuffix(fragment, ";"),
		strings.HasSuffix(fragment, ":"):
		return ClausePause
	default:
		return 0
	}
}

// Join rejoins chunk texts one per line. Chunks never contain a newline, so
// splitting the result again yields the same chunks.
func Join(chunks []Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n")
}
