package engines

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgnsrekt/orate/internal/audio"
	"github.com/dgnsrekt/orate/internal/speech"
)

const (
	// espeak speaks 175 words per minute at its default speed
	espeakBaseWPM  = 175
	espeakMinWPM   = 80
	espeakMaxWPM   = 450
	espeakBasePitch = 50
)

// EspeakEngine speaks through espeak-ng, falling back to classic espeak.
type EspeakEngine struct {
	binary  string
	voice   string
	timeout time.Duration
}

// EspeakConfig holds configuration for the espeak engine.
type EspeakConfig struct {
	// Binary overrides the espeak-ng/espeak lookup.
	Binary string

	// Voice used when an utterance names none (defaults to "en").
	Voice string

	Timeout time.Duration
}

// NewEspeakEngine locates espeak and creates the engine.
func NewEspeakEngine(config EspeakConfig) (*EspeakEngine, error) {
	binary := config.Binary
	if binary == "" {
		var err error
		if binary, err = lookPath("espeak-ng", "espeak"); err != nil {
			return nil, err
		}
	}
	if config.Voice == "" {
		config.Voice = "en"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &EspeakEngine{
		binary:  binary,
		voice:   config.Voice,
		timeout: config.Timeout,
	}, nil
}

// Name implements audio.Synthesizer.
func (e *EspeakEngine) Name() string {
	return EngineEspeak
}

// Synthesize renders u to a temporary WAV file and decodes it.
func (e *EspeakEngine) Synthesize(ctx context.Context, u speech.Utterance) (*audio.PCM, error) {
	if err := checkText(u.Text); err != nil {
		return nil, err
	}

	out, err := os.CreateTemp("", "orate-espeak-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp WAV file: %w", err)
	}
	path := out.Name()
	_ = out.Close()
	defer os.Remove(path) //nolint:errcheck

	c := command{
		name:    e.binary,
		args:    e.args(u, path),
		stdin:   strings.NewReader(u.Text),
		timeout: e.timeout,
	}
	if _, err := c.run(ctx); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open espeak output: %w", err)
	}
	defer f.Close() //nolint:errcheck

	pcm, err := audio.DecodeWAV(f)
	if err != nil {
		return nil, speech.NewTTSError(speech.ErrorCodeAudioFormat, "cannot read espeak output", err)
	}
	return pcm, nil
}

// args builds the espeak command line. Text arrives on stdin.
func (e *EspeakEngine) args(u speech.Utterance, wavPath string) []string {
	voice := u.Voice.Key()
	if voice == "" {
		voice = e.voice
	}
	return []string{
		"-v", voice,
		"-s", strconv.Itoa(espeakWPM(u.Rate)),
		"-p", strconv.Itoa(espeakPitch(u.Pitch)),
		"-w", wavPath,
		"--stdin",
	}
}

func espeakWPM(rate float64) int {
	return int(math.Round(clamp(espeakBaseWPM*rate, espeakMinWPM, espeakMaxWPM)))
}

func espeakPitch(pitch float64) int {
	return int(math.Round(clamp(espeakBasePitch*pitch, 0, 99)))
}

// Voices lists the installed espeak voices.
func (e *EspeakEngine) Voices(ctx context.Context) ([]speech.Voice, error) {
	c := command{name: e.binary, args: []string{"--voices"}, timeout: e.timeout}
	out, err := c.run(ctx)
	if err != nil {
		return nil, err
	}
	return parseEspeakVoices(out, e.voice), nil
}

// parseEspeakVoices reads the table printed by `espeak --voices`:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US     (en 3)
func parseEspeakVoices(out []byte, defaultVoice string) []speech.Voice {
	var voices []speech.Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		lang := fields[1]
		voices = append(voices, speech.Voice{
			ID:       lang,
			Name:     strings.ReplaceAll(fields[3], "_", " "),
			Language: lang,
			Default:  strings.EqualFold(lang, defaultVoice),
		})
	}
	return voices
}

// Info returns engine capabilities.
func (e *EspeakEngine) Info() Info {
	return Info{
		Name:        EngineEspeak,
		SampleRate:  22050,
		MaxTextSize: maxTextSize,
		CanPitch:    true,
	}
}

// Validate runs espeak once to make sure it works.
func (e *EspeakEngine) Validate() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	c := command{name: e.binary, args: []string{"--version"}, timeout: e.timeout}
	if _, err := c.run(ctx); err != nil {
		return fmt.Errorf("cannot execute %s: %w", filepath.Base(e.binary), err)
	}
	return nil
}

// Close implements Synthesizer.
func (e *EspeakEngine) Close() error {
	return nil
}

var (
	_ Synthesizer        = (*EspeakEngine)(nil)
	_ speech.VoiceLister = (*EspeakEngine)(nil)
)
