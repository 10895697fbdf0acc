package engines

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgnsrekt/orate/internal/audio"
	"github.com/dgnsrekt/orate/internal/speech"
)

// Engine names accepted by New.
const (
	EngineEspeak = "espeak"
	EnginePiper  = "piper"
	EngineGTTS   = "gtts"
	EngineExec   = "exec"
	EngineMock   = "mock"
)

// maxTextSize bounds a single utterance for every engine.
const maxTextSize = 5000

var (
	// ErrNoEngineConfigured is returned when no engine was selected
	ErrNoEngineConfigured = errors.New("no speech engine configured")

	// ErrInvalidEngine is returned for an unknown engine name
	ErrInvalidEngine = errors.New("invalid speech engine")
)

// Synthesizer is a speech engine backend.
type Synthesizer interface {
	audio.Synthesizer

	// Info returns engine capabilities.
	Info() Info

	// Validate checks the engine's binaries and files are usable.
	Validate() error

	// Close releases any resources held by the engine.
	Close() error
}

// Info describes engine capabilities.
type Info struct {
	Name        string
	SampleRate  int
	MaxTextSize int
	IsOnline    bool
	CanPitch    bool
}

// Config holds the settings of every engine; New picks the relevant part.
type Config struct {
	Espeak EspeakConfig
	Piper  PiperConfig
	GTTS   GTTSConfig
	Exec   ExecConfig
	Mock   MockConfig
}

// Names lists the engine names New accepts.
func Names() []string {
	return []string{EngineEspeak, EnginePiper, EngineGTTS, EngineExec, EngineMock}
}

// ValidateEngineSelection resolves the engine to use. The command line
// argument wins over the configured value; aliases are normalized.
func ValidateEngineSelection(cliArg, configured string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(cliArg))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(configured))
	}

	switch name {
	case "":
		return "", fmt.Errorf("%w\n\nPlease specify an engine:\n  orate --engine espeak notes.md\n  orate --engine piper notes.md\n\nOr set a default in orate.yml:\n  engine: espeak", ErrNoEngineConfigured)
	case EngineEspeak, "espeak-ng":
		return EngineEspeak, nil
	case EnginePiper:
		return EnginePiper, nil
	case EngineGTTS, "google":
		return EngineGTTS, nil
	case EngineExec, "command":
		return EngineExec, nil
	case EngineMock:
		return EngineMock, nil
	default:
		return "", fmt.Errorf("%w: %s\n\nSupported engines: %s", ErrInvalidEngine, name, strings.Join(Names(), ", "))
	}
}

// New creates the named engine.
func New(name string, cfg Config) (Synthesizer, error) {
	name, err := ValidateEngineSelection(name, "")
	if err != nil {
		return nil, err
	}

	var synth Synthesizer
	switch name {
	case EngineEspeak:
		synth, err = NewEspeakEngine(cfg.Espeak)
	case EnginePiper:
		synth, err = NewPiperEngine(cfg.Piper)
	case EngineGTTS:
		synth, err = NewGTTSEngine(cfg.GTTS)
	case EngineExec:
		synth, err = NewExecEngine(cfg.Exec)
	default:
		synth = NewMockEngine(cfg.Mock)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s engine: %w", name, err)
	}
	return synth, nil
}

// checkText rejects utterances no engine should receive.
func checkText(text string) error {
	if strings.TrimSpace(text) == "" {
		return speech.NewTTSError(speech.ErrorCodeInvalidInput, "text cannot be empty", nil)
	}
	if len(text) > maxTextSize {
		return speech.NewTTSError(speech.ErrorCodeTextTooLong,
			fmt.Sprintf("text too long: %d characters (max %d)", len(text), maxTextSize), nil).
			WithContext("size", len(text))
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
