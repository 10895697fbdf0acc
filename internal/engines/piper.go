package engines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/orate/internal/audio"
	"github.com/dgnsrekt/orate/internal/speech"
)

// PiperEngine speaks through Piper (offline neural TTS). It starts a fresh
// process per utterance with stdin pre-configured.
type PiperEngine struct {
	binary     string
	modelPath  string
	configPath string
	model      piperModel
	sampleRate int
	timeout    time.Duration
}

// PiperConfig holds configuration for the Piper engine.
type PiperConfig struct {
	// Model file path (required)
	ModelPath string

	// Config file path (defaults to the model path with .json appended)
	ConfigPath string

	// Binary overrides the piper lookup.
	Binary string

	Timeout time.Duration
}

// piperModel is the part of a voice's .onnx.json we use.
type piperModel struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
	Dataset      string         `json:"dataset"`
	SpeakerIDMap map[string]int `json:"speaker_id_map"`
}

// NewPiperEngine creates a Piper engine for a voice model.
func NewPiperEngine(config PiperConfig) (*PiperEngine, error) {
	if config.ModelPath == "" {
		return nil, speech.NewTTSError(speech.ErrorCodeEngineUnavailable, "piper model path is required", nil)
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, speech.NewTTSError(speech.ErrorCodeEngineUnavailable, "piper model file not found", err).
			WithContext("model", config.ModelPath)
	}
	if config.ConfigPath == "" {
		config.ConfigPath = config.ModelPath + ".json"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	binary := config.Binary
	if binary == "" {
		var err error
		if binary, err = lookPath("piper"); err != nil {
			return nil, err
		}
	}

	model, err := loadPiperModel(config.ConfigPath)
	if err != nil {
		log.Warn("Cannot read piper model config, assuming defaults", "path", config.ConfigPath, "error", err)
	}
	sampleRate := model.Audio.SampleRate
	if sampleRate == 0 {
		sampleRate = 22050
	}

	return &PiperEngine{
		binary:     binary,
		modelPath:  config.ModelPath,
		configPath: config.ConfigPath,
		model:      model,
		sampleRate: sampleRate,
		timeout:    config.Timeout,
	}, nil
}

func loadPiperModel(path string) (piperModel, error) {
	var model piperModel
	data, err := os.ReadFile(path)
	if err != nil {
		return model, err
	}
	if err := json.Unmarshal(data, &model); err != nil {
		return model, fmt.Errorf("invalid model config: %w", err)
	}
	return model, nil
}

// Name implements audio.Synthesizer.
func (e *PiperEngine) Name() string {
	return EnginePiper
}

// Synthesize renders u as raw PCM. Piper has no pitch control; pitch is
// ignored.
func (e *PiperEngine) Synthesize(ctx context.Context, u speech.Utterance) (*audio.PCM, error) {
	if err := checkText(u.Text); err != nil {
		return nil, err
	}

	c := command{
		name:    e.binary,
		args:    e.args(u),
		stdin:   strings.NewReader(u.Text),
		timeout: e.timeout,
	}
	out, err := c.run(ctx)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, speech.NewTTSError(speech.ErrorCodeEngineFailure, "piper produced no audio output", nil)
	}
	// drop a trailing odd byte rather than reject the clip
	out = out[:len(out)&^1]
	return audio.NewPCM(out, e.sampleRate)
}

// args builds the piper command line.
// Rate: 0.5 = half speed (length scale 2.0), 2.0 = double speed (0.5).
func (e *PiperEngine) args(u speech.Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	args := []string{
		"--model", e.modelPath,
		"--config", e.configPath,
		"--output-raw",
		"--length-scale", strconv.FormatFloat(1/rate, 'f', 2, 64),
	}
	if id, ok := e.speakerID(u.Voice); ok {
		args = append(args, "--speaker", strconv.Itoa(id))
	}
	return args
}

// speakerID maps a voice to a speaker id, by its numeric ID or else by
// speaker name.
func (e *PiperEngine) speakerID(v speech.Voice) (int, bool) {
	if id, err := strconv.Atoi(v.ID); err == nil {
		return id, true
	}
	id, ok := e.model.SpeakerIDMap[v.Name]
	return id, ok
}

// Voices lists the speakers of the model, or the model itself when it has
// a single speaker.
func (e *PiperEngine) Voices(context.Context) ([]speech.Voice, error) {
	lang := strings.ReplaceAll(e.model.Language.Code, "_", "-")

	if len(e.model.SpeakerIDMap) == 0 {
		name := e.model.Dataset
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(e.modelPath), filepath.Ext(e.modelPath))
		}
		return []speech.Voice{{Name: name, Language: lang, Default: true}}, nil
	}

	voices := make([]speech.Voice, 0, len(e.model.SpeakerIDMap))
	for name, id := range e.model.SpeakerIDMap {
		voices = append(voices, speech.Voice{
			ID:       strconv.Itoa(id),
			Name:     name,
			Language: lang,
			Default:  id == 0,
		})
	}
	sort.Slice(voices, func(i, j int) bool {
		a, _ := strconv.Atoi(voices[i].ID)
		b, _ := strconv.Atoi(voices[j].ID)
		return a < b
	})
	return voices, nil
}

// Info returns engine capabilities.
func (e *PiperEngine) Info() Info {
	return Info{
		Name:        EnginePiper,
		SampleRate:  e.sampleRate,
		MaxTextSize: maxTextSize,
	}
}

// Validate checks the binary runs and the model is readable.
func (e *PiperEngine) Validate() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	c := command{name: e.binary, args: []string{"--version"}, timeout: e.timeout}
	if _, err := c.run(ctx); err != nil {
		return fmt.Errorf("cannot execute piper: %w", err)
	}
	if _, err := os.Stat(e.modelPath); err != nil {
		return fmt.Errorf("model file not accessible: %w", err)
	}
	if _, err := os.Stat(e.configPath); errors.Is(err, os.ErrNotExist) {
		log.Warn("Piper model config missing", "path", e.configPath)
	}
	return nil
}

// Close implements Synthesizer.
func (e *PiperEngine) Close() error {
	return nil
}

var (
	_ Synthesizer        = (*PiperEngine)(nil)
	_ speech.VoiceLister = (*PiperEngine)(nil)
)
