package engines

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgnsrekt/orate/internal/audio"
	"github.com/dgnsrekt/orate/internal/speech"
	"github.com/mattn/go-shellwords"
)

// ExecEngine runs a user supplied command per utterance. The text is
// written to its stdin and a WAV file is expected on stdout. Arguments may
// contain {voice}, {rate} and {pitch} placeholders; the same values are
// exported as ORATE_VOICE, ORATE_RATE and ORATE_PITCH.
type ExecEngine struct {
	cmd     []string
	timeout time.Duration
}

// ExecConfig holds configuration for the exec engine.
type ExecConfig struct {
	// Command line, parsed with shell quoting rules.
	Command string

	Timeout time.Duration
}

// NewExecEngine parses the command line.
func NewExecEngine(config ExecConfig) (*ExecEngine, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(config.Command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}
	if len(args) == 0 {
		return nil, speech.NewTTSError(speech.ErrorCodeEngineUnavailable, "exec engine command is empty", nil)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &ExecEngine{cmd: args, timeout: config.Timeout}, nil
}

// Name implements audio.Synthesizer.
func (e *ExecEngine) Name() string {
	return EngineExec
}

// Synthesize runs the command and decodes its WAV output.
func (e *ExecEngine) Synthesize(ctx context.Context, u speech.Utterance) (*audio.PCM, error) {
	if err := checkText(u.Text); err != nil {
		return nil, err
	}

	vars := map[string]string{
		"voice": u.Voice.Key(),
		"rate":  strconv.FormatFloat(u.Rate, 'f', 2, 64),
		"pitch": strconv.FormatFloat(u.Pitch, 'f', 2, 64),
	}
	out, err := command{
		name:    e.cmd[0],
		args:    expandArgs(e.cmd[1:], vars),
		stdin:   strings.NewReader(u.Text),
		env:     []string{"ORATE_VOICE=" + vars["voice"], "ORATE_RATE=" + vars["rate"], "ORATE_PITCH=" + vars["pitch"]},
		timeout: e.timeout,
	}.run(ctx)
	if err != nil {
		return nil, err
	}

	pcm, err := audio.DecodeWAV(bytes.NewReader(out))
	if err != nil {
		return nil, speech.NewTTSError(speech.ErrorCodeAudioFormat, "engine command did not print a WAV file", err).
			WithContext("command", e.cmd[0])
	}
	return pcm, nil
}

func expandArgs(args []string, vars map[string]string) []string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = r.Replace(arg)
	}
	return out
}

// Info returns engine capabilities.
func (e *ExecEngine) Info() Info {
	return Info{
		Name:        EngineExec,
		MaxTextSize: maxTextSize,
		CanPitch:    true,
	}
}

// Validate checks the command can be found.
func (e *ExecEngine) Validate() error {
	_, err := lookPath(e.cmd[0])
	return err
}

// Close implements Synthesizer.
func (e *ExecEngine) Close() error {
	return nil
}

var _ Synthesizer = (*ExecEngine)(nil)
