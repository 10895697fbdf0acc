package engines

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dgnsrekt/orate/internal/audio"
	"github.com/dgnsrekt/orate/internal/speech"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/time/rate"
)

// gtts serves 24kHz MP3
const gttsSourceRate = 24000

// gttsTLDs selects the Google domain that gives a regional accent.
var gttsTLDs = map[string]string{
	"en-GB": "co.uk",
	"en-AU": "com.au",
	"en-IN": "co.in",
	"en-CA": "ca",
	"fr-CA": "ca",
	"pt-BR": "com.br",
	"pt-PT": "pt",
	"es-MX": "com.mx",
	"es-ES": "es",
}

// gttsLanguages are offered by Voices.
var gttsLanguages = []string{
	"en-US", "en-GB", "en-AU", "en-IN", "de", "es-ES", "es-MX", "fr", "fr-CA",
	"it", "ja", "ko", "nl", "pl", "pt-BR", "pt-PT", "ru", "sv", "tr", "uk", "zh-CN",
}

// GTTSEngine speaks through gTTS (Google Translate TTS). gtts-cli renders
// MP3 which ffmpeg converts to PCM, applying pitch and rate on the way.
type GTTSEngine struct {
	gtts       string
	ffmpeg     string
	language   string
	slow       bool
	sampleRate int
	timeout    time.Duration

	// keeps us from being blocked by Google
	limiter *rate.Limiter
}

// GTTSConfig holds configuration for the gTTS engine.
type GTTSConfig struct {
	// Language used when an utterance names no voice (defaults to "en").
	Language string

	// Slow speech (--slow flag)
	Slow bool

	// Requests per minute (defaults to 50)
	RequestsPerMinute int

	Timeout time.Duration
}

// NewGTTSEngine locates gtts-cli and ffmpeg and creates the engine.
func NewGTTSEngine(config GTTSConfig) (*GTTSEngine, error) {
	gtts, err := lookPath("gtts-cli")
	if err != nil {
		return nil, err
	}
	ffmpeg, err := lookPath("ffmpeg")
	if err != nil {
		return nil, err
	}
	return newGTTSEngine(gtts, ffmpeg, config), nil
}

func newGTTSEngine(gtts, ffmpeg string, config GTTSConfig) *GTTSEngine {
	if config.Language == "" {
		config.Language = "en"
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 50
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &GTTSEngine{
		gtts:       gtts,
		ffmpeg:     ffmpeg,
		language:   config.Language,
		slow:       config.Slow,
		sampleRate: audio.DefaultSampleRate,
		timeout:    config.Timeout,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}
}

// Name implements audio.Synthesizer.
func (e *GTTSEngine) Name() string {
	return EngineGTTS
}

// Synthesize fetches MP3 for u and converts it to PCM.
func (e *GTTSEngine) Synthesize(ctx context.Context, u speech.Utterance) (*audio.PCM, error) {
	if err := checkText(u.Text); err != nil {
		return nil, err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	mp3, err := command{
		name:    e.gtts,
		args:    e.gttsArgs(u.Voice.Key()),
		stdin:   strings.NewReader(u.Text),
		timeout: e.timeout,
	}.run(ctx)
	if err != nil {
		return nil, err
	}
	if len(mp3) == 0 {
		return nil, speech.NewTTSError(speech.ErrorCodeEngineFailure, "gtts-cli produced no MP3 output", nil)
	}

	raw, err := command{
		name:    e.ffmpeg,
		args:    e.ffmpegArgs(u.Rate, u.Pitch),
		stdin:   bytes.NewReader(mp3),
		timeout: 15 * time.Second,
	}.run(ctx)
	if err != nil {
		return nil, err
	}
	raw = raw[:len(raw)&^1]
	return audio.NewPCM(raw, e.sampleRate)
}

// gttsArgs reads text from stdin and writes MP3 to stdout.
func (e *GTTSEngine) gttsArgs(voice string) []string {
	lang, tld := e.resolve(voice)
	args := []string{"-", "-l", lang}
	if tld != "" {
		args = append(args, "-t", tld)
	}
	if e.slow {
		args = append(args, "--slow")
	}
	return append(args, "-o", "-")
}

// resolve turns a voice id such as "en-GB" into a gtts language and TLD.
func (e *GTTSEngine) resolve(voice string) (string, string) {
	if voice == "" {
		voice = e.language
	}
	tag, err := language.Parse(voice)
	if err != nil {
		return voice, ""
	}
	base, _ := tag.Base()
	lang := base.String()
	if lang == "zh" {
		// gtts only knows the script-qualified Chinese codes
		lang = "zh-CN"
	}
	return lang, gttsTLDs[tag.String()]
}

// ffmpegArgs decodes MP3 from stdin to mono s16le. Pitch is shifted by
// resampling, which also speeds audio up by the same factor, so the tempo
// filter compensates.
func (e *GTTSEngine) ffmpegArgs(speed, pitch float64) []string {
	if speed <= 0 {
		speed = 1
	}
	if pitch <= 0 {
		pitch = 1
	}

	var filters []string
	if pitch != 1 {
		filters = append(filters,
			"asetrate="+strconv.Itoa(int(math.Round(gttsSourceRate*pitch))),
			"aresample="+strconv.Itoa(e.sampleRate),
		)
	}
	filters = append(filters, atempoChain(speed/pitch)...)

	args := []string{"-hide_banner", "-loglevel", "error", "-f", "mp3", "-i", "pipe:0"}
	if len(filters) > 0 {
		args = append(args, "-filter:a", strings.Join(filters, ","))
	}
	return append(args,
		"-f", "s16le",
		"-ar", strconv.Itoa(e.sampleRate),
		"-ac", "1",
		"pipe:1",
	)
}

// atempoChain splits a tempo factor into atempo filters; each one only
// accepts 0.5 to 2.0.
func atempoChain(factor float64) []string {
	var chain []string
	for factor > 2 {
		chain = append(chain, "atempo=2.0")
		factor /= 2
	}
	for factor < 0.5 {
		chain = append(chain, "atempo=0.5")
		factor /= 0.5
	}
	if math.Abs(factor-1) > 0.005 {
		chain = append(chain, "atempo="+strconv.FormatFloat(factor, 'f', 2, 64))
	}
	return chain
}

// Voices lists the languages and accents gtts offers.
func (e *GTTSEngine) Voices(context.Context) ([]speech.Voice, error) {
	def, _ := e.resolve("")
	names := display.English.Tags()

	voices := make([]speech.Voice, 0, len(gttsLanguages))
	for _, code := range gttsLanguages {
		tag := language.MustParse(code)
		lang, _ := e.resolve(code)
		voices = append(voices, speech.Voice{
			ID:       code,
			Name:     "Google " + names.Name(tag),
			Language: code,
			Default:  lang == def && gttsTLDs[code] == "",
		})
	}
	return voices, nil
}

// Info returns engine capabilities.
func (e *GTTSEngine) Info() Info {
	return Info{
		Name:        EngineGTTS,
		SampleRate:  e.sampleRate,
		MaxTextSize: maxTextSize,
		IsOnline:    true,
		CanPitch:    true,
	}
}

// Validate checks both binaries run.
func (e *GTTSEngine) Validate() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if _, err := (command{name: e.gtts, args: []string{"--help"}, timeout: e.timeout}).run(ctx); err != nil {
		return fmt.Errorf("cannot execute gtts-cli: %w\n\nInstall with: pip install gtts", err)
	}
	if _, err := (command{name: e.ffmpeg, args: []string{"-version"}, timeout: e.timeout}).run(ctx); err != nil {
		return fmt.Errorf("cannot execute ffmpeg: %w", err)
	}
	return nil
}

// Close implements Synthesizer.
func (e *GTTSEngine) Close() error {
	return nil
}

var (
	_ Synthesizer        = (*GTTSEngine)(nil)
	_ speech.VoiceLister = (*GTTSEngine)(nil)
)
