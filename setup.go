package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/orate/internal/audio"
	"github.com/dgnsrekt/orate/internal/cache"
	"github.com/dgnsrekt/orate/internal/engines"
	"github.com/dgnsrekt/orate/internal/record"
	"github.com/dgnsrekt/orate/internal/speech"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

const voicesTimeout = 10 * time.Second

// setDefaults registers config defaults. Rate, pitch and emphasis are left
// unset so an emotion preset can supply them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("engine", engines.EngineEspeak)
	v.SetDefault("style", styles.AutoStyle)
	v.SetDefault("width", 0)
	v.SetDefault("volume", speech.DefaultVolume)
	v.SetDefault("pauses", true)

	v.SetDefault("espeak.voice", "en")
	v.SetDefault("espeak.timeout", 10*time.Second)
	v.SetDefault("piper.timeout", 30*time.Second)
	v.SetDefault("gtts.language", "en")
	v.SetDefault("gtts.slow", false)
	v.SetDefault("gtts.requests_per_minute", 50)
	v.SetDefault("gtts.timeout", 30*time.Second)
	v.SetDefault("exec.timeout", 30*time.Second)
	v.SetDefault("mock.word_duration", 300*time.Millisecond)

	v.SetDefault("audio.sample_rate", audio.DefaultSampleRate)
	v.SetDefault("audio.buffer", 100*time.Millisecond)

	def := cache.DefaultConfig()
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.memory_mb", def.MemoryCapacity>>20)
	v.SetDefault("cache.disk_mb", def.DiskCapacity>>20)
	v.SetDefault("cache.compression", def.CompressionLevel)
	v.SetDefault("cache.ttl", def.TTL)
	v.SetDefault("cache.cleanup_interval", def.CleanupInterval)
}

// expandPath expands environment variables and a leading ~.
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	p, err := homedir.Expand(os.ExpandEnv(path))
	if err != nil {
		return path
	}
	return p
}

func engineConfig(v *viper.Viper) engines.Config {
	return engines.Config{
		Espeak: engines.EspeakConfig{
			Binary:  v.GetString("espeak.binary"),
			Voice:   v.GetString("espeak.voice"),
			Timeout: v.GetDuration("espeak.timeout"),
		},
		Piper: engines.PiperConfig{
			Binary:     v.GetString("piper.binary"),
			ModelPath:  expandPath(v.GetString("piper.model")),
			ConfigPath: expandPath(v.GetString("piper.config")),
			Timeout:    v.GetDuration("piper.timeout"),
		},
		GTTS: engines.GTTSConfig{
			Language:          v.GetString("gtts.language"),
			Slow:              v.GetBool("gtts.slow"),
			RequestsPerMinute: v.GetInt("gtts.requests_per_minute"),
			Timeout:           v.GetDuration("gtts.timeout"),
		},
		Exec: engines.ExecConfig{
			Command: v.GetString("exec.command"),
			Timeout: v.GetDuration("exec.timeout"),
		},
		Mock: engines.MockConfig{
			WordDuration: v.GetDuration("mock.word_duration"),
		},
	}
}

func defaultCacheDir() (string, error) {
	dir, err := gap.NewScope(gap.User, "orate").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "clips"), nil
}

func cacheConfig(v *viper.Viper) (cache.Config, error) {
	dir := expandPath(v.GetString("cache.dir"))
	if dir == "" {
		var err error
		if dir, err = defaultCacheDir(); err != nil {
			return cache.Config{}, err
		}
	}
	return cache.Config{
		MemoryCapacity:   v.GetInt64("cache.memory_mb") << 20,
		DiskCapacity:     v.GetInt64("cache.disk_mb") << 20,
		DiskPath:         dir,
		CompressionLevel: v.GetInt("cache.compression"),
		TTL:              v.GetDuration("cache.ttl"),
		CleanupInterval:  v.GetDuration("cache.cleanup_interval"),
	}, nil
}

// services wires an engine to the audio device, the clip cache and a
// playback controller.
type services struct {
	synth      engines.Synthesizer
	player     *audio.Player
	cache      *cache.Manager
	speaker    *audio.Speaker
	controller *speech.Controller
	input      *record.PortAudioInput
}

func newServices(name string) (*services, error) {
	v := viper.GetViper()

	synth, err := engines.New(name, engineConfig(v))
	if err != nil {
		return nil, err
	}
	if err := synth.Validate(); err != nil {
		_ = synth.Close()
		return nil, fmt.Errorf("%s engine is not available: %w", name, err)
	}

	player, err := audio.NewPlayer(audio.PlayerConfig{
		SampleRate: v.GetInt("audio.sample_rate"),
		BufferSize: v.GetDuration("audio.buffer"),
	})
	if err != nil {
		_ = synth.Close()
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}

	svc := &services{synth: synth, player: player}

	var opts []audio.SpeakerOption
	if v.GetBool("cache.enabled") {
		cfg, err := cacheConfig(v)
		if err == nil {
			svc.cache, err = cache.NewManager(cfg)
		}
		if err != nil {
			log.Warn("Audio cache disabled", "error", err)
		} else {
			log.Debug("Using audio cache", "path", cfg.DiskPath)
			opts = append(opts, audio.WithCache(svc.cache))
		}
	}

	if svc.speaker, err = audio.NewSpeaker(synth, player, opts...); err != nil {
		_ = svc.Close()
		return nil, err
	}
	if svc.controller, err = speech.NewController(svc.speaker); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

// voices lists the engine's voices, or nil when it has none to offer.
func (s *services) voices() []speech.Voice {
	ctx, cancel := context.WithTimeout(context.Background(), voicesTimeout)
	defer cancel()

	voices, err := s.speaker.Voices(ctx)
	if err != nil {
		log.Warn("Unable to list voices", "engine", s.synth.Name(), "error", err)
		return nil
	}
	speech.SortVoices(voices)
	return voices
}

// recorder returns a microphone recorder. The device is opened on Start.
func (s *services) recorder() *record.Recorder {
	if s.input == nil {
		s.input = record.NewPortAudioInput()
	}
	return record.NewRecorder(s.input, record.DefaultSampleRate)
}

func (s *services) Close() error {
	var errs []error
	if s.controller != nil {
		s.controller.Stop()
	}
	if s.player != nil {
		errs = append(errs, s.player.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	errs = append(errs, s.synth.Close())
	return errors.Join(errs...)
}
