package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/orate/internal/cache"
	"github.com/dgnsrekt/orate/internal/speech"
	"github.com/spf13/viper"
)

func newTestViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestSettingsFrom(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		want    speech.Settings
		wantErr error
	}{
		{
			name:   "defaults",
			values: nil,
			want:   speech.DefaultSettings(),
		},
		{
			name:   "preset",
			values: map[string]any{"emotion": "happy"},
			want: speech.Settings{
				Rate: 1.1, Pitch: 1.2, Volume: 1, Emphasis: 1.3,
				Emotion: speech.PresetHappy, NaturalPauses: true,
			},
		},
		{
			name:   "explicit rate overrides the preset",
			values: map[string]any{"emotion": "sad", "rate": 1.5},
			want: speech.Settings{
				Rate: 1.5, Pitch: 0.9, Volume: 1, Emphasis: 0.8,
				Emotion: speech.PresetSad, NaturalPauses: true,
			},
		},
		{
			name:   "voice and pauses",
			values: map[string]any{"voice": "en-gb", "pauses": false, "volume": 0.5},
			want: speech.Settings{
				Rate: 1, Pitch: 1, Volume: 0.5, Emphasis: 1,
				Emotion:       speech.PresetNeutral,
				Voice:         speech.Voice{ID: "en-gb", Name: "en-gb"},
				NaturalPauses: false,
			},
		},
		{
			name:    "unknown preset",
			values:  map[string]any{"emotion": "grumpy"},
			wantErr: speech.ErrUnknownPreset,
		},
		{
			name:    "volume out of range",
			values:  map[string]any{"volume": 1.5},
			wantErr: speech.ErrInvalidSettings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := settingsFrom(newTestViper(tt.values))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("settings = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEngineConfig(t *testing.T) {
	v := newTestViper(map[string]any{
		"piper.model":  "~/voices/en.onnx",
		"exec.command": "say {voice}",
		"gtts.slow":    true,
	})
	cfg := engineConfig(v)

	if cfg.Espeak.Voice != "en" || cfg.Espeak.Timeout != 10*time.Second {
		t.Errorf("espeak config = %+v", cfg.Espeak)
	}
	if strings.HasPrefix(cfg.Piper.ModelPath, "~") || !strings.HasSuffix(cfg.Piper.ModelPath, filepath.Join("voices", "en.onnx")) {
		t.Errorf("piper model path not expanded: %q", cfg.Piper.ModelPath)
	}
	if cfg.Piper.ConfigPath != "" {
		t.Errorf("piper config path = %q, want empty", cfg.Piper.ConfigPath)
	}
	if !cfg.GTTS.Slow || cfg.GTTS.RequestsPerMinute != 50 {
		t.Errorf("gtts config = %+v", cfg.GTTS)
	}
	if cfg.Exec.Command != "say {voice}" {
		t.Errorf("exec command = %q", cfg.Exec.Command)
	}
	if cfg.Mock.WordDuration != 300*time.Millisecond {
		t.Errorf("mock word duration = %v", cfg.Mock.WordDuration)
	}
}

func TestCacheConfig(t *testing.T) {
	dir := t.TempDir()
	v := newTestViper(map[string]any{
		"cache.dir":       dir,
		"cache.memory_mb": 8,
	})

	cfg, err := cacheConfig(v)
	if err != nil {
		t.Fatalf("cacheConfig() error = %v", err)
	}
	if cfg.DiskPath != dir {
		t.Errorf("disk path = %q, want %q", cfg.DiskPath, dir)
	}
	if cfg.MemoryCapacity != 8<<20 {
		t.Errorf("memory capacity = %d", cfg.MemoryCapacity)
	}
	def := cache.DefaultConfig()
	if cfg.DiskCapacity != def.DiskCapacity || cfg.TTL != def.TTL || cfg.CompressionLevel != def.CompressionLevel {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestCacheConfig_DefaultDir(t *testing.T) {
	cfg, err := cacheConfig(newTestViper(nil))
	if err != nil {
		t.Fatalf("cacheConfig() error = %v", err)
	}
	if filepath.Base(cfg.DiskPath) != "clips" {
		t.Errorf("disk path = %q, want a clips directory", cfg.DiskPath)
	}
}

func TestReadText(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(md, []byte("# Title\n\nSome *text*.\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		inline  string
		args    []string
		stdin   string
		want    string
		wantErr error
	}{
		{name: "inline", inline: "  hello there ", want: "hello there"},
		{name: "stdin", args: []string{"-"}, stdin: "from a pipe\n", want: "from a pipe"},
		{name: "stdin without args", stdin: "piped", want: "piped"},
		{name: "markdown file", args: []string{md}, want: "Title\nSome text."},
		{name: "empty stdin", args: []string{"-"}, stdin: "  \n", wantErr: speech.ErrEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inlineText = tt.inline
			t.Cleanup(func() { inlineText = "" })

			got, err := readText(tt.args, strings.NewReader(tt.stdin))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("readText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateStyle(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "style.json")
	if err := os.WriteFile(custom, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		style   string
		wantErr bool
	}{
		{"auto", false},
		{"dark", false},
		{custom, false},
		{filepath.Join(t.TempDir(), "missing.json"), true},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			if err := validateStyle(tt.style); (err != nil) != tt.wantErr {
				t.Errorf("validateStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
			}
		})
	}
}

func TestExportPath(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	got, err := exportPath("", "/tmp/exports", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/exports", "tts_export_1700000000000.json"); got != want {
		t.Errorf("exportPath() = %q, want %q", got, want)
	}

	got, err = exportPath("out.json", "/tmp/exports", now)
	if err != nil {
		t.Fatal(err)
	}
	if got != "out.json" {
		t.Errorf("exportPath() = %q, want out.json", got)
	}
}

func TestWriteAndReadExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "export.json")
	s := speech.DefaultSettings()
	s.Voice = speech.Voice{ID: "en-gb", Name: "British", Language: "en-GB"}
	if err := s.ApplyPreset(speech.PresetCalm); err != nil {
		t.Fatal(err)
	}

	if err := writeExport(path, "Hello. World!", s, time.Now()); err != nil {
		t.Fatalf("writeExport() error = %v", err)
	}
	e, err := readExportFile(path)
	if err != nil {
		t.Fatalf("readExportFile() error = %v", err)
	}
	if e.Text != "Hello. World!" {
		t.Errorf("text = %q", e.Text)
	}
	got := e.ToSettings()
	if got.Voice.Name != "British" || got.Emotion != speech.PresetCalm || got.Rate != 0.9 {
		t.Errorf("settings = %+v", got)
	}

	var buf bytes.Buffer
	printExport(&buf, e)
	if !strings.Contains(buf.String(), "British (en-GB)") || !strings.HasSuffix(buf.String(), "Hello. World!\n") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}
}

func TestReadExportFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	doc := `{"text":"hi","settings":{"voice":"default","rate":0,"pitch":1,"volume":1}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := readExportFile(path); !errors.Is(err, speech.ErrInvalidSettings) {
		t.Errorf("error = %v, want %v", err, speech.ErrInvalidSettings)
	}
}

func TestPrintVoices(t *testing.T) {
	var buf bytes.Buffer
	printVoices(&buf, []speech.Voice{
		{ID: "neural-1", Name: "Aria Neural", Language: "en-US"},
		{ID: "en", Name: "English", Language: "en", Default: true},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "★") || !strings.Contains(lines[0], "Aria Neural (en-US)") {
		t.Errorf("natural voice line = %q", lines[0])
	}
	if strings.Contains(lines[1], "★") || !strings.Contains(lines[1], "English (en) - DEFAULT") {
		t.Errorf("default voice line = %q", lines[1])
	}
}

func TestCLIHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := cliHooks(&buf)
	hooks.OnStart(speech.PresetHappy)
	hooks.OnChunk(0, 2, speech.Chunk{Text: "Hello there."})
	hooks.OnError(errors.New("boom"))
	hooks.OnComplete()

	out := buf.String()
	for _, want := range []string{"Speaking with", "happy", "1/2", "Hello there.", "boom", "Finished speaking!"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintCacheStats(t *testing.T) {
	var buf bytes.Buffer
	cfg := cache.Config{DiskPath: "/tmp/clips", TTL: time.Hour}
	printCacheStats(&buf, cfg, cache.ManagerStats{
		Disk: cache.Stats{ItemCount: 1200, Size: 2048, Capacity: 1 << 20},
	})

	out := buf.String()
	for _, want := range []string{"/tmp/clips", "1,200", "2.0 KiB of 1.0 MiB", "1h0m0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
