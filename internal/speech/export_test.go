package speech

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestExport_Shape(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))
	s := DefaultSettings()
	if err := s.ApplyPreset(PresetCalm); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := NewExport("Hello.", s, now).Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if doc["text"] != "Hello." {
		t.Errorf("text = %v", doc["text"])
	}
	if doc["timestamp"] != "2024-03-01T11:30:00Z" {
		t.Errorf("timestamp = %v, want UTC RFC3339", doc["timestamp"])
	}

	settings, ok := doc["settings"].(map[string]interface{})
	if !ok {
		t.Fatalf("settings missing: %v", doc)
	}
	for _, key := range []string{"voice", "language", "rate", "pitch", "volume", "emotion", "emphasis", "naturalPauses"} {
		if _, ok := settings[key]; !ok {
			t.Errorf("settings.%s missing", key)
		}
	}
	if settings["voice"] != ExportDefaultVoice || settings["language"] != ExportDefaultLanguage {
		t.Errorf("voice/language = %v/%v, want defaults", settings["voice"], settings["language"])
	}
	if settings["emotion"] != PresetCalm || settings["naturalPauses"] != true {
		t.Errorf("settings = %v", settings)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  \"settings\"")) {
		t.Error("export is not indented with two spaces")
	}
}

func TestExport_ReadBack(t *testing.T) {
	s := DefaultSettings()
	s.Voice = Voice{ID: "x", Name: "Daniel", Language: "en-GB"}
	s.Volume = 0.7

	var buf bytes.Buffer
	if err := NewExport("Text.", s, time.Now()).Write(&buf); err != nil {
		t.Fatal(err)
	}

	e, err := ReadExport(&buf)
	if err != nil {
		t.Fatalf("ReadExport() error = %v", err)
	}
	got := e.ToSettings()
	if got.Voice.Name != "Daniel" || got.Voice.Language != "en-GB" {
		t.Errorf("voice = %+v", got.Voice)
	}
	if got.Volume != 0.7 || got.Emotion != PresetNeutral || !got.NaturalPauses {
		t.Errorf("settings = %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("read back settings invalid: %v", err)
	}
}

func TestExportFileName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got, want := ExportFileName(now), "tts_export_1700000000123.json"; got != want {
		t.Errorf("ExportFileName() = %q, want %q", got, want)
	}
}
