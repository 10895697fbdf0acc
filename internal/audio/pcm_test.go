package audio

import (
	"testing"
	"time"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		rate      int
		expectErr bool
	}{
		{"aligned", make([]byte, 4), 22050, false},
		{"empty", nil, 44100, false},
		{"odd length", make([]byte, 3), 44100, true},
		{"zero rate", make([]byte, 2), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPCM(tt.data, tt.rate)
			if (err != nil) != tt.expectErr {
				t.Errorf("NewPCM() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

func TestSilenceDuration(t *testing.T) {
	pcm := Silence(500*time.Millisecond, 22050)
	if got := pcm.Duration(); got != 500*time.Millisecond {
		t.Errorf("Duration() = %v, want 500ms", got)
	}
	for _, s := range pcm.Int16s() {
		if s != 0 {
			t.Fatal("silence contains non-zero samples")
		}
	}
}

func TestInt16RoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 1234}
	got := FromInt16s(in, 16000).Int16s()
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], in[i])
		}
	}
}

func TestResample(t *testing.T) {
	src := FromInt16s([]int16{0, 100, 200, 300}, 22050)

	t.Run("same rate returns input", func(t *testing.T) {
		got, err := src.Resample(22050)
		if err != nil {
			t.Fatal(err)
		}
		if got != src {
			t.Error("expected the same PCM back")
		}
	})

	t.Run("upsample doubles length", func(t *testing.T) {
		got, err := src.Resample(44100)
		if err != nil {
			t.Fatal(err)
		}
		if got.SampleRate != 44100 || got.Samples() != 8 {
			t.Fatalf("got rate %d samples %d, want 44100/8", got.SampleRate, got.Samples())
		}
		samples := got.Int16s()
		if samples[1] != 50 {
			t.Errorf("interpolated sample = %d, want 50", samples[1])
		}
		if got.Duration() != src.Duration() {
			t.Errorf("duration changed: %v vs %v", got.Duration(), src.Duration())
		}
	})

	t.Run("invalid rate", func(t *testing.T) {
		if _, err := src.Resample(0); err == nil {
			t.Error("expected error")
		}
	})
}

func TestInt16sFromFloat32(t *testing.T) {
	got := Int16sFromFloat32([]float32{0, 1, -1, 2, -2, 0.5})
	want := []int16{0, 32767, -32767, 32767, -32767, 16383}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}
