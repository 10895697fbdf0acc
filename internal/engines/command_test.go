package engines

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/orate/internal/speech"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestCommandRunPassesStdin(t *testing.T) {
	requireBinary(t, "cat")

	out, err := command{name: "cat", stdin: strings.NewReader("hello"), timeout: time.Second}.run(context.Background())
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("stdout = %q, want hello", out)
	}
}

func TestCommandRunFailure(t *testing.T) {
	requireBinary(t, "sh")

	_, err := command{name: "sh", args: []string{"-c", "echo broken >&2; exit 3"}, timeout: time.Second}.run(context.Background())

	var ttsErr *speech.TTSError
	if !errors.As(err, &ttsErr) {
		t.Fatalf("error = %v, want *TTSError", err)
	}
	if ttsErr.Code != speech.ErrorCodeEngineFailure {
		t.Errorf("Code = %s, want %s", ttsErr.Code, speech.ErrorCodeEngineFailure)
	}
	if ttsErr.Context["stderr"] != "broken" {
		t.Errorf("stderr context = %v, want broken", ttsErr.Context["stderr"])
	}
}

func TestCommandRunTimeout(t *testing.T) {
	requireBinary(t, "sleep")

	_, err := command{name: "sleep", args: []string{"5"}, timeout: 50 * time.Millisecond}.run(context.Background())
	if !errors.Is(err, speech.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestCommandRunCancelled(t *testing.T) {
	requireBinary(t, "sleep")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := command{name: "sleep", args: []string{"5"}, timeout: 5 * time.Second}.run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation did not stop the process promptly")
	}
}

func TestLookPathMissing(t *testing.T) {
	_, err := lookPath("orate-definitely-missing-binary")
	if !speech.IsFatal(err) {
		t.Errorf("missing binary should be fatal, got %v", err)
	}
}
