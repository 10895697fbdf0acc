package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/orate/internal/speech"
)

// maxOutputSize bounds what a subprocess may write to stdout.
const maxOutputSize = 50 * 1024 * 1024

// command describes one subprocess invocation.
type command struct {
	name    string
	args    []string
	stdin   io.Reader
	env     []string
	timeout time.Duration
}

// run executes c and returns its stdout. The process gets c.timeout to
// finish; on cancellation it is interrupted and killed shortly after.
// Cancellation of ctx is reported as ctx.Err(); hitting the timeout as an
// ENGINE_TIMEOUT error.
func (c command) run(ctx context.Context) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.name, c.args...)

	// stdin is pre-seeded so the process never races us for input
	if c.stdin != nil {
		cmd.Stdin = c.stdin
	} else {
		cmd.Stdin = strings.NewReader("")
	}
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// graceful shutdown first, then a hard kill
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = 100 * time.Millisecond

	log.Debug("Running engine command", "cmd", c.name, "args", len(c.args))
	err := cmd.Run()

	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return nil, speech.NewTTSError(speech.ErrorCodeEngineTimeout,
			fmt.Sprintf("%s did not finish within %s", c.name, c.timeout), speech.ErrTimeout)
	case err != nil:
		return nil, speech.NewTTSError(speech.ErrorCodeEngineFailure,
			fmt.Sprintf("%s failed", c.name), err).
			WithContext("stderr", strings.TrimSpace(stderr.String()))
	}

	if stdout.Len() > maxOutputSize {
		return nil, fmt.Errorf("%s output too large: %d bytes (max %d)", c.name, stdout.Len(), maxOutputSize)
	}
	return stdout.Bytes(), nil
}

// lookPath finds the first available binary of names.
func lookPath(names ...string) (string, error) {
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", speech.NewTTSError(speech.ErrorCodeEngineUnavailable,
		fmt.Sprintf("%s not found in PATH", strings.Join(names, " or ")), exec.ErrNotFound)
}
