package ui

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/orate/internal/audio"
	"github.com/dgnsrekt/orate/internal/record"
	"github.com/dgnsrekt/orate/internal/speech"
	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
)

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	statusMessageTimeoutMsg int
	contentRenderedMsg      string
	reloadMsg               struct{}
	editorFinishedMsg       struct{ err error }
	clipboardMsg            string
)

// Text loading results.
type (
	textLoadedMsg struct {
		text   string
		source string
		path   string
	}
	textLoadFailedMsg struct{ err error }
)

// Playback messages carry the sequence number of the Play call they belong
// to so events from a replaced session are ignored.
type (
	sessionStartedMsg struct {
		seq     int
		session *speech.Session
	}
	sessionFailedMsg struct {
		seq int
		err error
	}
	speechStartedMsg struct {
		seq     int
		emotion string
	}
	chunkStartedMsg struct {
		seq   int
		index int
		total int
		text  string
	}
	speechCompletedMsg struct{ seq int }
	speechErrorMsg     struct {
		seq int
		err error
	}
	sessionEndedMsg struct {
		seq   int
		state speech.SessionState
	}
)

// Recording and export results.
type (
	recordingStartedMsg struct{ seq int }
	recordingFailedMsg  struct{ err error }
	recordingSavedMsg   struct {
		path string
		size int64
	}
	exportedMsg struct{ path string }
)

// eventBus carries session hook events from the session goroutine into the
// bubbletea loop.
type eventBus struct {
	ch   chan tea.Msg
	quit chan struct{}
	once sync.Once
}

func newEventBus() *eventBus {
	return &eventBus{
		ch:   make(chan tea.Msg, 32),
		quit: make(chan struct{}),
	}
}

// send delivers msg unless the bus was closed.
func (b *eventBus) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	case <-b.quit:
	}
}

// wait returns a command that yields the next event.
func (b *eventBus) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.quit:
			return nil
		}
	}
}

func (b *eventBus) close() {
	b.once.Do(func() { close(b.quit) })
}

// hooks translates session callbacks into messages tagged with seq.
func (b *eventBus) hooks(seq int) speech.Hooks {
	return speech.Hooks{
		OnStart: func(emotion string) {
			b.send(speechStartedMsg{seq: seq, emotion: emotion})
		},
		OnChunk: func(index, total int, chunk speech.Chunk) {
			b.send(chunkStartedMsg{seq: seq, index: index, total: total, text: chunk.Text})
		},
		OnComplete: func() {
			b.send(speechCompletedMsg{seq: seq})
		},
		OnError: func(err error) {
			b.send(speechErrorMsg{seq: seq, err: err})
		},
	}
}

// COMMANDS

func waitForStatusMessageTimeout(seq int) tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(seq)
	})
}

func playCmd(ctx context.Context, sp speaker, seq int, text string, settings speech.Settings, hooks speech.Hooks) tea.Cmd {
	return func() tea.Msg {
		sess, err := sp.Play(ctx, text, settings, hooks)
		if err != nil {
			return sessionFailedMsg{seq: seq, err: err}
		}
		log.Debug("playback started", "session", sess.ID, "chunks", len(sess.Chunks()))
		return sessionStartedMsg{seq: seq, session: sess}
	}
}

func waitForSession(seq int, sess *speech.Session) tea.Cmd {
	return func() tea.Msg {
		<-sess.Done()
		return sessionEndedMsg{seq: seq, state: sess.State()}
	}
}

func stopCmd(sp speaker) tea.Cmd {
	return func() tea.Msg {
		sp.Stop()
		return nil
	}
}

func startRecordingCmd(ctx context.Context, rec recorder, seq int) tea.Cmd {
	return func() tea.Msg {
		if err := rec.Start(ctx); err != nil {
			return recordingFailedMsg{err}
		}
		return recordingStartedMsg{seq}
	}
}

func saveRecordingCmd(rec recorder, dir string) tea.Cmd {
	return func() tea.Msg {
		pcm, err := rec.Stop()
		if err != nil && pcm == nil {
			return recordingFailedMsg{err}
		}
		if err != nil {
			log.Warn("recording ended with an error", "error", err)
		}
		return savePCM(dir, pcm)
	}
}

func savePCM(dir string, pcm *audio.PCM) tea.Msg {
	path, err := record.Save(dir, pcm, time.Now())
	if err != nil {
		return recordingFailedMsg{err}
	}
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	log.Info("recording saved", "path", path, "size", humanize.Bytes(uint64(size))) //nolint:gosec
	return recordingSavedMsg{path: path, size: size}
}

func exportCmd(dir, text string, settings speech.Settings) tea.Cmd {
	return func() tea.Msg {
		dir, err := homedir.Expand(dir)
		if err != nil {
			return errMsg{err}
		}
		now := time.Now()
		path := filepath.Join(dir, speech.ExportFileName(now))
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
			return errMsg{err}
		}
		f, err := os.Create(path)
		if err != nil {
			return errMsg{err}
		}
		defer f.Close() //nolint:errcheck
		if err := speech.NewExport(text, settings, now).Write(f); err != nil {
			return errMsg{err}
		}
		return exportedMsg{path}
	}
}

func loadFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		path, err := homedir.Expand(path)
		if err != nil {
			return textLoadFailedMsg{err}
		}
		text, err := speech.LoadText(path)
		if err != nil {
			return textLoadFailedMsg{err}
		}
		source, err := os.ReadFile(path)
		if err != nil {
			return textLoadFailedMsg{err}
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		return textLoadedMsg{text: text, source: string(source), path: abs}
	}
}

func readClipboardCmd() tea.Msg {
	s, err := clipboard.ReadAll()
	if err != nil {
		return errMsg{err}
	}
	return clipboardMsg(s)
}

func openEditor(path string) tea.Cmd {
	cb := func(err error) tea.Msg {
		return editorFinishedMsg{err}
	}

	c, err := editor.Cmd("orate", path)
	if err != nil {
		return func() tea.Msg { return cb(err) }
	}
	return tea.ExecProcess(c, cb)
}
