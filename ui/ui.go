// Package ui provides the interactive terminal UI for orate.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/orate/internal/audio"
	"github.com/dgnsrekt/orate/internal/record"
	"github.com/dgnsrekt/orate/internal/speech"
	"github.com/dustin/go-humanize"
	te "github.com/muesli/termenv"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "Text loaded successfully!"
	ellipsis             = "…"

	editorHeight   = 5
	controlsHeight = int(numControls)
)

// speaker plays text. *speech.Controller implements it.
type speaker interface {
	Play(ctx context.Context, text string, settings speech.Settings, hooks speech.Hooks) (*speech.Session, error)
	Stop()
	TogglePause() (bool, error)
}

// recorder captures the microphone. *record.Recorder implements it.
type recorder interface {
	Start(ctx context.Context) error
	Stop() (*audio.PCM, error)
	Recording() bool
}

// NewProgram returns a new Tea program. rec may be nil when no capture
// device is available.
func NewProgram(cfg Config, ctrl *speech.Controller, voices []speech.Voice, rec *record.Recorder) *tea.Program {
	log.Debug(
		"Starting orate",
		"engine", cfg.Engine,
		"voices", len(voices),
		"glamour", cfg.GlamourEnabled,
	)

	var r recorder
	if rec != nil {
		r = rec
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, ctrl, voices, r), opts...)
}

// tab is the text source being edited.
type tab int

const (
	tabPaste tab = iota
	tabFile
)

func (t tab) String() string {
	return [...]string{
		tabPaste: "Paste text",
		tabFile:  "Open file",
	}[t]
}

// focus is the area receiving key presses.
type focus int

const (
	focusEditor focus = iota
	focusControls
)

type playbackState int

const (
	playbackIdle playbackState = iota
	playbackStarting
	playbackSpeaking
	playbackPaused
)

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	width  int
	height int
}

type model struct {
	common *commonModel
	ctx    context.Context
	cancel context.CancelFunc

	speaker  speaker
	recorder recorder
	events   *eventBus

	tab       tab
	focus     focus
	textarea  textarea.Model
	fileInput textinput.Model
	controls  controlsModel
	preview   previewModel
	spinner   spinner.Model
	showHelp  bool

	// Text loaded for speaking.
	text string

	playback  playbackState
	playSeq   int
	session   *speech.Session
	chunk     int
	total     int
	chunkText string
	recording bool

	status    *statusMessage
	statusSeq int
}

func newModel(cfg Config, sp speaker, voices []speech.Voice, rec recorder) model {
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}
	if cfg.Settings == (speech.Settings{}) {
		cfg.Settings = speech.DefaultSettings()
	}

	common := &commonModel{cfg: cfg}

	ta := textarea.New()
	ta.Placeholder = "Type or paste the text to speak…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(editorHeight)
	ta.SetValue(cfg.Text)
	ta.Focus()

	fi := textinput.New()
	fi.Placeholder = "path/to/file.txt"
	fi.Prompt = "File: "
	fi.SetValue(cfg.Path)

	sp2 := spinner.New()
	sp2.Spinner = spinner.Dot
	sp2.Style = lipgloss.NewStyle().Foreground(fuchsia)

	ctx, cancel := context.WithCancel(context.Background())
	m := model{
		common:    common,
		ctx:       ctx,
		cancel:    cancel,
		speaker:   sp,
		recorder:  rec,
		events:    newEventBus(),
		textarea:  ta,
		fileInput: fi,
		controls:  newControlsModel(cfg.Settings, voices),
		preview:   newPreviewModel(common),
		spinner:   sp2,
	}

	if text := strings.TrimSpace(cfg.Text); text != "" {
		m.text = text
		m.preview.load(text, "")
	}
	if cfg.Path != "" {
		m.setTab(tabFile)
	}
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.events.wait(), textarea.Blink}
	if m.common.cfg.Path != "" {
		cmds = append(cmds, loadFileCmd(m.common.cfg.Path))
	}
	return tea.Batch(cmds...)
}

func (m *model) setSize(w, h int) {
	m.common.width = w
	m.common.height = h

	m.textarea.SetWidth(max(1, w-2))
	m.fileInput.Width = max(1, w-len(m.fileInput.Prompt)-2)

	// header, editor, blank, controls, blank, chunk line, status bar
	used := 1 + editorHeight + 1 + controlsHeight + 1 + 1 + statusBarHeight
	if m.showHelp {
		used += strings.Count(m.helpView(), "\n") + 1
	}
	m.preview.setSize(w, h-used)
}

func (m *model) setTab(t tab) {
	m.tab = t
	m.setFocus(focusEditor)
}

func (m *model) setFocus(f focus) {
	m.focus = f
	m.textarea.Blur()
	m.fileInput.Blur()
	if f != focusEditor {
		return
	}
	if m.tab == tabPaste {
		m.textarea.Focus()
	} else {
		m.fileInput.Focus()
	}
}

// showStatusMessage shows msg in the status bar until it times out or is
// replaced.
func (m *model) showStatusMessage(msg statusMessage) tea.Cmd {
	if msg.isError {
		log.Debug("status error", "message", msg.message)
	}
	m.status = &msg
	m.statusSeq++
	return waitForStatusMessageTimeout(m.statusSeq)
}

func (m *model) showError(err error) tea.Cmd {
	msg := err.Error()
	if errors.Is(err, speech.ErrEmptyText) {
		msg = "Please enter some text first"
	}
	return m.showStatusMessage(statusMessage{"Error: " + msg, true})
}

// load reads the text of the active tab.
func (m *model) load() tea.Cmd {
	if m.tab == tabFile {
		path := strings.TrimSpace(m.fileInput.Value())
		if path == "" {
			return m.showStatusMessage(statusMessage{"Please select a file first", true})
		}
		return loadFileCmd(path)
	}

	text, err := speech.Normalize(m.textarea.Value())
	if err != nil {
		return m.showStatusMessage(statusMessage{"Please enter some text first", true})
	}
	m.text = text
	m.preview.load(text, "")
	return tea.Batch(
		m.showStatusMessage(statusMessage{"Text loaded successfully!", false}),
		renderWithGlamour(m.preview, m.preview.source),
	)
}

// speak starts playing the loaded text. A session that is still playing is
// replaced.
func (m *model) speak() tea.Cmd {
	if m.text == "" {
		return m.showStatusMessage(statusMessage{"Please enter some text first", true})
	}

	m.playSeq++
	m.playback = playbackStarting
	m.session = nil
	m.chunk, m.total, m.chunkText = 0, 0, ""

	settings := m.controls.Settings()
	return tea.Batch(
		playCmd(m.ctx, m.speaker, m.playSeq, m.text, settings, m.events.hooks(m.playSeq)),
		m.spinner.Tick,
	)
}

func (m *model) togglePause() tea.Cmd {
	if m.playback != playbackSpeaking && m.playback != playbackPaused {
		return nil
	}
	paused, err := m.speaker.TogglePause()
	if err != nil {
		if errors.Is(err, speech.ErrNoSession) {
			return nil
		}
		return m.showError(err)
	}
	if paused {
		m.playback = playbackPaused
		return m.showStatusMessage(statusMessage{"Paused", false})
	}
	m.playback = playbackSpeaking
	return m.showStatusMessage(statusMessage{"Resumed", false})
}

func (m *model) stop() tea.Cmd {
	if m.playback == playbackIdle {
		return nil
	}
	return stopCmd(m.speaker)
}

// record toggles "record & speak": the microphone is captured while the
// loaded text plays, and saved once playback ends.
func (m *model) record() tea.Cmd {
	if m.recorder == nil {
		return m.showStatusMessage(statusMessage{"Recording is not available", true})
	}
	if m.recording {
		return tea.Batch(
			stopCmd(m.speaker),
			m.showStatusMessage(statusMessage{"Stopping recording…", false}),
		)
	}
	if m.text == "" {
		return m.showStatusMessage(statusMessage{"Please enter some text first", true})
	}
	m.recording = true
	return startRecordingCmd(m.ctx, m.recorder, m.playSeq+1)
}

func (m *model) export() tea.Cmd {
	if m.text == "" {
		return m.showStatusMessage(statusMessage{"Please enter some text first", true})
	}
	return exportCmd(m.common.cfg.ExportDir, m.text, m.controls.Settings())
}

func (m *model) copyText() tea.Cmd {
	if m.text == "" {
		return nil
	}
	// Copy using OSC 52
	te.Copy(m.text)
	// Copy using native system clipboard
	_ = clipboard.WriteAll(m.text)
	return m.showStatusMessage(statusMessage{"Copied text", false})
}

func (m *model) shutdown() {
	if m.playback != playbackIdle {
		m.speaker.Stop()
	}
	if m.recording && m.recorder != nil && m.recorder.Recording() {
		_, _ = m.recorder.Stop()
	}
	m.events.close()
	m.preview.close()
	m.cancel()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		// Ctrl+C always quits no matter where in the application you are.
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit
		case "ctrl+z":
			return m, tea.Suspend
		case "tab", "shift+tab":
			if m.focus == focusEditor {
				m.setFocus(focusControls)
			} else {
				m.setFocus(focusEditor)
			}
			return m, nil
		case "ctrl+t":
			m.setTab((m.tab + 1) % 2)
			return m, nil
		case "ctrl+l":
			return m, m.load()
		case "ctrl+s":
			return m, m.speak()
		case "ctrl+p":
			return m, m.togglePause()
		case "ctrl+x":
			return m, m.stop()
		case "ctrl+r":
			return m, m.record()
		case "ctrl+e":
			return m, m.export()
		case "ctrl+v":
			return m, readClipboardCmd
		}

		if m.focus == focusControls {
			return m.updateControls(msg)
		}
		return m.updateEditor(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.update(msg)
		return m, cmd

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		if m.preview.source != "" {
			cmds = append(cmds, renderWithGlamour(m.preview, m.preview.source))
		}

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusSeq {
			m.status = nil
		}

	case errMsg:
		cmds = append(cmds, m.showError(msg.err))

	case clipboardMsg:
		if m.tab == tabPaste {
			m.textarea.InsertString(string(msg))
		} else {
			m.fileInput.SetValue(strings.TrimSpace(string(msg)))
		}
		cmds = append(cmds, m.showStatusMessage(statusMessage{"Pasted from clipboard", false}))

	case textLoadedMsg:
		m.text = msg.text
		m.preview.load(msg.source, msg.path)
		cmds = append(cmds,
			m.showStatusMessage(statusMessage{"File loaded successfully!", false}),
			renderWithGlamour(m.preview, m.preview.source),
			m.preview.watchFile,
		)

	case textLoadFailedMsg:
		text := "Error reading file!"
		if errors.Is(msg.err, speech.ErrEmptyText) {
			text = "The file has no text to speak"
		}
		log.Error("unable to load text", "error", msg.err)
		cmds = append(cmds, m.showStatusMessage(statusMessage{text, true}))

	case reloadMsg:
		if m.preview.localPath != "" {
			cmds = append(cmds, loadFileCmd(m.preview.localPath))
		}

	case editorFinishedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showError(msg.err))
		} else if m.preview.localPath != "" {
			cmds = append(cmds, loadFileCmd(m.preview.localPath))
		}

	case contentRenderedMsg:
		m.preview.setContent(string(msg))

	case spinner.TickMsg:
		if m.playback == playbackStarting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case sessionStartedMsg:
		if msg.seq == m.playSeq {
			m.session = msg.session
			m.total = len(msg.session.Chunks())
			cmds = append(cmds, waitForSession(msg.seq, msg.session))
		}

	case sessionFailedMsg:
		if msg.seq == m.playSeq {
			m.playback = playbackIdle
			if m.recording {
				m.recording = false
				_, _ = m.recorder.Stop()
			}
			cmds = append(cmds, m.showError(msg.err))
		}

	case speechStartedMsg:
		cmds = append(cmds, m.events.wait())
		if msg.seq == m.playSeq {
			m.playback = playbackSpeaking
			cmds = append(cmds, m.showStatusMessage(statusMessage{
				fmt.Sprintf("Speaking with %s emotion...", msg.emotion), false,
			}))
		}

	case chunkStartedMsg:
		cmds = append(cmds, m.events.wait())
		if msg.seq == m.playSeq {
			if m.playback == playbackStarting {
				m.playback = playbackSpeaking
			}
			m.chunk, m.total, m.chunkText = msg.index, msg.total, msg.text
		}

	case speechCompletedMsg:
		cmds = append(cmds, m.events.wait())
		if msg.seq == m.playSeq {
			cmds = append(cmds, m.showStatusMessage(statusMessage{"Finished speaking!", false}))
		}

	case speechErrorMsg:
		cmds = append(cmds, m.events.wait())
		if msg.seq == m.playSeq {
			cmds = append(cmds, m.showError(msg.err))
		}

	case sessionEndedMsg:
		if msg.seq == m.playSeq {
			log.Debug("playback ended", "state", msg.state)
			m.playback = playbackIdle
			m.session = nil
			m.chunkText = ""
			if m.recording {
				m.recording = false
				cmds = append(cmds, saveRecordingCmd(m.recorder, m.common.cfg.RecordDir))
			}
		}

	case recordingStartedMsg:
		if m.recording && msg.seq == m.playSeq+1 {
			cmds = append(cmds, m.speak())
		}

	case recordingFailedMsg:
		m.recording = false
		cmds = append(cmds, m.showStatusMessage(statusMessage{"Recording failed: " + msg.err.Error(), true}))

	case recordingSavedMsg:
		cmds = append(cmds, m.showStatusMessage(statusMessage{
			fmt.Sprintf("Recording saved to %s (%s)", msg.path, humanize.Bytes(uint64(msg.size))), false, //nolint:gosec
		}))

	case exportedMsg:
		log.Info("settings exported", "path", msg.path)
		cmds = append(cmds, m.showStatusMessage(statusMessage{"Settings exported successfully! " + msg.path, false}))
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if msg.String() == "esc" {
		m.setFocus(focusControls)
		return m, nil
	}
	if m.tab == tabPaste {
		m.textarea, cmd = m.textarea.Update(msg)
	} else {
		if msg.String() == "enter" {
			return m, m.load()
		}
		m.fileInput, cmd = m.fileInput.Update(msg)
	}
	return m, cmd
}

func (m model) updateControls(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.shutdown()
		return m, tea.Quit
	case "up", "k":
		m.controls.up()
	case "down", "j":
		m.controls.down()
	case "left", "h":
		m.controls.adjust(-1)
	case "right", "l":
		m.controls.adjust(1)
	case " ", "enter":
		if _, ok := sliders[m.controls.selected]; !ok {
			m.controls.adjust(1)
		}
	case "?":
		m.showHelp = !m.showHelp
		m.setSize(m.common.width, m.common.height)
	case "c":
		return m, m.copyText()
	case "o":
		if m.preview.localPath != "" {
			return m, openEditor(m.preview.localPath)
		}
	case "pgup", "pgdown", "ctrl+u", "ctrl+d", "b", "f", "g", "G":
		var cmd tea.Cmd
		m.preview, cmd = m.preview.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	fmt.Fprintln(&b, m.headerView())
	fmt.Fprintln(&b, m.editorView())
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, m.controls.View(m.focus == focusControls))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, m.chunkView())
	fmt.Fprintln(&b, m.preview.View())
	m.statusBarView(&b)

	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

func (m model) headerView() string {
	tabs := make([]string, 0, 2)
	for _, t := range []tab{tabPaste, tabFile} {
		style := tabStyle
		if t == m.tab {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(t.String()))
	}
	header := logoView() + " " + strings.Join(tabs, "")
	if m.playback == playbackStarting {
		header += " " + m.spinner.View()
	}
	return header
}

func (m model) editorView() string {
	var body string
	if m.tab == tabPaste {
		body = m.textarea.View()
	} else {
		body = m.fileInput.View() + "\n" + sectionStyle.Render("enter to load, ctrl+v to paste a path")
	}
	return lipgloss.NewStyle().
		Height(editorHeight).
		MaxHeight(editorHeight).
		PaddingLeft(1).
		Render(body)
}
