package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/orate/internal/speech"
	"github.com/fsnotify/fsnotify"
)

// previewModel shows the loaded text and watches the file it came from.
type previewModel struct {
	common   *commonModel
	viewport viewport.Model

	// Loaded source, sans-glamour rendering. Kept so it can be re-rendered
	// on resize.
	source    string
	localPath string

	watcher *fsnotify.Watcher
}

func newPreviewModel(common *commonModel) previewModel {
	m := previewModel{
		common:   common,
		viewport: viewport.New(0, 0),
	}
	m.initWatcher()
	return m
}

func (m *previewModel) setSize(w, h int) {
	m.viewport.Width = w
	m.viewport.Height = max(1, h)
}

func (m *previewModel) setContent(s string) {
	m.viewport.SetContent(s)
}

// load replaces the previewed source. Sources loaded from a file keep
// their path so changes to it trigger a reload.
func (m *previewModel) load(source, path string) {
	if m.localPath != "" && m.localPath != path {
		m.unwatchFile()
	}
	m.source = source
	m.localPath = path
	m.viewport.GotoTop()
}

func (m previewModel) update(msg tea.Msg) (previewModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m previewModel) View() string {
	if m.source == "" {
		return sectionStyle.Render("Nothing loaded yet.")
	}
	return m.viewport.View()
}

func renderWithGlamour(m previewModel, md string) tea.Cmd {
	return func() tea.Msg {
		s, err := glamourRender(m, md)
		if err != nil {
			log.Error("error rendering with Glamour", "error", err)
			return errMsg{err}
		}
		return contentRenderedMsg(s)
	}
}

func glamourRender(m previewModel, markdown string) (string, error) {
	trunc := lipgloss.NewStyle().MaxWidth(m.viewport.Width).Render

	if !m.common.cfg.GlamourEnabled {
		return trunc(markdown), nil
	}

	width := m.viewport.Width
	if m.common.cfg.GlamourMaxWidth > 0 {
		width = min(int(m.common.cfg.GlamourMaxWidth), width) //nolint:gosec
	}

	// Plain text is not markdown; keep its line breaks as they are.
	isMarkdown := m.localPath != "" && speech.IsMarkdownFile(m.localPath)
	options := []glamour.TermRendererOption{
		glamour.WithStylePath(m.common.cfg.GlamourStyle),
		glamour.WithWordWrap(max(0, width)),
	}
	if !isMarkdown {
		options = append(options, glamour.WithPreservedNewLines())
	}

	r, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for i := range lines {
		lines[i] = trunc(lines[i])
	}
	return strings.Join(lines, "\n"), nil
}

func (m *previewModel) initWatcher() {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
	}
}

func (m *previewModel) watchFile() tea.Msg {
	if m.watcher == nil || m.localPath == "" {
		return nil
	}
	dir := m.localDir()

	if err := m.watcher.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "error", err)
		return nil
	}

	log.Info("fsnotify watching dir", "dir", dir)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != m.localPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return reloadMsg{}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}

func (m *previewModel) unwatchFile() {
	if m.watcher == nil || m.localPath == "" {
		return
	}
	dir := m.localDir()

	err := m.watcher.Remove(dir)
	if err == nil {
		log.Debug("fsnotify dir unwatched", "dir", dir)
	} else {
		log.Error("fsnotify fail to unwatch dir", "dir", dir, "error", err)
	}
}

func (m *previewModel) close() {
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}

func (m *previewModel) localDir() string {
	return filepath.Dir(m.localPath)
}
