package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
)

const statusBarHeight = 1

var (
	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	statusBarStateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(statusBarBg).
				Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarMessageStateStyle = lipgloss.NewStyle().
					Foreground(mintGreen).
					Background(darkGreen).
					Render

	statusBarMessageHelpStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("#B6FFE4")).
					Background(green).
					Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(red).
				Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
			Render
)

// statusMessage is a transient note shown in the status bar.
type statusMessage struct {
	message string
	isError bool
}

// playbackNote describes the playback state for the status bar.
func (m model) playbackNote() string {
	switch m.playback {
	case playbackStarting:
		return "Starting…"
	case playbackSpeaking, playbackPaused:
		verb := "Speaking"
		if m.playback == playbackPaused {
			verb = "Paused"
		}
		if m.total > 0 {
			verb = fmt.Sprintf("%s %d/%d", verb, m.chunk+1, m.total)
		}
		if m.recording {
			verb += " ● rec"
		}
		return verb
	}
	if m.text == "" {
		return "No text loaded"
	}
	return "Ready"
}

func (m model) statusBarView(b *strings.Builder) {
	showStatusMessage := m.status != nil
	isError := showStatusMessage && m.status.isError

	logo := logoView()

	state := " " + m.playbackNote() + " "
	switch {
	case isError:
		state = statusBarErrorStyle(state)
	case showStatusMessage:
		state = statusBarMessageStateStyle(state)
	default:
		state = statusBarStateStyle(state)
	}

	var helpNote string
	if showStatusMessage {
		helpNote = statusBarMessageHelpStyle(" ? Help ")
	} else {
		helpNote = statusBarHelpStyle(" ? Help ")
	}

	var note string
	if showStatusMessage {
		note = m.status.message
	} else {
		note = m.common.cfg.Engine
		if m.preview.localPath != "" {
			note += " · " + m.preview.localPath
		}
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(state)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)

	style := statusBarNoteStyle
	switch {
	case isError:
		style = statusBarErrorStyle
	case showStatusMessage:
		style = statusBarMessageStyle
	}
	note = style(note)

	padding := max(0,
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(state)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := style(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		state,
		helpNote,
	)
}

// chunkView shows the fragment being spoken, cut to the terminal width.
func (m model) chunkView() string {
	if m.playback != playbackSpeaking && m.playback != playbackPaused {
		return ""
	}
	text := strings.Join(strings.Fields(m.chunkText), " ")
	return chunkStyle.Render(runewidth.Truncate("“"+text+"”", max(0, m.common.width-2), ellipsis))
}

func (m model) helpView() (s string) {
	col1 := []string{
		"ctrl+s   speak",
		"ctrl+p   pause/resume",
		"ctrl+x   stop",
		"ctrl+r   record & speak",
		"ctrl+e   export settings",
		"ctrl+c   quit",
	}
	col2 := []string{
		"tab      switch focus",
		"ctrl+t   paste/file tab",
		"ctrl+l   load text",
		"ctrl+v   paste clipboard",
		"↑/↓ ←/→  choose/adjust",
		"c/o      copy text/edit file",
	}

	const colWidth = 30
	s += "\n"
	for i := range col1 {
		pad := max(0, colWidth-runewidth.StringWidth(col1[i]))
		s += col1[i] + strings.Repeat(" ", pad) + col2[i] + "\n"
	}
	s = strings.TrimSuffix(s, "\n")
	s = indent.String(s, 2)

	// Fill up empty cells with spaces for background coloring
	if m.common.width > 0 {
		lines := strings.Split(s, "\n")
		for i := 0; i < len(lines); i++ {
			l := runewidth.StringWidth(lines[i])
			n := max(m.common.width-l, 0)
			lines[i] += strings.Repeat(" ", n)
		}

		s = strings.Join(lines, "\n")
	}

	return helpViewStyle(s)
}
