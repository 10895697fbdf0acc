package ui

import "github.com/charmbracelet/lipgloss"

var (
	green     = lipgloss.Color("#04B575")
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	fuchsia   = lipgloss.Color("#EE6FF8")
	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	gray      = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray   = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	dimGray   = lipgloss.AdaptiveColor{Light: "#DDDADA", Dark: "#3C3C3C"}

	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Bold(true)

	tabStyle = lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1)

	activeTabStyle = tabStyle.
			Foreground(fuchsia).
			Underline(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(gray)

	focusedSectionStyle = lipgloss.NewStyle().
				Foreground(fuchsia)

	controlLabelStyle = lipgloss.NewStyle().
				Foreground(gray).
				Width(16)

	selectedControlLabelStyle = controlLabelStyle.
					Foreground(fuchsia)

	controlValueStyle = lipgloss.NewStyle().
				Foreground(midGray)

	selectedControlValueStyle = lipgloss.NewStyle().
					Foreground(cream)

	sliderFilledStyle = lipgloss.NewStyle().
				Foreground(green)

	sliderEmptyStyle = lipgloss.NewStyle().
				Foreground(dimGray)

	chunkStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Italic(true)
)

func logoView() string {
	return logoStyle.Render(" orate ")
}
