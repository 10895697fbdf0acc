package ui

import "github.com/dgnsrekt/orate/internal/speech"

// Config contains TUI-specific configuration.
type Config struct {
	HomeDir         string `env:"HOME"`
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	EnableMouse     bool

	// File to load into the file tab, if any.
	Path string

	// Text to prefill the paste tab with.
	Text string

	// Engine is the name of the synthesis engine, shown in the status bar.
	Engine string

	// Initial playback settings.
	Settings speech.Settings

	// Where exports and recordings are written.
	ExportDir string `env:"ORATE_EXPORT_DIR" envDefault:"."`
	RecordDir string `env:"ORATE_RECORD_DIR" envDefault:"."`

	// For debugging the UI
	GlamourEnabled bool `env:"ORATE_ENABLE_GLAMOUR" envDefault:"true"`
}
