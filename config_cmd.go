package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# synthesis engine: espeak, piper, gtts, exec or mock
engine: "espeak"
# voice id or name; empty picks the engine default
voice: ""
# emotion preset: neutral, happy, sad, excited, calm, serious or storytelling
emotion: "neutral"
# uncomment to override the preset
# rate: 1.0
# pitch: 1.0
# emphasis: 1.0
# volume between 0 and 1
volume: 1.0
# pause naturally at punctuation
pauses: true
# record the microphone while speaking
record: false

# preview style name or JSON path (TUI-mode only)
style: "auto"
# word-wrap the preview at width (TUI-mode only)
width: 0
# mouse support (TUI-mode only)
mouse: false

exports:
  dir: "."
recordings:
  dir: "."

espeak:
  # binary: "espeak-ng"
  voice: "en"
  timeout: "10s"

piper:
  binary: "piper"
  # model: "~/.local/share/piper/en_US-lessac-medium.onnx"
  # config: "~/.local/share/piper/en_US-lessac-medium.onnx.json"
  timeout: "30s"

gtts:
  language: "en"
  slow: false
  requests_per_minute: 50
  timeout: "30s"

exec:
  # reads the text on stdin and writes a WAV file to stdout; {voice},
  # {rate} and {pitch} are replaced in the arguments
  # command: "espeak-ng -v {voice} --stdout"
  timeout: "30s"

audio:
  sample_rate: 44100
  buffer: "100ms"

cache:
  enabled: true
  # dir: "~/.cache/orate/clips"
  memory_mb: 64
  disk_mb: 512
  compression: 3
  ttl: "168h"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the orate config file",
	Long:    paragraph(fmt.Sprintf("\n%s the orate config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("orate config\norate config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("orate", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
