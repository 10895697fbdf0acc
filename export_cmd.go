package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dgnsrekt/orate/internal/speech"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	exportOutput string

	exportCmd = &cobra.Command{
		Use:   "export [FILE|-]",
		Short: "Save text and voice settings as JSON",
		Long: paragraph(fmt.Sprintf("\n%s the text with the current voice settings to a JSON file that %s can play back later.",
			keyword("Export"), keyword("orate import"))),
		Example: paragraph("orate export notes.md --emotion calm\necho hello | orate export - -o -"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			text, err := readText(args, os.Stdin)
			if err != nil {
				return err
			}
			settings, err := settingsFromConfig()
			if err != nil {
				return err
			}

			now := time.Now()
			if exportOutput == "-" {
				return speech.NewExport(text, settings, now).Write(os.Stdout)
			}

			path, err := exportPath(exportOutput, viper.GetString("exports.dir"), now)
			if err != nil {
				return err
			}
			if err := writeExport(path, text, settings, now); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, paragraph(fmt.Sprintf("%s %s", keyword("Settings exported successfully!"), path)))
			return nil
		},
	}

	importShow bool

	importCmd = &cobra.Command{
		Use:     "import FILE",
		Short:   "Speak an exported JSON file",
		Long:    paragraph(fmt.Sprintf("\n%s the text of an export with the voice settings saved in it.", keyword("Speak"))),
		Example: paragraph("orate import tts_export_1700000000000.json\norate import --show export.json"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := readExportFile(args[0])
			if err != nil {
				return err
			}
			settings := e.ToSettings()
			if importShow {
				printExport(os.Stdout, e)
				return nil
			}
			return speak(cmd.Context(), e.Text, settings, os.Stderr)
		},
	}
)

// exportPath resolves where an export is written: an explicit file, or a
// timestamped name inside dir.
func exportPath(output, dir string, now time.Time) (string, error) {
	if output != "" {
		return homedir.Expand(output) //nolint:wrapcheck
	}
	if dir == "" {
		dir = "."
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("unable to expand export directory: %w", err)
	}
	return filepath.Join(dir, speech.ExportFileName(now)), nil
}

func writeExport(path, text string, settings speech.Settings, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("unable to create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create export file: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return speech.NewExport(text, settings, now).Write(f)
}

func readExportFile(path string) (speech.Export, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return speech.Export{}, fmt.Errorf("unable to expand path: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return speech.Export{}, fmt.Errorf("unable to open export: %w", err)
	}
	defer f.Close() //nolint:errcheck

	e, err := speech.ReadExport(f)
	if err != nil {
		return speech.Export{}, err
	}
	if err := e.ToSettings().Validate(); err != nil {
		return speech.Export{}, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

func printExport(w io.Writer, e speech.Export) {
	s := e.Settings
	row := func(k string, v any) {
		fmt.Fprintf(w, "%s %v\n", keyword(fmt.Sprintf("%-15s", k)), v)
	}
	row("voice", fmt.Sprintf("%s (%s)", s.Voice, s.Language))
	row("emotion", s.Emotion)
	row("rate", s.Rate)
	row("pitch", s.Pitch)
	row("volume", s.Volume)
	row("emphasis", s.Emphasis)
	row("natural pauses", s.NaturalPauses)
	row("exported", e.Timestamp.Local().Format(time.RFC1123))
	fmt.Fprintln(w)
	fmt.Fprintln(w, e.Text)
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to this file, or - for stdout")
	importCmd.Flags().BoolVar(&importShow, "show", false, "print the settings and text instead of speaking")
}
