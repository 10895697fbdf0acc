package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/orate/internal/engines"
	"github.com/dgnsrekt/orate/internal/speech"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

var (
	voicesLang string

	voicesCmd = &cobra.Command{
		Use:     "voices",
		Short:   "List the voices of the selected engine",
		Long:    paragraph(fmt.Sprintf("\n%s the voices the synthesis engine offers. Natural sounding voices are marked with a star.", keyword("List"))),
		Example: paragraph("orate voices\norate voices --engine gtts --lang en"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			voices, err := listVoices(cmd.Context(), engineName, viper.GetViper())
			if err != nil {
				return err
			}
			if voicesLang != "" {
				tag, err := language.Parse(voicesLang)
				if err != nil {
					return fmt.Errorf("invalid language %q: %w", voicesLang, err)
				}
				voices = speech.FilterLanguage(voices, tag)
			}
			if len(voices) == 0 {
				fmt.Fprintln(os.Stderr, paragraph("No voices found."))
				return nil
			}
			printVoices(os.Stdout, voices)
			return nil
		},
	}
)

// listVoices asks the engine for its voices without opening the audio
// device.
func listVoices(ctx context.Context, name string, v *viper.Viper) ([]speech.Voice, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	synth, err := engines.New(name, engineConfig(v))
	if err != nil {
		return nil, err
	}
	defer synth.Close() //nolint:errcheck

	lister, ok := synth.(speech.VoiceLister)
	if !ok {
		return nil, fmt.Errorf("the %s engine has no voices to list", name)
	}

	ctx, cancel := context.WithTimeout(ctx, voicesTimeout)
	defer cancel()
	voices, err := lister.Voices(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list voices: %w", err)
	}
	speech.SortVoices(voices)
	return voices, nil
}

func printVoices(w io.Writer, voices []speech.Voice) {
	var idWidth int
	for _, v := range voices {
		idWidth = max(idWidth, runewidth.StringWidth(v.ID))
	}
	id := lipgloss.NewStyle().Width(idWidth + 2)

	for _, v := range voices {
		mark := "  "
		if v.IsNatural() {
			mark = keyword("★ ")
		}
		fmt.Fprintln(w, mark+id.Render(v.ID)+v.Label())
	}
}

func init() {
	voicesCmd.Flags().StringVarP(&voicesLang, "lang", "l", "", "only list voices for this language (e.g. en, de-DE)")
}
