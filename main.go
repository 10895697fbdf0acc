// Package main provides the entry point for the orate CLI application.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/orate/internal/engines"
	"github.com/dgnsrekt/orate/internal/speech"
	"github.com/dgnsrekt/orate/ui"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	tui           bool
	style         string
	width         uint
	mouse         bool
	fromClipboard bool
	inlineText    string
	engineName    string
	recordMic     bool

	rootCmd = &cobra.Command{
		Use:   "orate [FILE|-]",
		Short: "Read text aloud, naturally",
		Long: paragraph(
			fmt.Sprintf("\nRead text aloud with %s, pauses and a bit of emotion.", keyword("natural pacing")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != styles.AutoStyle && styles.DefaultStyles[style] == nil {
		path, err := homedir.Expand(style)
		if err != nil {
			return fmt.Errorf("unable to expand style path: %w", err)
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	tui = viper.GetBool("tui")
	recordMic = viper.GetBool("record")

	// Engine selection: CLI flag takes precedence over the config file
	name, err := engines.ValidateEngineSelection(engineName, viper.GetString("engine"))
	if err != nil {
		return err
	}
	engineName = name

	if _, err := settingsFromConfig(); err != nil {
		return err
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))

	// Detect terminal width
	if !cmd.Flags().Changed("width") { //nolint:nestif
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

// settingsFromConfig builds the playback settings from flags and the config
// file. An emotion preset sets rate, pitch and emphasis; explicit values
// override it.
func settingsFromConfig() (speech.Settings, error) {
	return settingsFrom(viper.GetViper())
}

func settingsFrom(v *viper.Viper) (speech.Settings, error) {
	s := speech.DefaultSettings()
	if emotion := v.GetString("emotion"); emotion != "" {
		if err := s.ApplyPreset(emotion); err != nil {
			return s, err
		}
	}
	if v.IsSet("rate") {
		s.Rate = v.GetFloat64("rate")
	}
	if v.IsSet("pitch") {
		s.Pitch = v.GetFloat64("pitch")
	}
	if v.IsSet("emphasis") {
		s.Emphasis = v.GetFloat64("emphasis")
	}
	s.Volume = v.GetFloat64("volume")
	s.NaturalPauses = v.GetBool("pauses")
	if name := v.GetString("voice"); name != "" {
		s.Voice = speech.Voice{ID: name, Name: name}
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// readText returns the text named by the arguments: inline text, the
// clipboard, a file or stdin ("-").
func readText(args []string, stdin io.Reader) (string, error) {
	switch {
	case inlineText != "":
		return speech.Normalize(inlineText)
	case fromClipboard:
		s, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("unable to read clipboard: %w", err)
		}
		return speech.Normalize(s)
	case len(args) == 0 || args[0] == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read from stdin: %w", err)
		}
		return speech.Normalize(string(b))
	default:
		return speech.LoadText(args[0])
	}
}

func execute(cmd *cobra.Command, args []string) error {
	piped, err := stdinIsPipe()
	if err != nil {
		return err
	}

	// With nothing to read, or when asked to, open the TUI.
	nothingToRead := len(args) == 0 && !piped && inlineText == "" && !fromClipboard
	if tui || cmd.Flags().Changed("tui") || nothingToRead {
		var path, text string
		if len(args) == 1 && args[0] != "-" {
			path = args[0]
		} else if !nothingToRead {
			if text, err = readText(args, os.Stdin); err != nil {
				return err
			}
		}
		return runTUI(path, text)
	}

	text, err := readText(args, os.Stdin)
	if err != nil {
		return err
	}
	return speakCLI(cmd.Context(), text, os.Stderr)
}

func runTUI(path string, text string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the one from flags/config if unset
	if cfg.GlamourStyle == "" || validateStyle(cfg.GlamourStyle) != nil {
		cfg.GlamourStyle = style
	}

	settings, err := settingsFromConfig()
	if err != nil {
		return err
	}

	svc, err := newServices(engineName)
	if err != nil {
		return err
	}
	defer svc.Close() //nolint:errcheck

	voices := svc.voices()
	if settings.Voice != (speech.Voice{}) {
		if v, err := speech.FindVoice(voices, settings.Voice.ID); err == nil {
			settings.Voice = v
		}
	}

	cfg.Path = path
	cfg.Text = text
	cfg.Engine = engineName
	cfg.Settings = settings
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse
	if dir := viper.GetString("exports.dir"); dir != "" {
		cfg.ExportDir = dir
	}
	if dir := viper.GetString("recordings.dir"); dir != "" {
		cfg.RecordDir = dir
	}

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, svc.controller, voices, svc.recorder()).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&engineName, "engine", "e", "", fmt.Sprintf("synthesis engine (%s)", strings.Join(engines.Names(), ", ")))

	rootCmd.Flags().BoolVarP(&tui, "tui", "t", false, "open the interactive TUI")
	rootCmd.PersistentFlags().StringVar(&inlineText, "text", "", "text to speak")
	rootCmd.PersistentFlags().BoolVarP(&fromClipboard, "clipboard", "c", false, "speak the clipboard contents")
	rootCmd.PersistentFlags().StringP("voice", "V", "", "voice id or name (fuzzy matched)")
	rootCmd.PersistentFlags().Float64P("rate", "r", speech.DefaultRate, "speaking rate")
	rootCmd.PersistentFlags().Float64P("pitch", "p", speech.DefaultPitch, "voice pitch")
	rootCmd.PersistentFlags().Float64("volume", speech.DefaultVolume, "volume between 0 and 1")
	rootCmd.PersistentFlags().Float64("emphasis", speech.DefaultEmphasis, "how much rate and pitch vary between fragments")
	rootCmd.PersistentFlags().String("emotion", "", fmt.Sprintf("emotion preset (%s)", strings.Join(speech.PresetNames(), ", ")))
	rootCmd.PersistentFlags().Bool("pauses", true, "pause naturally at punctuation")
	rootCmd.Flags().BoolVar(&recordMic, "record", false, "record the microphone while speaking")
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "preview style name or JSON path (TUI-mode only)")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap the preview at width (TUI-mode only)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("tui", rootCmd.Flags().Lookup("tui"))
	_ = viper.BindPFlag("voice", rootCmd.PersistentFlags().Lookup("voice"))
	_ = viper.BindPFlag("rate", rootCmd.PersistentFlags().Lookup("rate"))
	_ = viper.BindPFlag("pitch", rootCmd.PersistentFlags().Lookup("pitch"))
	_ = viper.BindPFlag("volume", rootCmd.PersistentFlags().Lookup("volume"))
	_ = viper.BindPFlag("emphasis", rootCmd.PersistentFlags().Lookup("emphasis"))
	_ = viper.BindPFlag("emotion", rootCmd.PersistentFlags().Lookup("emotion"))
	_ = viper.BindPFlag("pauses", rootCmd.PersistentFlags().Lookup("pauses"))
	_ = viper.BindPFlag("record", rootCmd.Flags().Lookup("record"))
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	setDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, manCmd, voicesCmd, exportCmd, importCmd, cacheCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "orate")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "orate")}, dirs...)
	}

	if c := os.Getenv("ORATE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("orate")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("orate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "orate.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
