package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/orate/internal/record"
	"github.com/dgnsrekt/orate/internal/speech"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// speakCLI reads text aloud without the TUI, printing progress to w. An
// interrupt stops playback.
func speakCLI(ctx context.Context, text string, w io.Writer) error {
	settings, err := settingsFromConfig()
	if err != nil {
		return err
	}
	return speak(ctx, text, settings, w)
}

func speak(ctx context.Context, text string, settings speech.Settings, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := newServices(engineName)
	if err != nil {
		return err
	}
	defer svc.Close() //nolint:errcheck

	if query := settings.Voice.Key(); query != "" {
		v, err := speech.FindVoice(svc.voices(), query)
		if err != nil {
			return err
		}
		settings.Voice = v
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec *record.Recorder
	if recordMic {
		rec = svc.recorder()
		if err := rec.Start(ctx); err != nil {
			return fmt.Errorf("unable to start recording: %w", err)
		}
	}

	sess, err := svc.controller.Play(ctx, text, settings, cliHooks(w))
	if err != nil {
		if rec != nil {
			_, _ = rec.Stop()
		}
		return err
	}

	select {
	case <-sess.Done():
	case <-ctx.Done():
		svc.controller.Stop()
		<-sess.Done()
		fmt.Fprintln(w, paragraph("Stopped."))
	}

	if rec != nil {
		if err := saveRecording(rec, viper.GetString("recordings.dir"), w); err != nil {
			return err
		}
	}
	return sess.Err()
}

func saveRecording(rec *record.Recorder, dir string, w io.Writer) error {
	pcm, err := rec.Stop()
	if err != nil {
		return fmt.Errorf("unable to stop recording: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	path, err := record.Save(dir, pcm, time.Now())
	if err != nil {
		return err
	}

	var size uint64
	if fi, err := os.Stat(path); err == nil {
		size = uint64(fi.Size()) //nolint:gosec
	}
	log.Info("Saved recording", "path", path, "size", size)
	fmt.Fprintln(w, paragraph(fmt.Sprintf("%s %s (%s)", keyword("Recording saved to"), path, humanize.Bytes(size))))
	return nil
}

// cliHooks prints session progress.
func cliHooks(w io.Writer) speech.Hooks {
	return speech.Hooks{
		OnStart: func(emotion string) {
			fmt.Fprintln(w, paragraph(fmt.Sprintf("Speaking with %s emotion...", keyword(emotion))))
		},
		OnChunk: func(index, total int, chunk speech.Chunk) {
			fmt.Fprintln(w, paragraph(fmt.Sprintf("%s %s", faint(fmt.Sprintf("%d/%d", index+1, total)), chunk.Text)))
		},
		OnComplete: func() {
			fmt.Fprintln(w, paragraph("Finished speaking!"))
		},
		OnError: func(err error) {
			fmt.Fprintln(w, paragraph(errorText("Error: "+err.Error())))
		},
	}
}

