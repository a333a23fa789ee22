package cli

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/koscakluka/ema-desk/core/orchestration"
	"github.com/koscakluka/ema-desk/core/turns"
	"github.com/koscakluka/ema-desk/internal/tui"
	"github.com/spf13/cobra"
)

var (
	translateFrom    string
	translateTo      string
	translateAudio   string
	translateReverse bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text or a recording",
	Example: `  emadesk translate --to en "Où est la pharmacie la plus proche?"
  emadesk translate --audio question.wav --from fr --to en`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if translateAudio == "" && strings.TrimSpace(text) == "" {
			return errors.New("nothing to translate: pass text or --audio")
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		agentID, err := a.resolveAgent(ctx, agentFlag)
		if err != nil {
			return err
		}

		source, target := a.cfg.Translation.SourceLanguage, a.cfg.Translation.TargetLanguage
		if translateFrom != "" {
			source = translateFrom
		}
		if translateTo != "" {
			target = translateTo
		}

		out := cmd.OutOrStdout()
		stream := !asJSON
		opts := []orchestration.OrchestratorOption{orchestration.WithTranslationPair(source, target)}
		if stream {
			printer := &streamPrinter{w: out}
			opts = append(opts, orchestration.WithResponseCallback(printer.print))
		}
		o, err := a.newOrchestrator(ctx, agentID, false, opts...)
		if err != nil {
			return err
		}
		defer o.Close()
		if translateReverse {
			o.ToggleTranslationDirection()
		}

		var turn turns.Turn
		if translateAudio != "" {
			var recording backend.Audio
			if recording, err = readAudioFile(translateAudio); err != nil {
				return err
			}
			turn, err = o.TranslateAudio(ctx, recording)
		} else {
			turn, err = o.Translate(ctx, text)
		}
		if err != nil {
			if turn.Error != "" {
				cmd.PrintErrln(turn.Error)
			}
			return err
		}

		if turn.Transcription != "" && !asJSON {
			cmd.PrintErrf("(%s)\n", turn.Transcription)
		}
		return printTurn(out, turn, stream, tui.NewMarkdownRenderer("", false))
	},
}

func readAudioFile(path string) (backend.Audio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return backend.Audio{}, fmt.Errorf("reading recording: %w", err)
	}
	return backend.Audio{
		Data:        data,
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
	}, nil
}

func init() {
	translateCmd.Flags().StringVar(&translateFrom, "from", "", "source language, \"auto\" to detect (default from config)")
	translateCmd.Flags().StringVar(&translateTo, "to", "", "target language (default from config)")
	translateCmd.Flags().StringVar(&translateAudio, "audio", "", "translate this recording instead of text")
	translateCmd.Flags().BoolVar(&translateReverse, "reverse", false, "swap source and target")
	translateCmd.Flags().BoolVar(&asJSON, "json", false, "print the finished turn as JSON")
}
