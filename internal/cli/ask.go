package cli

import (
	"strings"

	"github.com/koscakluka/ema-desk/core/orchestration"
	"github.com/koscakluka/ema-desk/internal/tui"
	"github.com/spf13/cobra"
)

var asJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the agent a single question",
	Long: `Ask sends one question to the selected agent and prints the answer
as it streams in. On a terminal with markdown enabled the answer is shown
once complete, rendered.`,
	Example: `  emadesk ask "Quels sont les bienfaits du magnésium?"
  emadesk ask --agent nutria --json "Is fiber good for me?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		out := cmd.OutOrStdout()
		renderer := tui.NewMarkdownRenderer(a.cfg.Render.Style, a.cfg.Render.Markdown)
		stream := !asJSON && !(a.cfg.Render.Markdown && tui.IsTTY())

		var opts []orchestration.OrchestratorOption
		if stream {
			printer := &streamPrinter{w: out}
			opts = append(opts, orchestration.WithResponseCallback(printer.print))
		}
		o, err := a.newOrchestrator(ctx, agentID, false, opts...)
		if err != nil {
			return err
		}
		defer o.Close()

		turn, err := o.Ask(ctx, strings.Join(args, " "))
		if err != nil {
			if turn.Error != "" {
				cmd.PrintErrln(turn.Error)
			}
			return err
		}
		return printTurn(out, turn, stream, renderer)
	},
}

func init() {
	askCmd.Flags().BoolVar(&asJSON, "json", false, "print the finished turn as JSON")
}
