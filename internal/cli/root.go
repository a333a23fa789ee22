// Package cli defines the Cobra commands of emadesk.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/koscakluka/ema-desk/core/config"
	"github.com/koscakluka/ema-desk/core/orchestration"
	"github.com/koscakluka/ema-desk/internal/tui"
	"github.com/spf13/cobra"
)

var (
	configPath string
	agentFlag  string
	backendURL string
	verbose    bool
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "emadesk",
	Short: "Terminal client for the EMA agent backend",
	Long: `emadesk talks to a multi-agent conversational backend: ask the
nutrition assistant, translate text or recordings, and read answers aloud.
Without a subcommand it opens the interactive interface.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tui.IsTTY() {
			return cmd.Help()
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
		agentList, _, err := a.registry.List(ctx)
		if err != nil {
			slog.Warn("could not list agents", "error", err)
		}

		renderer := tui.NewMarkdownRenderer(a.cfg.Render.Style, a.cfg.Render.Markdown)
		ui := tui.New(agentList)
		o, err := a.newOrchestrator(ctx, agentID, true,
			orchestration.WithRenderer(renderer),
			orchestration.WithEventHandler(ui.HandleEvent),
		)
		if err != nil {
			return err
		}
		defer o.Close()

		return ui.Run(ctx, o, renderer)
	},
}

// Execute runs the root command. Called from main.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/emadesk/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&agentFlag, "agent", "a", "", "agent to talk to (default from config or backend)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if backendURL != "" {
		cfg.Backend.URL = backendURL
	}
	return cfg, nil
}

func loadApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}
