package cli

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents the backend offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		list, defaultAgent, err := a.registry.List(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"agents": list, "default": defaultAgent})
		}

		rows := make([][]string, 0, len(list))
		for _, agent := range list {
			marker := ""
			if agent.ID == defaultAgent {
				marker = "*"
			}
			rows = append(rows, []string{marker, agent.ID, agent.Name, agent.Description})
		}
		fmt.Fprintln(cmd.OutOrStdout(), newTable("", "ID", "NAME", "DESCRIPTION").Rows(rows...).Render())
		return nil
	},
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages translation supports",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		languages, err := a.backend.Languages(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), languages)
		}

		codes := make([]string, 0, len(languages))
		for code := range languages {
			codes = append(codes, code)
		}
		slices.Sort(codes)

		rows := make([][]string, 0, len(codes))
		for _, code := range codes {
			rows = append(rows, []string{code, languages[code]})
		}
		fmt.Fprintln(cmd.OutOrStdout(), newTable("CODE", "LANGUAGE").Rows(rows...).Render())
		return nil
	},
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})
}

func init() {
	agentsCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	languagesCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
}
