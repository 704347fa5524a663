package main

import (
	"fmt"
	"os"

	"github.com/aretw0/remotedev/internal/cli"
	"github.com/aretw0/remotedev/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the newest reports held by a collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		limit, _ := cmd.Flags().GetInt("limit")
		raw, _ := cmd.Flags().GetBool("raw")

		reports, err := cli.FetchReports(cmd.Context(), nil, url, limit)
		if err != nil {
			return err
		}

		md := tui.ReportsMarkdown(reports)
		// Only render when attached to a terminal; pipes get plain markdown.
		if !raw && term.IsTerminal(int(os.Stdout.Fd())) {
			if out, err := tui.NewRenderer()(md); err == nil {
				md = out
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("url", "u", "http://localhost:8000", "Collector URL")
	listCmd.Flags().IntP("limit", "n", 20, "Maximum number of reports (0 for all)")
	listCmd.Flags().Bool("raw", false, "Print markdown without terminal styling")
}
