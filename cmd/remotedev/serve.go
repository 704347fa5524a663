package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/remotedev"
	"github.com/aretw0/remotedev/internal/cli"
	"github.com/aretw0/remotedev/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report collector",
	Long: `Starts an HTTP collector that accepts reports on POST / and POST /reports,
lists them on GET /reports and exposes Prometheus metrics on GET /metrics.
Settings come from the optional --config file and REMOTEDEV_ environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		path, _ := cmd.Flags().GetString("config")
		logger := cli.CreateLogger(debug)

		cfg, err := cli.LoadServeConfig(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("store") {
			cfg.Store, _ = cmd.Flags().GetString("store")
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(remotedev.Version))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Starting collector on %s (%s store)\n", cfg.Addr, cfg.Store)
		if err := cli.Serve(ctx, cfg, logger, nil); err != nil {
			return err
		}
		if sig := ctx.Signal(); sig != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Collector stopped (%v)\n", sig)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Collector config file (YAML)")
	serveCmd.Flags().StringP("addr", "a", ":8000", "Address to listen on")
	serveCmd.Flags().BoolP("quiet", "q", false, "Skip the startup banner")
	serveCmd.Flags().String("store", cli.StoreMemory, "Report store: memory, file or redis")
}
