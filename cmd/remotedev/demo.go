package main

import (
	"github.com/aretw0/remotedev"
	"github.com/aretw0/remotedev/internal/cli"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo [ACTION...]",
	Short: "Dispatch actions on an observed counter store",
	Long: `Creates a counter store enhanced with the configuration from --config,
dispatches the given action types (INCREMENT and DECREMENT change the counter)
and prints the outcome of every report.`,
	Example: `  remotedev demo --url http://localhost:8000 --send-on DECREMENT INCREMENT DECREMENT`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		path, _ := cmd.Flags().GetString("config")

		var cfg remotedev.Config
		if path != "" {
			var err error
			if cfg, err = remotedev.LoadConfig(path); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("url") || cfg.SendTo == "" {
			cfg.SendTo, _ = cmd.Flags().GetString("url")
		}
		if cmd.Flags().Changed("send-on") {
			cfg.SendOn, _ = cmd.Flags().GetStringSlice("send-on")
		}
		if cmd.Flags().Changed("every") {
			cfg.Every, _ = cmd.Flags().GetBool("every")
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		_, err := cli.RunDemo(ctx, cfg, args, cmd.OutOrStdout(), cli.CreateLogger(debug))
		return err
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().StringP("config", "c", "", "Enhancer config file (YAML)")
	demoCmd.Flags().StringP("url", "u", "http://localhost:8000", "Collector URL")
	demoCmd.Flags().StringSlice("send-on", nil, "Action types that trigger a report")
	demoCmd.Flags().Bool("every", false, "Report every action")
}
