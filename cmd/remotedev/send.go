package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/remotedev/internal/cli"
	"github.com/aretw0/remotedev/pkg/transport"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <report.json>",
	Short: "Post a report file to a collector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		url, _ := cmd.Flags().GetString("url")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		rawHeaders, _ := cmd.Flags().GetStringArray("header")

		headers, err := parseHeaders(rawHeaders)
		if err != nil {
			return err
		}

		sender := transport.NewHTTPSender(
			transport.WithTimeout(timeout),
			transport.WithLogger(cli.CreateLogger(debug)),
		)
		id, err := cli.SendReport(cmd.Context(), sender, url, args[0], headers)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

// parseHeaders turns "Key: Value" flags into a header map.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q (want \"Key: Value\")", h)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringP("url", "u", "http://localhost:8000", "Collector URL")
	sendCmd.Flags().Duration("timeout", 10*time.Second, "Request timeout")
	sendCmd.Flags().StringArrayP("header", "H", nil, "Extra request header, as \"Key: Value\"")
}
