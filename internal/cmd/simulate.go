package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	errwrap "github.com/pixelgate/pixelgate/internal/errors"
	"github.com/pixelgate/pixelgate/internal/observability"
	"github.com/pixelgate/pixelgate/internal/output"
	"github.com/pixelgate/pixelgate/internal/simulate"
)

var (
	simulateTrace  string
	simulateLimit  int
	simulateWindow time.Duration
	simulateFormat string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a request trace against an admission policy",
	Long: `Replay a YAML trace of client requests through a fresh admission tracker
and print each decision. Useful for checking a limit/window before deploying it.

Policy precedence: flags, then the trace's own limit/window, then configuration.

Example trace:

  start: 2025-01-01T00:00:00Z
  events:
    - client: 203.0.113.7
      at: 0s
      repeat: 4
    - client: 203.0.113.7
      at: 24h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(simulateFormat)
		if err != nil {
			return errwrap.WrapInvalidInput(ctx, err, "invalid output format")
		}

		trace, err := simulate.Load(simulateTrace)
		if err != nil {
			return errwrap.WrapInvalidInput(ctx, err, "unable to load trace")
		}

		result, err := simulate.Run(trace,
			simulate.Policy{Limit: simulateLimit, Window: simulateWindow},
			simulate.Policy{Limit: viper.GetInt("admission.limit"), Window: viper.GetDuration("admission.window")},
		)
		if err != nil {
			return errwrap.WrapInvalidInput(ctx, err, "unable to replay trace")
		}

		if log := observability.CLILogger; log != nil {
			log.Debug("Trace replayed",
				zap.String("trace", simulateTrace),
				zap.Int("requests", result.Requests),
				zap.Int("rejected", result.Rejected))
		}

		rendered, err := output.NewFormatter(format).FormatSimulation(result)
		if err != nil {
			return errwrap.WrapInternal(ctx, err, "unable to render result")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateTrace, "trace", "", "path to YAML trace file")
	simulateCmd.Flags().IntVar(&simulateLimit, "limit", 0, "override admission limit")
	simulateCmd.Flags().DurationVar(&simulateWindow, "window", 0, "override admission window (e.g. 24h)")
	simulateCmd.Flags().StringVarP(&simulateFormat, "output-format", "o", "table", "output format: table, json, markdown")
	_ = simulateCmd.MarkFlagRequired("trace")
}
