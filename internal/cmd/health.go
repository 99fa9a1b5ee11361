package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pixelgate/pixelgate/internal/config"
	errwrap "github.com/pixelgate/pixelgate/internal/errors"
	"github.com/pixelgate/pixelgate/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify that the binary can start: version info, logger, configuration and provider credentials.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		if log == nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewConfigInvalidError("Logger not initialized"))
			return
		}
		log.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		log.Info("✅ Version information available", zap.String("version", versionInfo.Version))

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid"))
			return
		}
		log.Info(fmt.Sprintf("✅ Configuration valid (%d per %s)", cfg.Admission.Limit, cfg.Admission.Window))

		if newGenerator(cfg.Generator).Configured() {
			log.Info("✅ Image provider API key present")
		} else {
			log.Warn("⚠️  Image provider API key missing; serve will refuse to start")
		}

		log.Info("")
		log.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
