package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pixelgate/pixelgate/internal/config"
	"github.com/pixelgate/pixelgate/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display version, runtime and effective configuration. Secrets are never printed.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		version := crucible.GetVersion()
		identity := GetAppIdentity()

		log.Info("=== Environment Information ===")
		log.Info("")

		log.Info("Application:")
		log.Info("  Name:       " + identity.BinaryName)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		configFile := viper.ConfigFileUsed()
		if configFile == "" {
			configFile = config.DefaultConfigPath(identity.ConfigName) + " (not found)"
		}

		log.Info("Configuration:")
		log.Info("  Config File:    " + configFile)
		log.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		log.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info(fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port))
		log.Info("")

		log.Info("Admission:")
		log.Info(fmt.Sprintf("  Limit:          %d", cfg.Admission.Limit), zap.Int("limit", cfg.Admission.Limit))
		log.Info("  Window:         "+cfg.Admission.Window.String(), zap.Duration("window", cfg.Admission.Window))
		log.Info("  Client Header:  " + cfg.Admission.ClientHeader)
		log.Info("  Fallback ID:    " + cfg.Admission.FallbackIdentifier)
		if cfg.Admission.EvictInterval > 0 {
			log.Info("  Evict Every:    " + cfg.Admission.EvictInterval.String())
		} else {
			log.Info("  Evict Every:    (disabled)")
		}
		log.Info("")

		log.Info("Generator:")
		log.Info("  Base URL:       " + cfg.Generator.BaseURL)
		log.Info("  Model:          " + cfg.Generator.Model)
		log.Info("  Timeout:        " + cfg.Generator.Timeout.String())
		log.Info(fmt.Sprintf("  Steps:          %d", cfg.Generator.InferenceSteps))
		log.Info("  Extension:      " + cfg.Generator.ResponseExtension)
		if strings.TrimSpace(cfg.Generator.APIKey) != "" {
			log.Info("  API Key:        (set)")
		} else {
			log.Info("  API Key:        (not set)")
		}
		log.Info("")

		log.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
