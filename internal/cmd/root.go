package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pixelgate/pixelgate/internal/appid"
	"github.com/pixelgate/pixelgate/internal/config"
	"github.com/pixelgate/pixelgate/internal/observability"
)

var (
	cfgFile string
	verbose bool

	appIdentity *appidentity.Identity

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// GetAppIdentity returns the loaded app identity (only valid after initConfig)
func GetAppIdentity() *appidentity.Identity {
	return appIdentity
}

var rootCmd = &cobra.Command{
	// initConfig overwrites these from app identity.
	Use:   filepath.Base(os.Args[0]),
	Short: "Image generation gateway with per-client admission control",
}

// Execute runs the root command. Called once by main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Keep config loading quiet until serve installs the real telemetry system.
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	if identity, err := appid.Get(context.Background()); err == nil && identity != nil {
		applyIdentity(identity)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults to app identity config path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func applyIdentity(identity *appidentity.Identity) {
	appIdentity = identity
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
		rootCmd.Long = fmt.Sprintf("%s - %s\n\nUse the subcommands to perform specific operations.", identity.BinaryName, identity.Description)
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f != nil && identity.ConfigName != "" {
		f.Usage = fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	identity, err := appid.Get(context.Background())
	if err != nil {
		ExitWithCodeStderr(foundry.ExitFileNotFound, "Failed to load app identity", err)
	}
	applyIdentity(identity)

	observability.InitCLILogger(appIdentity.BinaryName, verbose)

	configureViper(viper.GetViper(), appIdentity)

	if err := viper.ReadInConfig(); err == nil {
		observability.CLILogger.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		observability.CLILogger.Debug("No config file found, using defaults and environment variables")
	} else {
		observability.CLILogger.Warn("Error reading config file", zap.Error(err))
	}
}

// configureViper wires search paths, env binding and defaults into v.
func configureViper(v *viper.Viper, identity *appidentity.Identity) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if dir := gfconfig.GetAppConfigDir(identity.ConfigName); dir != "" {
			v.AddConfigPath(dir)
			v.SetConfigName("config")
		} else if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
			v.SetConfigName("." + identity.ConfigName)
		}
		v.AddConfigPath("./config")
		v.SetConfigType("yaml")
	}

	// PIXELGATE_ADMISSION_LIMIT -> admission.limit
	v.SetEnvPrefix(strings.TrimSuffix(identity.EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	config.SetDefaults(v)
}
