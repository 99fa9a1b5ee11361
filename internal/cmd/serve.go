package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pixelgate/pixelgate/internal/appid"
	"github.com/pixelgate/pixelgate/internal/config"
	"github.com/pixelgate/pixelgate/internal/core/admission"
	errwrap "github.com/pixelgate/pixelgate/internal/errors"
	"github.com/pixelgate/pixelgate/internal/generator/nebius"
	"github.com/pixelgate/pixelgate/internal/metrics"
	"github.com/pixelgate/pixelgate/internal/observability"
	"github.com/pixelgate/pixelgate/internal/server"
	"github.com/pixelgate/pixelgate/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

func telemetryHealthCheck(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

func identityHealthCheck(identity *appidentity.Identity) handlers.CheckerFunc {
	return func(ctx context.Context) error {
		switch {
		case identity == nil || identity.BinaryName == "":
			return errwrap.NewConfigInvalidError("app identity missing binary name")
		case identity.EnvPrefix == "":
			return errwrap.NewConfigInvalidError("app identity missing env prefix")
		case identity.ConfigName == "":
			return errwrap.NewConfigInvalidError("app identity missing config name")
		}
		return nil
	}
}

func generatorHealthCheck(client *nebius.Client) handlers.CheckerFunc {
	return func(ctx context.Context) error {
		if !client.Configured() {
			return errwrap.NewConfigInvalidError("image provider API key not configured")
		}
		return nil
	}
}

// newGenerator builds the provider client from config.
func newGenerator(cfg config.GeneratorConfig) *nebius.Client {
	client := nebius.NewClient(cfg.BaseURL, cfg.APIKey)
	if cfg.Model != "" {
		client.Model = cfg.Model
	}
	if cfg.InferenceSteps > 0 {
		client.InferenceSteps = cfg.InferenceSteps
	}
	if cfg.ResponseExtension != "" {
		client.Extension = cfg.ResponseExtension
	}
	client.Timeout = cfg.Timeout
	return client
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the image generation gateway",
	Long: `Start the HTTP server that fronts the image provider.

Each client (identified by the configured header) may generate at most
admission.limit images per admission.window. Requests over the limit get 429.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config file re-read (admission policy is fixed until restart)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "configuration invalid")
		}

		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		observability.InitServerLogger(observability.ServerLoggerOptions{
			Service:   identity.BinaryName,
			Level:     cfg.Logging.Level,
			Namespace: namespace,
		})
		logger := observability.ServerLogger

		gen := newGenerator(cfg.Generator)
		if !gen.Configured() {
			return errwrap.NewConfigInvalidError("image provider API key missing: set generator.api_key, " +
				appid.EnvVar(identity, "generator_api_key") + " or " + config.APIKeyEnvFallback)
		}

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(identity.BinaryName, cfg.Metrics.Port, namespace); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
			}
			metrics.SetServerStartTime(time.Now().Unix())
		}

		tracker := admission.New(cfg.Admission.Limit, cfg.Admission.Window)

		logger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("admission_limit", tracker.Limit()),
			zap.Duration("admission_window", tracker.Window()),
			zap.String("client_header", cfg.Admission.ClientHeader),
			zap.String("provider", gen.Name()),
			zap.String("model", gen.Model))

		health := handlers.NewHealthManager(versionInfo.Version)
		health.RegisterChecker("app_identity", identityHealthCheck(identity))
		health.RegisterChecker("generator", generatorHealthCheck(gen))
		if cfg.Metrics.Enabled {
			health.RegisterChecker("telemetry", handlers.CheckerFunc(telemetryHealthCheck))
		}

		srv := server.New(server.Options{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			Images: &handlers.ImageHandler{
				Tracker:            tracker,
				Generator:          gen,
				ClientHeader:       cfg.Admission.ClientHeader,
				FallbackIdentifier: cfg.Admission.FallbackIdentifier,
			},
			Health:     health,
			Identity:   identity,
			Build:      handlers.BuildInfo{Version: versionInfo.Version, Commit: versionInfo.Commit, BuildDate: versionInfo.BuildDate},
			AdminToken: os.Getenv(appid.EnvVar(identity, "admin_token")),
		})

		sweepCtx, stopSweeper := context.WithCancel(ctx)
		defer stopSweeper()
		if cfg.Admission.EvictInterval > 0 {
			logger.Info("Admission sweeper enabled", zap.Duration("interval", cfg.Admission.EvictInterval))
			go tracker.RunSweeper(sweepCtx, cfg.Admission.EvictInterval, nil, func(evicted, tracked int) {
				metrics.RecordSweep(evicted)
				metrics.SetTrackedIdentifiers(tracked)
				if evicted > 0 {
					logger.Debug("Evicted idle identifiers",
						zap.Int("evicted", evicted),
						zap.Int("tracked", tracked))
				}
			})
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Shutdown handlers run LIFO: server first, then sweeper, then logger flush.
		signals.OnShutdown(func(ctx context.Context) error {
			if err := logger.Sync(); err != nil {
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			stopSweeper()
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: re-reading config file")
			if err := viper.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if errors.As(err, &notFound) {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			if level := viper.GetString("logging.level"); level != "" && level != cfg.Logging.Level {
				logger.Info("Log level change requires restart", zap.String("requested", level))
			}
			logger.Info("Configuration reloaded", zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(ctx); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
