package observability

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger is used for CLI commands (SIMPLE profile)
	CLILogger *logging.Logger

	// ServerLogger is used by the HTTP server (STRUCTURED profile)
	ServerLogger *logging.Logger
)

// ServerLoggerOptions configures the structured server logger.
type ServerLoggerOptions struct {
	Service     string
	Level       string
	Namespace   string
	Environment string
}

// InitCLILogger initializes the CLI logger with SIMPLE profile
func InitCLILogger(serviceName string, verbose bool) {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize CLI logger", err)
	}

	if verbose {
		logger.SetLevel(logging.DEBUG)
	}

	CLILogger = logger
}

// InitServerLogger initializes the server logger with STRUCTURED profile.
// JSON lines go to stderr with correlation middleware enabled.
func InitServerLogger(opts ServerLoggerOptions) {
	logger, err := logging.New(serverLoggerConfig(opts))
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize server logger", err)
	}

	ServerLogger = logger
}

func serverLoggerConfig(opts ServerLoggerOptions) *logging.LoggerConfig {
	staticFields := make(map[string]any)
	if opts.Namespace != "" {
		staticFields["namespace"] = opts.Namespace
	}

	environment := strings.TrimSpace(opts.Environment)
	if environment == "" {
		environment = "production"
	}

	return &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: parseLogLevel(opts.Level),
		Service:      opts.Service,
		Environment:  environment,
		StaticFields: staticFields,
		Middleware: []logging.MiddlewareConfig{
			{
				Name:    "correlation",
				Enabled: true,
				Order:   100,
				Config:  make(map[string]any),
			},
		},
		Sinks: []logging.SinkConfig{
			{
				Type:   "console",
				Format: "json",
				Console: &logging.ConsoleSinkConfig{
					Stream:   "stderr",
					Colorize: false,
				},
			},
		},
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}

// parseLogLevel converts a config log level to a logging severity string
func parseLogLevel(levelStr string) string {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "trace":
		return "TRACE"
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}

// exitWithCodeStderr exits with a semantic exit code, writing to stderr.
// Used for logger initialization failures before any logger exists.
func exitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	os.Exit(info.Code)
}
