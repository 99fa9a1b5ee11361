package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// ExitWithCode logs err with foundry exit code metadata and exits.
// logger may be nil for failures before logger initialization.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger == nil {
		writeFatal(os.Stderr, msg, err)
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		os.Exit(info.Code)
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	if envelope, ok := err.(*errors.ErrorEnvelope); ok {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("error_message", envelope.Message),
			zap.String("correlation_id", envelope.CorrelationID),
		)
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
		if original, ok := envelope.Original.(error); ok {
			err = original
		}
	}
	fields = append(fields, zap.Error(err))
	logger.Error(msg, fields...)

	os.Exit(info.Code)
}

// ExitWithCodeStderr exits without a logger.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	ExitWithCode(nil, exitCode, msg, err)
}

// ExitCodeFor picks the foundry exit code matching err.
func ExitCodeFor(err error) foundry.ExitCode {
	if envelope, ok := err.(*errors.ErrorEnvelope); ok {
		switch envelope.Code {
		case "CONFIG_INVALID":
			return foundry.ExitConfigInvalid
		case "EXTERNAL_SERVICE_ERROR":
			return foundry.ExitExternalServiceUnavailable
		}
	}
	return foundry.ExitFailure
}

func writeFatal(w io.Writer, msg string, err error) {
	envelope, isEnvelope := err.(*errors.ErrorEnvelope)
	switch {
	case err == nil:
		fmt.Fprintf(w, "FATAL: %s\n", msg)
	case isEnvelope:
		fmt.Fprintf(w, "FATAL: %s [%s]: %s (correlation: %s)\n",
			msg, envelope.Code, envelope.Message, envelope.CorrelationID)
		if details, ok := envelope.Context["wrapped_error"]; ok {
			fmt.Fprintf(w, "Underlying error: %v\n", details)
		}
	default:
		fmt.Fprintf(w, "FATAL: %s: %v\n", msg, err)
	}
}
