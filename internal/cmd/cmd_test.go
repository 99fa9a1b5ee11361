package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelgate/pixelgate/internal/config"
	"github.com/pixelgate/pixelgate/internal/simulate"
)

func TestWriteVersion(t *testing.T) {
	SetVersionInfo("1.0.0", "abc123", "2025-01-01")

	var buf bytes.Buffer
	writeVersion(&buf, "pixelgate", false)
	assert.Equal(t, "pixelgate 1.0.0\n", buf.String())

	buf.Reset()
	writeVersion(&buf, "pixelgate", true)
	assert.Contains(t, buf.String(), "Commit: abc123")
	assert.Contains(t, buf.String(), "Gofulmen: ")
}

func TestConfigureViperBindsPrefixedEnv(t *testing.T) {
	t.Setenv("PIXELGATE_ADMISSION_LIMIT", "7")
	t.Setenv("PIXELGATE_GENERATOR_API_KEY", "secret")

	v := viper.New()
	configureViper(v, &appidentity.Identity{BinaryName: "pixelgate", ConfigName: "pixelgate", EnvPrefix: "PIXELGATE_"})

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Admission.Limit)
	assert.Equal(t, 24*time.Hour, cfg.Admission.Window)
	assert.Equal(t, "secret", cfg.Generator.APIKey)
}

func TestNewGeneratorAppliesConfig(t *testing.T) {
	client := newGenerator(config.GeneratorConfig{
		BaseURL:           "https://example.test/v1/",
		APIKey:            "k",
		Model:             "m",
		Timeout:           5 * time.Second,
		InferenceSteps:    8,
		ResponseExtension: "png",
	})

	assert.True(t, client.Configured())
	assert.Equal(t, "m", client.Model)
	assert.Equal(t, 8, client.InferenceSteps)
	assert.Equal(t, "png", client.Extension)
	assert.Equal(t, 5*time.Second, client.Timeout)

	assert.Error(t, generatorHealthCheck(newGenerator(config.GeneratorConfig{}))(context.Background()))
	assert.NoError(t, generatorHealthCheck(client)(context.Background()))
}

func TestIdentityHealthCheck(t *testing.T) {
	assert.Error(t, identityHealthCheck(nil)(context.Background()))
	assert.Error(t, identityHealthCheck(&appidentity.Identity{BinaryName: "x"})(context.Background()))
	assert.NoError(t, identityHealthCheck(&appidentity.Identity{
		BinaryName: "x", EnvPrefix: "X_", ConfigName: "x",
	})(context.Background()))
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(errors.NewErrorEnvelope("CONFIG_INVALID", "bad")))
	assert.Equal(t, foundry.ExitFailure, ExitCodeFor(os.ErrNotExist))
}

func TestWriteFatal(t *testing.T) {
	var buf bytes.Buffer
	writeFatal(&buf, "boom", nil)
	assert.Equal(t, "FATAL: boom\n", buf.String())

	buf.Reset()
	env := errors.NewErrorEnvelope("CONFIG_INVALID", "missing key").WithCorrelationID("cid-1")
	writeFatal(&buf, "serve failed", env)
	assert.Contains(t, buf.String(), "[CONFIG_INVALID]: missing key (correlation: cid-1)")
}

func TestSimulateCommandRendersJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
start: 2025-01-01T00:00:00Z
events:
  - client: a
    at: 0s
    repeat: 3
`), 0o600))

	simulateTrace, simulateLimit, simulateWindow, simulateFormat = path, 2, time.Hour, "json"
	t.Cleanup(func() {
		simulateTrace, simulateLimit, simulateWindow, simulateFormat = "", 0, 0, "table"
	})

	var buf bytes.Buffer
	simulateCmd.SetOut(&buf)
	simulateCmd.SetContext(context.Background())
	t.Cleanup(func() { simulateCmd.SetOut(nil) })

	require.NoError(t, simulateCmd.RunE(simulateCmd, nil))

	var result simulate.Result
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &result))
	assert.Equal(t, 2, result.Admitted)
	assert.Equal(t, 1, result.Rejected)
}

func TestSimulateCommandRejectsUnknownFormat(t *testing.T) {
	simulateTrace, simulateFormat = "unused.yaml", "csv"
	t.Cleanup(func() { simulateTrace, simulateFormat = "", "table" })

	simulateCmd.SetContext(context.Background())
	err := simulateCmd.RunE(simulateCmd, nil)
	require.Error(t, err)

	envelope, ok := err.(*errors.ErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, "INVALID_INPUT", envelope.Code)
}
