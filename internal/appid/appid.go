// Package appid resolves the application identity, falling back to the copy
// embedded in the binary when no external identity file is present.
package appid

import (
	"context"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/pixelgate/pixelgate/internal/assets/appidentity"
)

// DefaultEnvPrefix is used when the identity carries no env prefix.
const DefaultEnvPrefix = "PIXELGATE_"

func init() {
	// FULMEN_APP_IDENTITY_PATH still wins over the embedded copy.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// EnvVar returns the environment variable name for key under identity's
// prefix, e.g. EnvVar(id, "admin_token") == "PIXELGATE_ADMIN_TOKEN".
func EnvVar(identity *appidentity.Identity, key string) string {
	prefix := DefaultEnvPrefix
	if identity != nil && identity.EnvPrefix != "" {
		prefix = identity.EnvPrefix
	}
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix + strings.ToUpper(key)
}
