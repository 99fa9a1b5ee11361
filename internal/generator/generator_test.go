package generator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Provider: "nebius", StatusCode: 401, Message: "bad key"}
	require.Equal(t, "nebius request failed: status 401: bad key", err.Error())

	err = &ProviderError{Provider: "nebius", Message: "boom"}
	require.Equal(t, "nebius request failed: boom", err.Error())
}

func TestStatusCodeUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("generate: %w", &ProviderError{Provider: "nebius", StatusCode: 429})
	require.Equal(t, 429, StatusCode(wrapped))
	require.Equal(t, 0, StatusCode(fmt.Errorf("plain")))
	require.Equal(t, 0, StatusCode(nil))
}
