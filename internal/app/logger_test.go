package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigureLogging(t *testing.T) {
	require.NoError(t, ConfigureLogging("debug"))

	// Blank and padded levels fall back to info.
	require.NoError(t, ConfigureLogging(""))
	require.NoError(t, ConfigureLogging("  warn  "))
}
