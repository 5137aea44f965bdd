package cmd

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/ingest/config"
)

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	require.NoError(t, setupLogging(config.LoggingConfig{Level: "debug", Format: "json"}))
	require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	require.NoError(t, setupLogging(config.LoggingConfig{Level: "WARN", Format: "console"}))
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	require.NoError(t, setupLogging(config.LoggingConfig{}))
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	require.Error(t, setupLogging(config.LoggingConfig{Level: "loud"}))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), "Version:    "+Version)
}
