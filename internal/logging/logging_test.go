package logging_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"valutatrade/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, logging.ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, logging.ParseLevel("WARN"))
	require.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, logging.ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, logging.ParseLevel("info"))
	require.Equal(t, slog.LevelInfo, logging.ParseLevel("verbose"))
	require.Equal(t, slog.LevelInfo, logging.ParseLevel(""))
}

func TestNew(t *testing.T) {
	t.Parallel()

	log := logging.New(slog.LevelWarn)
	require.NotNil(t, log)
	require.False(t, log.Enabled(t.Context(), slog.LevelInfo))
	require.True(t, log.Enabled(t.Context(), slog.LevelWarn))
}
