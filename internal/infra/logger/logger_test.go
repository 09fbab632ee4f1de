package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestInit_FileOutput(t *testing.T) {
	prev, prevLevel := zlog.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		zlog.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "beatdeck.log")
	closer, err := Init(Config{Output: "file", File: path, Level: "debug"})
	require.NoError(t, err)

	zlog.Info().Msgf("playback: state changed: state=%s", "playing")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"playback: state changed: state=playing"`)
	assert.Contains(t, string(data), `"caller":"logger/logger_test.go:`)
}

func TestInit_InvalidOutput(t *testing.T) {
	_, err := Init(Config{Output: "file"})
	assert.Error(t, err)

	_, err = Init(Config{Output: "syslog"})
	assert.Error(t, err)
}
