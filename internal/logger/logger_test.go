package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"UCLA-Rocket-Project/MTP40/internal/config"
)

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mtp40.log")

	log, err := NewLogger(config.LoggingConfig{
		Level:  "debug",
		Format: "json",
		File:   config.LumberjackConfig{Filename: path, MaxSizeMB: 1},
	}, false)
	require.NoError(t, err)

	log.Debug("Sent frame", zap.String("command", "get address"))
	require.NoError(t, log.Sync())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), `"msg":"Sent frame"`)
	assert.Contains(t, string(contents), `"command":"get address"`)
}

func TestNewLoggerLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mtp40.log")

	log, err := NewLogger(config.LoggingConfig{
		Level:  "warn",
		Format: "console",
		File:   config.LumberjackConfig{Filename: path},
	}, false)
	require.NoError(t, err)

	log.Info("Opened serial port")
	log.Warn("Could not discard stale input")
	require.NoError(t, log.Sync())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(contents), "Opened serial port")
	assert.Contains(t, string(contents), "Could not discard stale input")
}

func TestNewLoggerRejectsBadSettings(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)

	_, err = NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, false)
	assert.Error(t, err)
}

func TestTee(t *testing.T) {
	var buf bytes.Buffer
	log := Tee(zap.NewNop(), &buf, zapcore.InfoLevel)

	log.Debug("hidden")
	log.Info("Sensor address changed", zap.Uint8("to", 7))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "Sensor address changed")
	assert.Contains(t, buf.String(), `"to": 7`)
}
