package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: "warn", Format: "json", Console: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("audit failed", zap.String("url", "https://example.com"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"audit failed"`)
	assert.Contains(t, out, `"url":"https://example.com"`)
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	var console bytes.Buffer

	logger, err := NewLogger(Config{Level: "info", Format: "console", File: path, Console: &console})
	require.NoError(t, err)

	logger.Info("server starting", zap.String("port", "8082"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"server starting"`)
	assert.Contains(t, console.String(), "INFO")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "chatty"})
	assert.Error(t, err)
}
