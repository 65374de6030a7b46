package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pastemagic/pastemagic/internal/config"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		verbose bool
		want    zapcore.Level
	}{
		{"debug", false, zapcore.DebugLevel},
		{"info", false, zapcore.InfoLevel},
		{"warn", false, zapcore.WarnLevel},
		{"error", false, zapcore.ErrorLevel},
		{"error", true, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(config.LogConfig{Level: tt.level}, tt.verbose)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "chatty"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pastemagic.log")

	l, err := New(config.LogConfig{Level: "info", File: path}, false)
	require.NoError(t, err)
	l.Info("lookup finished")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "lookup finished", entry["msg"])
	assert.Equal(t, "pastemagic", entry["logger"])
	assert.Contains(t, entry, "ts")
}
