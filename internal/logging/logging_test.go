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

func TestNewInvalidLevel(t *testing.T) {
	_, err := New("chatty", "")
	assert.Error(t, err)
}

func TestNewStderr(t *testing.T) {
	log, err := New("warn", "")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navroute.log")

	log, err := New("debug", path)
	require.NoError(t, err)
	log.Debug("decoded route", zap.Int("waypoints", 3))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"decoded route"`)
	assert.Contains(t, string(data), `"waypoints":3`)
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(zapcore.InfoLevel, &buf, false)
	log.Info("split route", zap.Int("parts", 2))
	log.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "split route")
	assert.NotContains(t, out, "hidden")
}
