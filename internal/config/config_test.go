package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 99, cfg.MaximumPositionCount)
	assert.Equal(t, "utf-8", cfg.Charset)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
maximum_position_count: 50
charset: UTF-8
log:
  level: debug
  file: /tmp/navroute.log
`))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MaximumPositionCount)
	assert.Equal(t, "utf-8", cfg.Charset)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/navroute.log", cfg.Log.File)
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("charset: iso-8859-15\n"))
	require.NoError(t, err)

	assert.Equal(t, 99, cfg.MaximumPositionCount)
	assert.Equal(t, "iso-8859-15", cfg.Charset)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero count", "maximum_position_count: 0\n"},
		{"count above byte", "maximum_position_count: 256\n"},
		{"unknown charset", "charset: koi8-r\n"},
		{"unknown level", "log:\n  level: verbose\n"},
		{"broken yaml", "log: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("maximum_position_count: 10\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaximumPositionCount)

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestLoadDefaultPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(DefaultPath, []byte("charset: utf-8\n"), 0o644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", cfg.Charset)
}

func TestEncoding(t *testing.T) {
	enc, err := Encoding("Windows-1252")
	require.NoError(t, err)
	assert.Equal(t, charmap.Windows1252, enc)

	enc, err = Encoding("iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, charmap.ISO8859_1, enc)

	enc, err = Encoding("utf-8")
	require.NoError(t, err)
	assert.Nil(t, enc)

	_, err = Encoding("ebcdic")
	assert.Error(t, err)
}
