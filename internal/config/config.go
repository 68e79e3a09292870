// Package config loads navroute settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up in the working directory when no file is given
const DefaultPath = "navroute.yml"

// Config holds the tool settings
type Config struct {
	MaximumPositionCount int       `yaml:"maximum_position_count" validate:"min=1,max=255"`
	Charset              string    `yaml:"charset" validate:"oneof=windows-1252 iso-8859-1 iso-8859-15 utf-8"`
	Log                  LogConfig `yaml:"log"`
}

// LogConfig configures diagnostics output
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

// Default returns the settings used without a config file
func Default() Config {
	return Config{
		MaximumPositionCount: 99,
		Charset:              "utf-8",
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads the config at path. An empty path falls back to DefaultPath,
// and a missing DefaultPath to the defaults. A missing explicit path is an
// error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Charset = strings.ToLower(cfg.Charset)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings against their allowed ranges
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Encoding returns the label encoding for a charset name. UTF-8 returns a
// nil encoding, meaning labels are taken as they are.
func Encoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	case "utf-8", "utf8":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown charset: %s", name)
	}
}
