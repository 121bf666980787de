// config.go - file-based Tracker configuration.
//
// Example (TOML):
//
//	truncate_limit = 48
//	reraise = true
//	library_markers = ["/pkg/mod/", "/vendor/"]
//
//	[[sinks]]
//	type = "stderr"
//	color = true
//
//	[[sinks]]
//	type = "file"
//	path = "/var/log/app/errors.log"
//
// The same keys are accepted in YAML. Unknown keys are rejected.
package errtrack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Sink types accepted in configuration files.
const (
	SinkLog    = "log"
	SinkStderr = "stderr"
	SinkStdout = "stdout"
	SinkFile   = "file"
)

// Config is the serialisable form of a Tracker's options.
type Config struct {
	TruncateLimit  int          `toml:"truncate_limit" yaml:"truncate_limit"`
	Reraise        bool         `toml:"reraise" yaml:"reraise"`
	LibraryMarkers []string     `toml:"library_markers" yaml:"library_markers"`
	Sinks          []SinkConfig `toml:"sinks" yaml:"sinks"`
}

// SinkConfig selects one report destination.
type SinkConfig struct {
	Type  string `toml:"type" yaml:"type"`
	Path  string `toml:"path" yaml:"path"`
	Color bool   `toml:"color" yaml:"color"`
}

// LoadConfig reads a TOML (.toml) or YAML (.yaml, .yml) configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data in format ("toml", "yaml" or "yml") and validates
// the result.
func ParseConfig(data []byte, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("decode toml: unknown keys %v", undecoded)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem in c at once.
func (c Config) Validate() error {
	var err error
	if c.TruncateLimit < 0 {
		err = multierr.Append(err, fmt.Errorf("truncate_limit must be positive, got %d", c.TruncateLimit))
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case SinkLog, SinkStderr, SinkStdout:
		case SinkFile:
			if s.Path == "" {
				err = multierr.Append(err, fmt.Errorf("sinks[%d]: file sink needs a path", i))
			}
		case "":
			err = multierr.Append(err, fmt.Errorf("sinks[%d]: missing type", i))
		default:
			err = multierr.Append(err, fmt.Errorf("sinks[%d]: unknown type %q", i, s.Type))
		}
	}
	return err
}

// Options converts c into Tracker options. logger backs "log" sinks; nil
// means slog.Default() at dispatch time.
func (c Config) Options(logger Logger) ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	opts := []Option{WithReraise(c.Reraise), WithTruncateLimit(c.TruncateLimit)}
	if c.LibraryMarkers != nil {
		opts = append(opts, WithLibraryMarkers(c.LibraryMarkers...))
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	sinks := make([]Sink, 0, len(c.Sinks))
	for _, s := range c.Sinks {
		sinks = append(sinks, s.sink(logger))
	}
	if len(sinks) > 0 {
		opts = append(opts, WithSinks(sinks...))
	}
	return opts, nil
}

func (s SinkConfig) sink(logger Logger) Sink {
	switch s.Type {
	case SinkStderr:
		return ColorSink(os.Stderr, s.Color)
	case SinkStdout:
		return ColorSink(os.Stdout, s.Color)
	case SinkFile:
		return FileSink(s.Path)
	default:
		return func(report string) {
			if logger != nil {
				logger.Error(report)
				return
			}
			defaultLogger().Error(report)
		}
	}
}
