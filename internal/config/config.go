// Package config loads the htn CLI configuration, a TOML file with [log],
// [run] and [telemetry] sections.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeycumines/go-htn/internal/logging"
)

// Config represents the application configuration.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Run       RunConfig       `toml:"run"`
	Telemetry TelemetryConfig `toml:"telemetry"`

	// Path is the file the configuration was loaded from, or "" for defaults.
	Path string `toml:"-"`

	// Warnings contains any warnings generated during config loading.
	Warnings []string `toml:"-"`
}

// LogConfig is the [log] section.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	BufferSize int    `toml:"buffer-size"`
}

// RunConfig is the [run] section, the defaults of the run command.
type RunConfig struct {
	Behaviour string   `toml:"behaviour"`
	Ticks     int      `toml:"ticks"`
	Interval  Duration `toml:"interval"`
	Seed      int64    `toml:"seed"`
}

// TelemetryConfig is the [telemetry] section.
type TelemetryConfig struct {
	Enabled bool   `toml:"enabled"`
	Agent   string `toml:"agent"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			BufferSize: logging.DefaultBufferSize,
		},
		Run: RunConfig{
			Behaviour: "creature",
			Ticks:     40,
			Interval:  Duration{50 * time.Millisecond},
			Seed:      1,
		},
		Telemetry: TelemetryConfig{
			Agent: "creature-1",
		},
	}
}

// Load loads configuration from the path returned by Path.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads configuration from the specified file path. A missing
// file yields the defaults.
//
// SECURITY: symlinks are rejected, so the config path cannot be pointed at
// an arbitrary file.
func LoadFromPath(path string) (*Config, error) {
	// Lstat checks the final path component only.
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlink not allowed in config path: %s", path)
	}

	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	c, err := LoadFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// LoadFromReader decodes TOML over the defaults. Unknown keys are reported
// as warnings, not errors.
func LoadFromReader(r io.Reader) (*Config, error) {
	c := Default()
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	for _, key := range md.Undecoded() {
		c.Warnings = append(c.Warnings, fmt.Sprintf("unknown option: %q", key.String()))
	}
	sort.Strings(c.Warnings)
	return c, nil
}

// ApplyEnv applies the environment overrides declared in the schema.
func (c *Config) ApplyEnv() {
	for _, opt := range Options() {
		if opt.EnvVar == "" {
			continue
		}
		if v, ok := os.LookupEnv(opt.EnvVar); ok && v != "" {
			if err := c.Set(opt.Key, v); err != nil {
				c.Warnings = append(c.Warnings, fmt.Sprintf("%s: %v", opt.EnvVar, err))
			}
		}
	}
}

// Validate reports every invalid value, joined.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	if c.Log.BufferSize < 1 {
		errs = append(errs, fmt.Errorf("log.buffer-size: must be at least 1, got %d", c.Log.BufferSize))
	}
	if c.Run.Behaviour == "" {
		errs = append(errs, errors.New("run.behaviour: must not be empty"))
	}
	if c.Run.Ticks < 0 {
		errs = append(errs, fmt.Errorf("run.ticks: must not be negative, got %d", c.Run.Ticks))
	}
	if c.Run.Interval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("run.interval: must be positive, got %s", c.Run.Interval))
	}
	if c.Telemetry.Enabled && c.Telemetry.Agent == "" {
		errs = append(errs, errors.New("telemetry.agent: required when telemetry is enabled"))
	}
	return errors.Join(errs...)
}

// Marshal encodes the configuration to TOML bytes.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}
