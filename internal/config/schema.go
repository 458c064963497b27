package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OptionType represents the expected type of a configuration option value.
type OptionType string

const (
	TypeString   OptionType = "string"
	TypeBool     OptionType = "bool"
	TypeInt      OptionType = "int"
	TypeDuration OptionType = "duration"
)

// Option declares a single configuration option.
type Option struct {
	// Key is the dotted name, section first, e.g. "log.level".
	Key string

	Type        OptionType
	Default     string
	Description string

	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
}

// Options returns every known option, in file order.
func Options() []Option {
	d := Default()
	return []Option{
		{Key: "log.level", Type: TypeString, Default: d.Log.Level, Description: "Log level: debug, info, warn, error", EnvVar: EnvLogLevel},
		{Key: "log.format", Type: TypeString, Default: d.Log.Format, Description: "Log output format: text, json"},
		{Key: "log.buffer-size", Type: TypeInt, Default: strconv.Itoa(d.Log.BufferSize), Description: "In-memory log history size (entries)"},
		{Key: "run.behaviour", Type: TypeString, Default: d.Run.Behaviour, Description: "Behaviour run by default"},
		{Key: "run.ticks", Type: TypeInt, Default: strconv.Itoa(d.Run.Ticks), Description: "Ticks per run, 0 for unlimited"},
		{Key: "run.interval", Type: TypeDuration, Default: d.Run.Interval.String(), Description: "Time between ticks"},
		{Key: "run.seed", Type: TypeInt, Default: strconv.FormatInt(d.Run.Seed, 10), Description: "Random seed of the demo world"},
		{Key: "telemetry.enabled", Type: TypeBool, Default: strconv.FormatBool(d.Telemetry.Enabled), Description: "Record OpenTelemetry metrics and print a summary"},
		{Key: "telemetry.agent", Type: TypeString, Default: d.Telemetry.Agent, Description: "Agent name attached to telemetry"},
	}
}

// Lookup returns the option declared under key.
func Lookup(key string) (Option, bool) {
	for _, opt := range Options() {
		if opt.Key == key {
			return opt, true
		}
	}
	return Option{}, false
}

// Get returns the value of key formatted as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "log.level":
		return c.Log.Level, nil
	case "log.format":
		return c.Log.Format, nil
	case "log.buffer-size":
		return strconv.Itoa(c.Log.BufferSize), nil
	case "run.behaviour":
		return c.Run.Behaviour, nil
	case "run.ticks":
		return strconv.Itoa(c.Run.Ticks), nil
	case "run.interval":
		return c.Run.Interval.String(), nil
	case "run.seed":
		return strconv.FormatInt(c.Run.Seed, 10), nil
	case "telemetry.enabled":
		return strconv.FormatBool(c.Telemetry.Enabled), nil
	case "telemetry.agent":
		return c.Telemetry.Agent, nil
	default:
		return "", fmt.Errorf("unknown option: %q", key)
	}
}

// Set parses value according to the option type and stores it under key.
func (c *Config) Set(key, value string) error {
	opt, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("unknown option: %q", key)
	}
	if err := validateType(opt.Type, value); err != nil {
		return fmt.Errorf("option %q: %w", key, err)
	}
	switch key {
	case "log.level":
		c.Log.Level = value
	case "log.format":
		c.Log.Format = value
	case "log.buffer-size":
		c.Log.BufferSize, _ = strconv.Atoi(value)
	case "run.behaviour":
		c.Run.Behaviour = value
	case "run.ticks":
		c.Run.Ticks, _ = strconv.Atoi(value)
	case "run.interval":
		c.Run.Interval.Duration, _ = time.ParseDuration(value)
	case "run.seed":
		c.Run.Seed, _ = strconv.ParseInt(value, 10, 64)
	case "telemetry.enabled":
		c.Telemetry.Enabled, _ = strconv.ParseBool(value)
	case "telemetry.agent":
		c.Telemetry.Agent = value
	}
	return nil
}

// validateType checks that a string value matches the expected OptionType.
func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// FormatHelp describes every option, one per line.
func FormatHelp() string {
	var b strings.Builder
	for _, o := range Options() {
		fmt.Fprintf(&b, "  %-20s %s", o.Key, o.Description)
		parts := make([]string, 0, 3)
		if o.Type != TypeString {
			parts = append(parts, "type: "+string(o.Type))
		}
		if o.Default != "" {
			parts = append(parts, "default: "+o.Default)
		}
		if o.EnvVar != "" {
			parts = append(parts, "env: "+o.EnvVar)
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
