package command

import (
	"fmt"

	"github.com/joeycumines/go-htn/internal/config"
	"github.com/joeycumines/go-htn/internal/logging"
)

// resolveLogOptions resolves logging options from flags and config defaults.
// Flag values take precedence; config values are used when flags have their
// zero value.
func resolveLogOptions(flagLevel, flagFormat string, flagBufferSize int, cfg *config.Config) (logging.Options, error) {
	var opts logging.Options
	if cfg == nil {
		cfg = config.Default()
	}

	// flag → config → info
	levelStr := flagLevel
	if levelStr == "" {
		levelStr = cfg.Log.Level
	}
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return opts, fmt.Errorf("invalid log level: %s", levelStr)
	}
	opts.Level = level

	formatStr := flagFormat
	if formatStr == "" {
		formatStr = cfg.Log.Format
	}
	if opts.Format, err = logging.ParseFormat(formatStr); err != nil {
		return opts, fmt.Errorf("invalid log format: %s", formatStr)
	}

	// flag → config → logging.DefaultBufferSize
	opts.BufferSize = flagBufferSize
	if opts.BufferSize <= 0 {
		opts.BufferSize = cfg.Log.BufferSize
		if opts.BufferSize <= 0 {
			opts.BufferSize = logging.DefaultBufferSize
		}
	}

	return opts, nil
}
