package command

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joeycumines/go-htn/internal/config"
)

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

// Execute displays help information.
func (c *HelpCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "htn - hierarchical task network planner")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: htn <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Available commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'htn help <command>' for more information about a specific command (includes flags).")
		return nil
	}

	cmd, err := c.registry.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: htn %s\n", cmd.Usage())

	// flags are only known once SetupFlags ran against a FlagSet
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	buf := &bytes.Buffer{}
	fs.SetOutput(buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}
	return nil
}

// VersionCommand displays version information.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

// Execute displays version information.
func (c *VersionCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if err := noArgs(args, stderr); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "htn version %s\n", c.version)
	return nil
}

// ConfigCommand shows and edits the configuration file.
type ConfigCommand struct {
	*BaseCommand
	config *config.Config
	force  bool
}

// NewConfigCommand creates a new config command operating on cfg.
// Changes are written to cfg.Path, or to config.Path() when cfg was not
// loaded from a file.
func NewConfigCommand(cfg *config.Config) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Manage configuration settings",
			"config [options] [show|path|validate|schema|init|<key> [value]]",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the config command.
func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "Overwrite an existing file (config init)")
}

// Execute manages configuration.
func (c *ConfigCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration management:")
		_, _ = fmt.Fprintln(stdout, "  config show           - Print the effective configuration")
		_, _ = fmt.Fprintln(stdout, "  config path           - Print the configuration file path")
		_, _ = fmt.Fprintln(stdout, "  config validate       - Validate configuration")
		_, _ = fmt.Fprintln(stdout, "  config schema         - Show configuration schema")
		_, _ = fmt.Fprintln(stdout, "  config init [--force] - Write the default configuration file")
		_, _ = fmt.Fprintln(stdout, "  config <key>          - Get configuration value")
		_, _ = fmt.Fprintln(stdout, "  config <key> <value>  - Set configuration value")
		return nil
	}

	switch args[0] {
	case "show":
		data, err := c.config.Marshal()
		if err != nil {
			return err
		}
		_, _ = stdout.Write(data)
		return nil
	case "path":
		path, err := c.path()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, path)
		return nil
	case "validate":
		return c.executeValidate(stdout)
	case "schema":
		_, _ = fmt.Fprint(stdout, config.FormatHelp())
		return nil
	case "init":
		return c.executeInit(stdout)
	}

	switch len(args) {
	case 1:
		value, err := c.config.Get(args[0])
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Configuration key '%s' not found\n", args[0])
			return err
		}
		_, _ = fmt.Fprintf(stdout, "%s: %s\n", args[0], value)
		return nil
	case 2:
		key, value := args[0], args[1]
		if err := c.config.Set(key, value); err != nil {
			return err
		}
		path, err := c.path()
		if err != nil {
			return err
		}
		if err := c.config.WriteFile(path); err != nil {
			return fmt.Errorf("failed to persist config: %w", err)
		}
		c.config.Path = path
		_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", key, value)
		return nil
	}

	return usageErrorf(stderr, "invalid number of arguments: %d", len(args))
}

func (c *ConfigCommand) path() (string, error) {
	if c.config.Path != "" {
		return c.config.Path, nil
	}
	path, err := config.Path()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return path, nil
}

// executeValidate validates the current config.
func (c *ConfigCommand) executeValidate(stdout io.Writer) error {
	for _, w := range c.config.Warnings {
		_, _ = fmt.Fprintf(stdout, "Warning: %s\n", w)
	}
	if err := c.config.Validate(); err != nil {
		_, _ = fmt.Fprintln(stdout, "Configuration is invalid:")
		_, _ = fmt.Fprintln(stdout, err)
		return err
	}
	_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
	return nil
}

func (c *ConfigCommand) executeInit(stdout io.Writer) error {
	path, err := c.path()
	if err != nil {
		return err
	}
	if err := config.WriteDefault(path, c.force); err != nil {
		if errors.Is(err, os.ErrExist) {
			_, _ = fmt.Fprintf(stdout, "Configuration already exists at: %s\n", path)
			_, _ = fmt.Fprintln(stdout, "Use --force to overwrite existing configuration")
			return nil
		}
		return fmt.Errorf("failed to write config file: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "Initialized configuration at: %s\n", path)
	return nil
}
