package command

import (
	"context"
	"flag"
	"io"
)

// Command is one htn subcommand, dispatched by name from a Registry.
type Command interface {
	// Name is the word selecting the command on the command line.
	Name() string

	// Description is the one-line summary listed by help.
	Description() string

	// Usage is the synopsis following "htn " in help output.
	Usage() string

	// SetupFlags registers the command's flags on fs before the arguments
	// after the command name are parsed.
	SetupFlags(fs *flag.FlagSet)

	// Execute runs the command with the arguments left after flag parsing.
	// ctx is cancelled when the process is interrupted.
	Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

// BaseCommand holds the strings a command reports about itself.
// Commands embed it and supply Execute.
type BaseCommand struct {
	name        string
	description string
	usage       string
}

// NewBaseCommand returns a BaseCommand reporting the given strings.
func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{
		name:        name,
		description: description,
		usage:       usage,
	}
}

// Name implements Command.
func (c *BaseCommand) Name() string {
	return c.name
}

// Description implements Command.
func (c *BaseCommand) Description() string {
	return c.description
}

// Usage implements Command.
func (c *BaseCommand) Usage() string {
	return c.usage
}

// SetupFlags registers no flags.
func (c *BaseCommand) SetupFlags(fs *flag.FlagSet) {}

// noArgs rejects positional arguments.
func noArgs(args []string, stderr io.Writer) error {
	if len(args) > 0 {
		return usageErrorf(stderr, "unexpected arguments: %v", args)
	}
	return nil
}
