package command

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/joeycumines/go-htn/internal/config"
	"gopkg.in/yaml.v3"
)

// PrintCommand prints the task tree of a behaviour.
type PrintCommand struct {
	*BaseCommand
	config *config.Config
	format string
}

// NewPrintCommand creates a new print command. cfg supplies the default
// behaviour.
func NewPrintCommand(cfg *config.Config) *PrintCommand {
	return &PrintCommand{
		BaseCommand: NewBaseCommand(
			"print",
			"Print the task tree of a behaviour",
			"print [options] [behaviour]",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the print command.
func (c *PrintCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", "text", "Output format: text, yaml or json")
}

// Execute prints the behaviour named by args[0], or the configured one.
func (c *PrintCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 1 {
		return usageErrorf(stderr, "unexpected arguments: %v", args[1:])
	}
	name := c.config.Run.Behaviour
	if len(args) == 1 {
		name = args[0]
	}
	s, err := lookupScenario(name)
	if err != nil {
		return err
	}
	sim, err := s.build(c.config.Run.Seed, slog.New(slog.DiscardHandler))
	if err != nil {
		return err
	}
	b := sim.Agent.Behaviour

	switch c.format {
	case "text", "":
		return b.Print(stdout)
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(b.Describe()); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(b.Describe())
	default:
		return usageErrorf(stderr, "invalid format: %s", c.format)
	}
}

// ListCommand lists the available behaviours.
type ListCommand struct {
	*BaseCommand
}

// NewListCommand creates a new list command.
func NewListCommand() *ListCommand {
	return &ListCommand{
		BaseCommand: NewBaseCommand(
			"list",
			"List the available behaviours",
			"list",
		),
	}
}

// Execute lists the behaviours.
func (c *ListCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if err := noArgs(args, stderr); err != nil {
		return err
	}
	for _, name := range scenarioNames() {
		_, _ = fmt.Fprintf(stdout, "%s\t%s\n", name, scenarios[name].description)
	}
	return nil
}
