package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
)

// ErrUsage marks errors caused by invalid command-line usage.
var ErrUsage = errors.New("usage error")

// usageErrorf prints the message to stderr and returns it wrapped with
// ErrUsage.
func usageErrorf(stderr io.Writer, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(stderr, msg)
	return fmt.Errorf("%w: %s", ErrUsage, msg)
}

// Registry manages the collection of available commands.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command, replacing any command with the same name.
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Get returns a command by name.
func (r *Registry) Get(name string) (Command, error) {
	if cmd, exists := r.commands[name]; exists {
		return cmd, nil
	}
	return nil, fmt.Errorf("command not found: %s", name)
}

// List returns the registered command names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the command named by args[0] with the remaining arguments.
// No arguments, "-h" and "--help" run the help command.
func (r *Registry) Dispatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		help, err := r.Get("help")
		if err != nil {
			return err
		}
		return help.Execute(ctx, nil, stdout, stderr)
	}

	cmd, err := r.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		_, _ = fmt.Fprintln(stderr, "Use 'htn help' to see available commands.")
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: htn %s\n", cmd.Usage())
		_, _ = fmt.Fprintf(stderr, "\n%s\n\n", cmd.Description())
		_, _ = fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	return cmd.Execute(ctx, fs.Args(), stdout, stderr)
}
