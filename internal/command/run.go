package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	htnbt "github.com/joeycumines/go-htn/internal/bt"
	"github.com/joeycumines/go-htn/internal/config"
	"github.com/joeycumines/go-htn/internal/htn"
	"github.com/joeycumines/go-htn/internal/logging"
	"github.com/joeycumines/go-htn/internal/telemetry"
)

// RunCommand runs a behaviour in its simulated world.
type RunCommand struct {
	*BaseCommand
	config *config.Config

	behaviour string
	ticks     int
	interval  time.Duration
	seed      int64
	history   int
	telemetry bool
	agent     string
	logLevel  string
	logFormat string
}

// NewRunCommand creates a new run command. cfg supplies the flag defaults.
func NewRunCommand(cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Run a behaviour in its simulated world",
			"run [options]",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the run command.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.behaviour, "behaviour", c.config.Run.Behaviour, "Behaviour to run (see 'htn list')")
	fs.IntVar(&c.ticks, "ticks", c.config.Run.Ticks, "Number of ticks to run, 0 runs until interrupted")
	fs.DurationVar(&c.interval, "interval", c.config.Run.Interval.Duration, "Time between ticks")
	fs.Int64Var(&c.seed, "seed", c.config.Run.Seed, "World random seed")
	fs.IntVar(&c.history, "history", 0, "Print the last N log entries after the run")
	fs.BoolVar(&c.telemetry, "telemetry", c.config.Telemetry.Enabled, "Record planner metrics and print their totals")
	fs.StringVar(&c.agent, "agent", c.config.Telemetry.Agent, "Agent name attached to telemetry")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error (default from config)")
	fs.StringVar(&c.logFormat, "log-format", "", "Log format written to stderr: text or json (default from config)")
}

// Execute runs the simulation until the tick limit or until ctx is done.
func (c *RunCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := noArgs(args, stderr); err != nil {
		return err
	}
	if c.ticks < 0 {
		return usageErrorf(stderr, "--ticks must not be negative")
	}
	if c.interval <= 0 {
		return usageErrorf(stderr, "--interval must be positive")
	}

	s, err := lookupScenario(c.behaviour)
	if err != nil {
		return err
	}

	logOpts, err := resolveLogOptions(c.logLevel, c.logFormat, 0, c.config)
	if err != nil {
		return err
	}
	logger, err := logging.New(stderr, logOpts)
	if err != nil {
		return err
	}

	plannerOpts := []htn.Option{htn.WithLogger(logger.With("behaviour", c.behaviour))}
	var collector *telemetry.Collector
	if c.telemetry {
		collector = telemetry.Install()
		defer func() { _ = collector.Shutdown(context.Background()) }()
		plannerOpts = append(plannerOpts, htn.WithHooks(telemetry.PlannerHooks(ctx, c.agent)))
	}

	sim, err := s.build(c.seed, logger.Logger, plannerOpts...)
	if err != nil {
		return err
	}

	logger.Info("run started", "behaviour", c.behaviour, "ticks", c.ticks, "interval", c.interval, "seed", c.seed)
	err = htnbt.Run(ctx, c.interval, sim.Node(), htnbt.WithMaxTicks(c.ticks))
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run %s: %w", c.behaviour, err)
	}
	logger.Info("run finished", "ticks", sim.Agent.Ticks())

	stats := sim.World.Stats()
	w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "behaviour\t%s\n", c.behaviour)
	_, _ = fmt.Fprintf(w, "ticks\t%d\n", stats.Ticks)
	_, _ = fmt.Fprintf(w, "enemies spawned\t%d\n", stats.Spawned)
	_, _ = fmt.Fprintf(w, "enemies killed\t%d\n", stats.Kills)
	_, _ = fmt.Fprintf(w, "destinations chosen\t%d\n", stats.Destinations)
	_, _ = fmt.Fprintf(w, "destinations reached\t%d\n", stats.Arrivals)
	_ = w.Flush()

	if collector != nil {
		totals, err := collector.Totals(context.Background())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Telemetry:")
		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range telemetry.Names(totals) {
			_, _ = fmt.Fprintf(w, "  %s\t%d\n", name, totals[name])
		}
		_ = w.Flush()
	}

	if c.history > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Recent log entries:")
		for _, e := range logger.Recent(c.history) {
			_, _ = fmt.Fprintf(stdout, "  %s\n", e)
		}
	}

	return nil
}
