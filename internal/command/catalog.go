package command

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/joeycumines/go-htn/internal/example/creature"
	"github.com/joeycumines/go-htn/internal/htn"
)

// scenario builds a runnable simulation for one named behaviour.
type scenario struct {
	description string
	build       func(seed int64, logger *slog.Logger, opts ...htn.Option) (*creature.Simulation, error)
}

var scenarios = map[string]scenario{
	"creature": {
		description: "a creature that fights nearby enemies, wanders when rested and idles otherwise",
		build:       creature.NewSimulation,
	},
}

func lookupScenario(name string) (scenario, error) {
	s, ok := scenarios[name]
	if !ok {
		return scenario{}, fmt.Errorf("unknown behaviour %q (available: %v)", name, scenarioNames())
	}
	return s, nil
}

func scenarioNames() []string {
	return slices.Sorted(maps.Keys(scenarios))
}
