package creature

import (
	"log/slog"

	bt "github.com/joeycumines/go-behaviortree"
	htnbt "github.com/joeycumines/go-htn/internal/bt"
	"github.com/joeycumines/go-htn/internal/htn"
)

// Simulation couples a World with the agent living in it.
type Simulation struct {
	World *World
	Agent *htnbt.Agent
}

// NewSimulation builds a seeded world and a creature agent. opts configure
// the agent's Planner.
func NewSimulation(seed int64, logger *slog.Logger, opts ...htn.Option) (*Simulation, error) {
	w := NewWorld(seed, logger)
	b, err := NewBehaviour(w)
	if err != nil {
		return nil, err
	}
	return &Simulation{World: w, Agent: htnbt.NewAgent(b, opts...)}, nil
}

// Node returns a node that advances the world, senses into the agent, then
// ticks the agent.
func (s *Simulation) Node() bt.Node {
	return bt.New(func(children []bt.Node) (bt.Status, error) {
		s.World.Advance()
		s.World.Sense(s.Agent.Sensors)
		return children[0].Tick()
	}, s.Agent.Node())
}
