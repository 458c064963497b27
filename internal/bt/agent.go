package bt

import (
	"errors"
	"fmt"
	"sync"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/go-htn/internal/htn"
)

// ErrNoBehaviour is returned when an Agent without a Behaviour is ticked.
var ErrNoBehaviour = errors.New("bt: agent has no behaviour")

// Agent is one planning agent: its Behaviour, Planner, Context and Sensors.
// Ticks are serialized; the Context and Planner must not be touched from
// outside while a tick may run.
type Agent struct {
	Behaviour *htn.Behaviour
	Planner   *htn.Planner
	Context   *htn.Context
	Sensors   *Sensors

	mu    sync.Mutex
	ticks int
}

// NewAgent returns an Agent with a fresh Context, Sensors and a Planner
// configured with opts.
func NewAgent(b *htn.Behaviour, opts ...htn.Option) *Agent {
	return &Agent{
		Behaviour: b,
		Planner:   htn.NewPlanner(opts...),
		Context:   htn.NewContext(),
		Sensors:   new(Sensors),
	}
}

// Node returns the agent as a go-behaviortree node. Each tick flushes the
// Sensors into the Context, then ticks the Planner once, mapping
// Continue to bt.Running, Success to bt.Success and Failure to bt.Failure.
func (a *Agent) Node() bt.Node {
	return bt.New(a.tick)
}

// Tick ticks the agent once, outside of any tree.
func (a *Agent) Tick() (bt.Status, error) {
	return a.tick(nil)
}

// Ticks returns the number of completed ticks.
func (a *Agent) Ticks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ticks
}

func (a *Agent) tick([]bt.Node) (bt.Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Behaviour == nil {
		return bt.Failure, ErrNoBehaviour
	}
	if a.Planner == nil {
		a.Planner = htn.NewPlanner()
	}
	if a.Context == nil {
		a.Context = htn.NewContext()
	}
	if a.Sensors != nil {
		a.Sensors.Flush(a.Context)
	}

	a.Planner.Tick(a.Behaviour, a.Context)
	a.ticks++
	return Status(a.Planner.LastStatus())
}

// Status maps an htn.TaskStatus to a go-behaviortree status.
func Status(s htn.TaskStatus) (bt.Status, error) {
	switch s {
	case htn.Continue:
		return bt.Running, nil
	case htn.Success:
		return bt.Success, nil
	case htn.Failure:
		return bt.Failure, nil
	default:
		return bt.Failure, fmt.Errorf("bt: unknown task status %d", s)
	}
}
