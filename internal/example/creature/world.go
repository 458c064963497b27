// Package creature is a small demo: a creature that fights enemies when it
// sees one and otherwise rests, then wanders to random destinations. World is
// the simulated host; it senses into the agent and backs the operators.
package creature

import (
	"log/slog"
	"math/rand/v2"

	"github.com/joeycumines/go-htn/internal/bt"
	"github.com/joeycumines/go-htn/internal/htn"
)

// Fact keys written by the world and read by the behaviour.
const (
	FactEnemy         = "enemy"
	FactRested        = "rested"
	FactDestination   = "destination"
	FactFightsPlanned = "fights_planned"
)

const (
	// Size is the width and height of the square grid.
	Size = 16
	// RestTicks is how long the creature idles before it wants to wander.
	RestTicks = 4
	// EnemyHealth is the number of hits an enemy takes.
	EnemyHealth = 3
)

// Point is a grid position.
type Point struct {
	X, Y int32
}

// Enemy is an enemy currently on the grid.
type Enemy struct {
	ID     htn.Entity
	Pos    Point
	Health int32
}

// Stats summarizes a simulation.
type Stats struct {
	Ticks        int
	Spawned      int
	Kills        int
	Destinations int
	Arrivals     int
}

// World is the simulated environment. It is not safe for concurrent use; a
// Simulation drives it from the ticking goroutine only.
type World struct {
	rng         *rand.Rand
	logger      *slog.Logger
	pos         Point
	destination *Point
	enemy       *Enemy
	nextID      htn.Entity
	nextSpawn   int
	idle        int
	stats       Stats
}

// NewWorld returns a world seeded with seed. logger may be nil.
func NewWorld(seed int64, logger *slog.Logger) *World {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &World{
		rng:    rand.New(rand.NewPCG(uint64(seed), 0x68746e)),
		logger: logger,
		pos:    Point{Size / 2, Size / 2},
		nextID: 1,
	}
	w.nextSpawn = w.spawnDelay()
	return w
}

// Position returns the creature's position.
func (w *World) Position() Point { return w.pos }

// Enemy returns the current enemy, or nil.
func (w *World) Enemy() *Enemy { return w.enemy }

// Destination returns the wander destination, if any.
func (w *World) Destination() (Point, bool) {
	if w.destination == nil {
		return Point{}, false
	}
	return *w.destination, true
}

// Stats returns the counters so far.
func (w *World) Stats() Stats { return w.stats }

// Spawn places an enemy at p, replacing any current one.
func (w *World) Spawn(p Point) *Enemy {
	w.enemy = &Enemy{ID: w.nextID, Pos: p, Health: EnemyHealth}
	w.nextID++
	w.stats.Spawned++
	w.logger.Info("enemy spawned", "enemy", uint64(w.enemy.ID), "x", p.X, "y", p.Y)
	return w.enemy
}

// Advance moves simulated time forward one tick, spawning an enemy when one
// is due.
func (w *World) Advance() {
	w.stats.Ticks++
	if w.enemy == nil && w.stats.Ticks >= w.nextSpawn {
		w.Spawn(w.randomPoint())
		w.nextSpawn = w.stats.Ticks + w.spawnDelay()
	}
}

// Sense reports what the creature perceives. Unchanged readings do not
// dirty the agent's Context.
func (w *World) Sense(s *bt.Sensors) {
	if w.enemy != nil {
		s.Set(FactEnemy, htn.EntityValue(w.enemy.ID))
	} else {
		s.Delete(FactEnemy)
	}
	s.Set(FactRested, htn.BoolValue(w.idle > RestTicks))
}

// MoveToEnemy steps toward the enemy and succeeds once adjacent.
func (w *World) MoveToEnemy(*htn.Context) htn.TaskStatus {
	if w.enemy == nil {
		return htn.Failure
	}
	if distance(w.pos, w.enemy.Pos) <= 1 {
		return htn.Success
	}
	w.pos = step(w.pos, w.enemy.Pos)
	if distance(w.pos, w.enemy.Pos) <= 1 {
		return htn.Success
	}
	return htn.Continue
}

// Attack hits the adjacent enemy once per tick and succeeds when it dies.
func (w *World) Attack(*htn.Context) htn.TaskStatus {
	if w.enemy == nil || distance(w.pos, w.enemy.Pos) > 1 {
		return htn.Failure
	}
	w.enemy.Health--
	if w.enemy.Health > 0 {
		return htn.Continue
	}
	w.logger.Info("enemy killed", "enemy", uint64(w.enemy.ID))
	w.enemy = nil
	w.stats.Kills++
	return htn.Success
}

// chooseDestination picks a random destination to wander to.
func (w *World) chooseDestination() {
	p := w.randomPoint()
	w.destination = &p
	w.stats.Destinations++
	w.logger.Debug("destination chosen", "x", p.X, "y", p.Y)
}

// MoveRandomly walks to the chosen destination. On arrival the destination
// is forgotten and the creature starts resting again.
func (w *World) MoveRandomly(ctx *htn.Context) htn.TaskStatus {
	if w.destination == nil {
		return htn.Failure
	}
	w.pos = step(w.pos, *w.destination)
	if w.pos != *w.destination {
		return htn.Continue
	}
	w.destination = nil
	w.idle = 0
	w.stats.Arrivals++
	ctx.Remove(FactDestination)
	w.logger.Debug("destination reached", "x", w.pos.X, "y", w.pos.Y)
	return htn.Success
}

// Rest idles for one tick.
func (w *World) Rest(*htn.Context) htn.TaskStatus {
	w.idle++
	return htn.Success
}

func (w *World) randomPoint() Point {
	return Point{w.rng.Int32N(Size), w.rng.Int32N(Size)}
}

func (w *World) spawnDelay() int {
	return 12 + w.rng.IntN(12)
}

func distance(a, b Point) int32 {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// step moves one cell toward to, along x first.
func step(from, to Point) Point {
	switch {
	case from.X < to.X:
		from.X++
	case from.X > to.X:
		from.X--
	case from.Y < to.Y:
		from.Y++
	case from.Y > to.Y:
		from.Y--
	}
	return from
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
