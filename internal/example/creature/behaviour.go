package creature

import (
	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/go-htn/internal/condition"
	"github.com/joeycumines/go-htn/internal/htn"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// Name is the name of the creature behaviour.
const Name = "CreatureBehaviour"

// MoveRandomly is a reusable subtree walking to the destination chosen
// earlier in the plan.
type MoveRandomly struct {
	World *World
}

// Build implements htn.Subtree.
func (m MoveRandomly) Build(b *htn.Builder) {
	b.Primitive("MoveRandomly").
		Condition("Has a destination", condition.Present(FactDestination)).
		ExecCondition("No enemy in sight", condition.Absent(FactEnemy)).
		Do("Walk to destination", htn.OperatorFunc(m.World.MoveRandomly)).
		End()
}

// ChooseDestination is the action picking where to wander. It needs a rested
// creature and makes the destination known.
func ChooseDestination(w *World) *condition.Action {
	return condition.NewAction(
		[]pabtpkg.IConditions{{condition.IsTrue(FactRested)}},
		pabtpkg.Effects{condition.Set(FactDestination, htn.LocationValue())},
		bt.New(func([]bt.Node) (bt.Status, error) {
			w.chooseDestination()
			return bt.Success, nil
		}),
	)
}

// NewBehaviour builds the creature behaviour with operators acting on w:
//
//	CreatureBehaviour (Selector)
//	  Fight (Sequence)        enemy in sight
//	    MoveToEnemy
//	    Attack
//	  Wander (Sequence)       rested
//	    ChooseDestination
//	    <pause>
//	    MoveRandomly
//	  Idle
func NewBehaviour(w *World) (*htn.Behaviour, error) {
	choose, err := condition.FromAction("ChooseDestination", ChooseDestination(w))
	if err != nil {
		return nil, err
	}
	return htn.NewBuilder(Name).
		Selector(Name).
		Sequence("Fight").
		Condition("Enemy in sight", condition.Present(FactEnemy)).
		Primitive("MoveToEnemy").
		ExecCondition("Enemy still in sight", condition.Present(FactEnemy)).
		Do("Step toward enemy", htn.OperatorFunc(w.MoveToEnemy)).
		End().
		Primitive("Attack").
		ExecCondition("Enemy still in sight", condition.Present(FactEnemy)).
		Effect("Count fight", condition.NewExprEffect(FactFightsPlanned, FactFightsPlanned+` == nil ? 1 : `+FactFightsPlanned+` + 1`)).
		Do("Hit enemy", htn.OperatorFunc(w.Attack)).
		End().
		End().
		Sequence("Wander").
		Condition("Rested", condition.NewExpr(FactRested+` == true`)).
		Include(choose).
		Pause().
		Include(MoveRandomly{World: w}).
		End().
		Primitive("Idle").
		Do("Rest", htn.OperatorFunc(w.Rest)).
		End().
		End().
		Build()
}
