package condition

import (
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/go-htn/internal/htn"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// Action is a plain go-pabt action: condition groups, effects and the node
// carrying out the work.
type Action struct {
	conditions []pabtpkg.IConditions
	effects    pabtpkg.Effects
	node       bt.Node
}

var _ pabtpkg.IAction = (*Action)(nil)

// NewAction returns an action. Each condition group is a conjunction; the
// action may run when any group holds, or always if there are none.
func NewAction(conditions []pabtpkg.IConditions, effects pabtpkg.Effects, node bt.Node) *Action {
	return &Action{conditions: conditions, effects: effects, node: node}
}

// Conditions implements pabtpkg.IAction.
func (a *Action) Conditions() []pabtpkg.IConditions { return a.conditions }

// Effects implements pabtpkg.IAction.
func (a *Action) Effects() pabtpkg.Effects { return a.effects }

// Node implements pabtpkg.IAction.
func (a *Action) Node() bt.Node { return a.node }

// FromAction returns a subtree adding a Primitive named name that plans and
// runs a: its condition groups become one planning condition, its effects
// become planning effects in order, and its node becomes the Operator. When
// the node succeeds the effects are applied to the live Context too, so they
// hold even if planning rolled them back (a later Pause, say).
func FromAction(name string, a pabtpkg.IAction) (htn.Subtree, error) {
	if a == nil {
		return nil, fmt.Errorf("condition: action %q: nil action", name)
	}
	node := a.Node()
	if node == nil {
		return nil, fmt.Errorf("condition: action %q: nil node", name)
	}
	groups := make([]htn.Condition, 0, len(a.Conditions()))
	for i, group := range a.Conditions() {
		c, err := AllFromPABT(group)
		if err != nil {
			return nil, fmt.Errorf("condition: action %q: group %d: %w", name, i, err)
		}
		groups = append(groups, c)
	}
	effects := make([]namedEffect, 0, len(a.Effects()))
	for _, e := range a.Effects() {
		adapted, err := EffectFromPABT(e)
		if err != nil {
			return nil, fmt.Errorf("condition: action %q: %w", name, err)
		}
		key, _ := KeyString(e.Key())
		effects = append(effects, namedEffect{name: fmt.Sprintf("%s = %v", key, e.Value()), effect: adapted})
	}

	return htn.SubtreeFunc(func(b *htn.Builder) {
		b.Primitive(name)
		if len(groups) > 0 {
			b.Condition("Preconditions of "+name, anyOf(groups))
		}
		for _, e := range effects {
			b.Effect(e.name, e.effect)
		}
		b.Do(name, actionOperator(node, effects)).End()
	}), nil
}

// NodeOperator ticks node once per update. bt.Running maps to Continue,
// bt.Success to Success, and bt.Failure or an error to Failure.
func NodeOperator(node bt.Node) htn.OperatorFunc {
	return func(*htn.Context) htn.TaskStatus {
		status, err := node.Tick()
		if err != nil {
			return htn.Failure
		}
		switch status {
		case bt.Running:
			return htn.Continue
		case bt.Success:
			return htn.Success
		default:
			return htn.Failure
		}
	}
}

func actionOperator(node bt.Node, effects []namedEffect) htn.OperatorFunc {
	tick := NodeOperator(node)
	return func(ctx *htn.Context) htn.TaskStatus {
		status := tick(ctx)
		if status == htn.Success {
			for _, e := range effects {
				e.effect.Apply(ctx)
			}
		}
		return status
	}
}

type namedEffect struct {
	name   string
	effect htn.Effect
}

func anyOf(groups []htn.Condition) htn.ConditionFunc {
	return func(ctx *htn.Context) bool {
		for _, c := range groups {
			if c.IsValid(ctx) {
				return true
			}
		}
		return false
	}
}
