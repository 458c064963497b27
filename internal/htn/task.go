package htn

import (
	"fmt"
	"slices"
)

// TaskType distinguishes compound tasks from leaves.
type TaskType int

const (
	// Sequence decomposes every child in order, atomically.
	Sequence TaskType = iota
	// Selector decomposes the first child that does not fail.
	Selector
	// Primitive is an executable leaf.
	Primitive
	// Pause splits a decomposition into resumable segments.
	Pause
)

// String implements fmt.Stringer.
func (t TaskType) String() string {
	switch t {
	case Sequence:
		return "sequence"
	case Selector:
		return "selector"
	case Primitive:
		return "primitive"
	case Pause:
		return "pause"
	default:
		return "unknown"
	}
}

// IsCompound reports whether tasks of this type may have children.
func (t TaskType) IsCompound() bool { return t == Sequence || t == Selector }

// NoParent is returned by Task.Parent for the root.
const NoParent = -1

// Task is one node of a Behaviour's arena.
type Task struct {
	name           string
	index          int
	typ            TaskType
	parent         int
	children       []int
	conditions     []named[Condition]
	execConditions []named[Condition]
	effects        []named[Effect]
	operator       *named[Operator]
}

// NewTask returns a detached task. Its index is assigned when the arena is
// handed to NewBehaviour.
func NewTask(name string, typ TaskType) *Task {
	return &Task{name: name, typ: typ, parent: NoParent}
}

func (t *Task) Name() string { return t.name }

// Index returns the arena index.
func (t *Task) Index() int { return t.index }

func (t *Task) Type() TaskType { return t.typ }

// Parent returns the parent index, or NoParent.
func (t *Task) Parent() int { return t.parent }

// Children returns a copy of the child indices, in decomposition order.
func (t *Task) Children() []int { return slices.Clone(t.children) }

// HasOperator reports whether an Operator is attached.
func (t *Task) HasOperator() bool { return t.operator != nil }

// AddChild appends a child index. Panics on a Primitive or Pause.
func (t *Task) AddChild(index int) {
	if !t.typ.IsCompound() {
		panic(fmt.Sprintf("htn: cannot add child %d to %s task %q", index, t.typ, t.name))
	}
	t.children = append(t.children, index)
}

// SetParent records the parent index.
func (t *Task) SetParent(index int) { t.parent = index }

// AddOperator attaches the task's Operator, replacing any previous one.
// Panics unless the task is a Primitive.
func (t *Task) AddOperator(name string, op Operator) {
	if t.typ != Primitive {
		panic(fmt.Sprintf("htn: cannot add operator %q to %s task %q", name, t.typ, t.name))
	}
	t.operator = &named[Operator]{name: name, value: op}
}

// AddCondition appends a planning condition.
func (t *Task) AddCondition(name string, c Condition) {
	t.conditions = append(t.conditions, named[Condition]{name: name, value: c})
}

// AddExecCondition appends an execution condition, checked on every tick the
// task is running. Only meaningful on a Primitive.
func (t *Task) AddExecCondition(name string, c Condition) {
	t.execConditions = append(t.execConditions, named[Condition]{name: name, value: c})
}

// AddEffect appends a planning-time effect.
func (t *Task) AddEffect(name string, e Effect) {
	t.effects = append(t.effects, named[Effect]{name: name, value: e})
}

// IsValid reports whether every planning condition holds. A task without
// conditions is always valid.
func (t *Task) IsValid(ctx *Context) bool {
	_, ok := firstFailing(t.conditions, ctx)
	return ok
}

// IsExecutable reports whether every execution condition holds.
func (t *Task) IsExecutable(ctx *Context) bool {
	_, ok := firstFailing(t.execConditions, ctx)
	return ok
}

// ApplyEffects applies the effects in declared order.
func (t *Task) ApplyEffects(ctx *Context) {
	for _, e := range t.effects {
		e.value.Apply(ctx)
	}
}

// Update runs the Operator once. A task without an Operator reports Failure.
func (t *Task) Update(ctx *Context) TaskStatus {
	if t.operator == nil {
		return Failure
	}
	return t.operator.value.Update(ctx)
}

// Stop forwards to the Operator, if any.
func (t *Task) Stop(ctx *Context) {
	if t.operator != nil {
		t.operator.value.Stop(ctx)
	}
}

// failingCondition returns the name of the first planning condition that does
// not hold.
func (t *Task) failingCondition(ctx *Context) (string, bool) {
	name, ok := firstFailing(t.conditions, ctx)
	return name, !ok
}

func (t *Task) failingExecCondition(ctx *Context) (string, bool) {
	name, ok := firstFailing(t.execConditions, ctx)
	return name, !ok
}

func firstFailing(conditions []named[Condition], ctx *Context) (string, bool) {
	for _, c := range conditions {
		if !c.value.IsValid(ctx) {
			return c.name, false
		}
	}
	return "", true
}

func names[T any](items []named[T]) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.name
	}
	return out
}
