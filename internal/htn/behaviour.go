package htn

import (
	"fmt"
	"io"
	"strings"
)

// Behaviour is the immutable task arena for one agent archetype. The root is
// always index 0.
type Behaviour struct {
	name  string
	tasks []*Task
}

// NewBehaviour takes ownership of tasks, assigning each its position as arena
// index, and validates the links between them. Children that have no parent
// recorded are adopted by the task listing them.
func NewBehaviour(name string, tasks []*Task) (*Behaviour, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("behaviour %q: %w", name, ErrEmptyBehaviour)
	}
	for i, task := range tasks {
		if task == nil {
			return nil, fmt.Errorf("behaviour %q: task %d is nil: %w", name, i, ErrInvalidArena)
		}
		task.index = i
	}
	root := tasks[0]
	if root.parent != NoParent {
		return nil, fmt.Errorf("behaviour %q: root %q has a parent: %w", name, root.name, ErrInvalidArena)
	}
	if root.typ == Pause {
		return nil, fmt.Errorf("behaviour %q: root cannot be a pause: %w", name, ErrInvalidArena)
	}
	for i, task := range tasks {
		for _, child := range task.children {
			if child <= 0 || child >= len(tasks) || child == i {
				return nil, fmt.Errorf("behaviour %q: task %q has invalid child %d: %w", name, task.name, child, ErrInvalidArena)
			}
			c := tasks[child]
			switch c.parent {
			case NoParent:
				c.parent = i
			case i:
			default:
				return nil, fmt.Errorf("behaviour %q: task %q claimed by %d and %d: %w", name, c.name, c.parent, i, ErrInvalidArena)
			}
		}
	}
	reached := make([]bool, len(tasks))
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached[i] = true
		stack = append(stack, tasks[i].children...)
	}
	for i, ok := range reached {
		if !ok {
			return nil, fmt.Errorf("behaviour %q: task %d %q is unreachable from the root: %w", name, i, tasks[i].name, ErrInvalidArena)
		}
	}
	return &Behaviour{name: name, tasks: tasks}, nil
}

func (b *Behaviour) Name() string { return b.name }

// Len returns the number of tasks in the arena.
func (b *Behaviour) Len() int { return len(b.tasks) }

// Task returns the task at index. Panics if index is out of range.
func (b *Behaviour) Task(index int) *Task {
	if index < 0 || index >= len(b.tasks) {
		panic(fmt.Sprintf("htn: behaviour %q: task index %d out of range [0,%d)", b.name, index, len(b.tasks)))
	}
	return b.tasks[index]
}

// FindPlan decomposes the behaviour against ctx. A paused Context whose
// previous plan has run to completion resumes the queued partial
// decompositions; anything else replans from the root.
func (b *Behaviour) FindPlan(ctx *Context) (Plan, DecompositionStatus) {
	ctx.state = Planning
	var (
		plan   Plan
		status DecompositionStatus
	)
	if ctx.paused && len(ctx.lastRecord) == 0 {
		plan, status = b.resumePartial(ctx)
	} else {
		plan, status = b.fullReplan(ctx)
	}
	ctx.state = Executing
	return plan, status
}

func (b *Behaviour) resumePartial(ctx *Context) (Plan, DecompositionStatus) {
	ctx.paused = false
	pending := ctx.partialQueue
	ctx.partialQueue = nil

	var plan Plan
	status := Rejected
	decomposed := false
	for len(pending) > 0 && !ctx.paused {
		entry := pending[0]
		pending = pending[1:]
		if entry.Next >= len(b.Task(entry.Task).children) {
			continue
		}
		if !decomposed {
			plan, status = b.decompose(ctx, entry.Task, entry.Next, plan)
			decomposed = true
			continue
		}
		var scratch Plan
		scratch, status = b.decompose(ctx, entry.Task, entry.Next, nil)
		if status == Succeeded || status == Partial {
			plan = append(plan, scratch...)
		}
	}
	// segments queued by a fresh pause run before the undrained ones
	ctx.partialQueue = append(ctx.partialQueue, pending...)

	switch status {
	case Rejected:
		// nothing left to resume
		ctx.paused = false
		ctx.partialQueue = nil
		ctx.record = nil
		return b.decompose(ctx, 0, 0, plan)
	case Failed:
		// the continuation no longer holds; the Planner reports Failure and
		// replans from the root on its next tick
		ctx.paused = false
		ctx.partialQueue = nil
		return nil, Failed
	}
	return plan, status
}

func (b *Behaviour) fullReplan(ctx *Context) (Plan, DecompositionStatus) {
	wasPaused := ctx.paused
	var saved []PartialEntry
	if wasPaused {
		ctx.paused = false
		saved = ctx.partialQueue
		ctx.partialQueue = nil
	}
	ctx.record = nil
	plan, status := b.decompose(ctx, 0, 0, nil)
	if wasPaused && (status == Rejected || status == Failed) {
		ctx.paused = true
		ctx.partialQueue = saved
	}
	return plan, status
}

// TaskDescription is a serializable view of one task and its subtree.
type TaskDescription struct {
	Name           string            `json:"name" yaml:"name"`
	Type           string            `json:"type" yaml:"type"`
	Index          int               `json:"index" yaml:"index"`
	Conditions     []string          `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	ExecConditions []string          `json:"execConditions,omitempty" yaml:"exec-conditions,omitempty"`
	Effects        []string          `json:"effects,omitempty" yaml:"effects,omitempty"`
	Operator       string            `json:"operator,omitempty" yaml:"operator,omitempty"`
	Children       []TaskDescription `json:"children,omitempty" yaml:"children,omitempty"`
}

// Describe returns the tree rooted at index 0.
func (b *Behaviour) Describe() TaskDescription {
	return b.describe(0)
}

func (b *Behaviour) describe(index int) TaskDescription {
	t := b.tasks[index]
	d := TaskDescription{
		Name:           t.name,
		Type:           t.typ.String(),
		Index:          t.index,
		Conditions:     names(t.conditions),
		ExecConditions: names(t.execConditions),
		Effects:        names(t.effects),
	}
	if t.operator != nil {
		d.Operator = t.operator.name
	}
	for _, child := range t.children {
		d.Children = append(d.Children, b.describe(child))
	}
	return d
}

// Print writes the tree to w, one task per line, indented two spaces per
// level.
func (b *Behaviour) Print(w io.Writer) error {
	var sb strings.Builder
	b.print(&sb, 0, 0)
	_, err := io.WriteString(w, sb.String())
	return err
}

func (b *Behaviour) print(sb *strings.Builder, index, depth int) {
	t := b.tasks[index]
	sb.WriteString(strings.Repeat("  ", depth))
	name := t.name
	if name == "" {
		name = "<" + t.typ.String() + ">"
	}
	sb.WriteString(name)
	if t.typ != Pause && t.name != "" {
		sb.WriteString(" (" + t.typ.String() + ")")
	}
	sb.WriteByte('\n')
	for _, child := range t.children {
		b.print(sb, child, depth+1)
	}
}
