package htn

import "fmt"

// Builder assembles a Behaviour with a cursor over the task being declared.
// Sequence, Selector and Primitive open a task as a child of the cursor and
// move the cursor onto it; End moves it back to the parent. Pause adds a leaf
// without moving the cursor.
//
// The first misuse is recorded and every later call becomes a no-op; Build
// reports it.
type Builder struct {
	name    string
	tasks   []*Task
	current int
	stack   []int
	err     error
}

// Subtree is a reusable behaviour fragment, declared against the cursor of
// the Builder it is included into.
type Subtree interface {
	Build(b *Builder)
}

// SubtreeFunc adapts a plain function to Subtree.
type SubtreeFunc func(b *Builder)

// Build implements Subtree.
func (f SubtreeFunc) Build(b *Builder) { f(b) }

// NewBuilder returns an empty Builder for a behaviour called name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, current: NoParent}
}

func (b *Builder) Sequence(name string) *Builder { return b.open(name, Sequence) }

func (b *Builder) Selector(name string) *Builder { return b.open(name, Selector) }

func (b *Builder) Primitive(name string) *Builder { return b.open(name, Primitive) }

// Pause adds a pause under the current compound task.
func (b *Builder) Pause() *Builder {
	if b.err != nil {
		return b
	}
	if b.current == NoParent {
		return b.fail("pause", ErrNoCurrentTask)
	}
	if !b.tasks[b.current].typ.IsCompound() {
		return b.fail("pause", ErrChildOfPrimitive)
	}
	b.add("", Pause)
	return b
}

// Condition adds a planning condition to the current task.
func (b *Builder) Condition(name string, c Condition) *Builder {
	if t := b.target("condition " + name); t != nil {
		t.AddCondition(name, c)
	}
	return b
}

// ExecCondition adds an execution condition to the current task.
func (b *Builder) ExecCondition(name string, c Condition) *Builder {
	if t := b.target("exec condition " + name); t != nil {
		t.AddExecCondition(name, c)
	}
	return b
}

// Effect adds a planning-time effect to the current task.
func (b *Builder) Effect(name string, e Effect) *Builder {
	if t := b.target("effect " + name); t != nil {
		t.AddEffect(name, e)
	}
	return b
}

// Do attaches the Operator of the current Primitive.
func (b *Builder) Do(name string, op Operator) *Builder {
	t := b.target("operator " + name)
	if t == nil {
		return b
	}
	if t.typ != Primitive {
		return b.fail("operator "+name, ErrOperatorOnCompound)
	}
	t.AddOperator(name, op)
	return b
}

// End closes the current task.
func (b *Builder) End() *Builder {
	if b.err != nil {
		return b
	}
	if b.current == NoParent {
		return b.fail("end", ErrUnbalancedEnd)
	}
	if n := len(b.stack); n > 0 {
		b.current = b.stack[n-1]
		b.stack = b.stack[:n-1]
	} else {
		b.current = NoParent
	}
	return b
}

// Include declares s at the cursor.
func (b *Builder) Include(s Subtree) *Builder {
	if b.err == nil {
		s.Build(b)
	}
	return b
}

// Err returns the first recorded misuse.
func (b *Builder) Err() error { return b.err }

// Build validates the declared tasks and returns the Behaviour.
func (b *Builder) Build() (*Behaviour, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewBehaviour(b.name, b.tasks)
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Behaviour {
	behaviour, err := b.Build()
	if err != nil {
		panic(err)
	}
	return behaviour
}

func (b *Builder) open(name string, typ TaskType) *Builder {
	if b.err != nil {
		return b
	}
	if b.current != NoParent && !b.tasks[b.current].typ.IsCompound() {
		return b.fail(typ.String()+" "+name, ErrChildOfPrimitive)
	}
	index := b.add(name, typ)
	if b.current != NoParent {
		b.stack = append(b.stack, b.current)
	}
	b.current = index
	return b
}

func (b *Builder) add(name string, typ TaskType) int {
	index := len(b.tasks)
	task := NewTask(name, typ)
	task.index = index
	if b.current != NoParent {
		task.parent = b.current
		b.tasks[b.current].AddChild(index)
	}
	b.tasks = append(b.tasks, task)
	return index
}

func (b *Builder) target(what string) *Task {
	if b.err != nil {
		return nil
	}
	if b.current == NoParent {
		b.fail(what, ErrNoCurrentTask)
		return nil
	}
	return b.tasks[b.current]
}

func (b *Builder) fail(what string, err error) *Builder {
	b.err = fmt.Errorf("builder %q: %s: %w", b.name, what, err)
	return b
}
