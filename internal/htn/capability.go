package htn

// Condition is a predicate over the fact store.
type Condition interface {
	IsValid(ctx *Context) bool
}

// ConditionFunc adapts a plain function to Condition.
type ConditionFunc func(ctx *Context) bool

// IsValid implements Condition.
func (f ConditionFunc) IsValid(ctx *Context) bool { return f(ctx) }

// Effect mutates the fact store. Effects are applied at planning time, when a
// Primitive is committed into a Plan.
type Effect interface {
	Apply(ctx *Context)
}

// EffectFunc adapts a plain function to Effect.
type EffectFunc func(ctx *Context)

// Apply implements Effect.
func (f EffectFunc) Apply(ctx *Context) { f(ctx) }

// Operator is the action behind a Primitive. Update is called on every tick
// the Primitive is the Planner's current task; Stop is called when a new plan
// pre-empts it.
type Operator interface {
	Update(ctx *Context) TaskStatus
	Stop(ctx *Context)
}

// OperatorFunc adapts an update function to Operator. Stop is a no-op.
type OperatorFunc func(ctx *Context) TaskStatus

// Update implements Operator.
func (f OperatorFunc) Update(ctx *Context) TaskStatus { return f(ctx) }

// Stop implements Operator.
func (f OperatorFunc) Stop(*Context) {}

// StoppableOperator pairs an update function with a stop function.
type StoppableOperator struct {
	OnUpdate func(ctx *Context) TaskStatus
	OnStop   func(ctx *Context)
}

// Update implements Operator. A nil OnUpdate reports Failure.
func (o StoppableOperator) Update(ctx *Context) TaskStatus {
	if o.OnUpdate == nil {
		return Failure
	}
	return o.OnUpdate(ctx)
}

// Stop implements Operator.
func (o StoppableOperator) Stop(ctx *Context) {
	if o.OnStop != nil {
		o.OnStop(ctx)
	}
}

// TaskStatus is the outcome an Operator reports for one tick.
type TaskStatus int

const (
	// Failure is the zero value: a Planner that has never run anything
	// reports Failure.
	Failure TaskStatus = iota
	Success
	Continue
)

// String implements fmt.Stringer.
func (s TaskStatus) String() string {
	switch s {
	case Failure:
		return "failure"
	case Success:
		return "success"
	case Continue:
		return "continue"
	default:
		return "unknown"
	}
}

// DecompositionStatus is the outcome of decomposing a task.
type DecompositionStatus int

const (
	Rejected DecompositionStatus = iota
	Succeeded
	Partial
	Failed
)

// String implements fmt.Stringer.
func (s DecompositionStatus) String() string {
	switch s {
	case Rejected:
		return "rejected"
	case Succeeded:
		return "succeeded"
	case Partial:
		return "partial"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// named keeps the author-facing name of a capability alongside it, so hooks
// and logs can report which one fired.
type named[T any] struct {
	name  string
	value T
}
