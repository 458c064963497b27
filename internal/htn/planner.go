package htn

import (
	"log/slog"
	"slices"
)

// Planner is the per-agent execution cursor: the pending Plan, the running
// task and the last status its Operator reported.
//
// The zero value is ready to use and logs nowhere.
type Planner struct {
	plan       Plan
	current    *Task
	lastStatus TaskStatus
	logger     *slog.Logger
	hooks      Hooks
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger used for planner diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// WithHooks adds observers. Repeated use merges them in order.
func WithHooks(h Hooks) Option {
	return func(p *Planner) { p.hooks = MergeHooks(p.hooks, h) }
}

// NewPlanner returns a Planner with opts applied.
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan returns a copy of the pending plan, not including the current task.
func (p *Planner) Plan() Plan { return slices.Clone(p.plan) }

// CurrentTask returns the running task, or nil.
func (p *Planner) CurrentTask() *Task { return p.current }

// LastStatus returns the status of the most recent operator update, or
// Failure after an abort or an unplannable tick. Reporting Failure for aborts
// that never reach an operator (a broken condition or exec condition, or a
// primitive without one) is an extension over plain operator status.
func (p *Planner) LastStatus() TaskStatus { return p.lastStatus }

// Reset discards the plan and the running task without stopping it, and
// clears the Context's partial state.
func (p *Planner) Reset(ctx *Context) {
	p.clearAll(ctx)
}

// Tick advances the agent by one host update: it replans if there is nothing
// to run or the Context is dirty, takes the next task off the plan if none is
// running, and updates the running Primitive's Operator.
func (p *Planner) Tick(b *Behaviour, ctx *Context) {
	var (
		status    DecompositionStatus
		replanned bool
		replacing bool
	)
	if (len(p.plan) == 0 && p.current == nil) || ctx.dirty {
		replacing = len(p.plan) > 0
		status = p.findPlan(b, ctx)
		replanned = true
	}

	if len(p.plan) > 0 && p.current == nil {
		p.nextTask(b, ctx)
	}

	if p.current != nil && p.current.typ == Primitive {
		p.runTask(ctx, p.current)
	}

	if replanned && !replacing && len(p.plan) == 0 && p.current == nil &&
		(status == Failed || status == Rejected) {
		p.lastStatus = Failure
	}
}

func (p *Planner) findPlan(b *Behaviour, ctx *Context) DecompositionStatus {
	dirty := ctx.dirty
	ctx.dirty = false

	var (
		restore    bool
		savedQueue []PartialEntry
		savedLast  []int
	)
	if dirty && ctx.paused {
		restore = true
		savedQueue = ctx.partialQueue
		savedLast = ctx.lastRecord
		ctx.paused = false
		ctx.partialQueue = nil
		ctx.DumpIntoLastRecord()
	}

	plan, status := b.FindPlan(ctx)
	switch status {
	case Succeeded, Partial:
		if len(p.plan) > 0 {
			if p.hooks.OnReplacePlan != nil {
				p.hooks.OnReplacePlan(p.Plan(), p.current, slices.Clone(plan))
			}
		} else if p.hooks.OnNewPlan != nil {
			p.hooks.OnNewPlan(slices.Clone(plan))
		}
		p.plan = plan
		if p.current != nil {
			if p.current.typ == Primitive {
				p.current.Stop(ctx)
				if p.hooks.OnStopCurrentTask != nil {
					p.hooks.OnStopCurrentTask(p.current)
				}
			}
			p.current = nil
		}
		ctx.DumpIntoLastRecord()
	default:
		if restore {
			// the running partial plan is still viable
			ctx.paused = true
			ctx.partialQueue = savedQueue
			ctx.DumpIntoRecord()
			ctx.lastRecord = savedLast
		}
	}

	p.log().Debug("planned",
		slog.String("agent", ctx.ID()),
		slog.String("behaviour", b.name),
		slog.String("status", status.String()),
		slog.Int("plan", len(plan)),
		slog.Bool("dirty", dirty),
		slog.Bool("paused", ctx.paused),
	)
	return status
}

func (p *Planner) nextTask(b *Behaviour, ctx *Context) {
	task := b.Task(p.plan[0])
	p.plan = p.plan[1:]
	p.current = task
	if p.hooks.OnNewTask != nil {
		p.hooks.OnNewTask(task)
	}
	p.log().Debug("new task", slog.String("agent", ctx.ID()), slog.String("task", task.name))

	if name, failed := task.failingCondition(ctx); failed {
		if p.hooks.OnNewTaskConditionFailed != nil {
			p.hooks.OnNewTaskConditionFailed(task, name)
		}
		p.abort(ctx, "condition "+name+" of "+task.name+" no longer holds")
	}
}

func (p *Planner) runTask(ctx *Context, task *Task) {
	if !task.HasOperator() {
		p.log().Warn("primitive task has no operator",
			slog.String("agent", ctx.ID()),
			slog.String("task", task.name),
		)
		p.current = nil
		p.lastStatus = Failure
		return
	}

	if name, failed := task.failingExecCondition(ctx); failed {
		if p.hooks.OnCurrentTaskExecutingConditionFailed != nil {
			p.hooks.OnCurrentTaskExecutingConditionFailed(task, name)
		}
		p.abort(ctx, "execution condition "+name+" of "+task.name+" failed")
		return
	}

	p.lastStatus = task.Update(ctx)
	p.log().Debug("task updated",
		slog.String("agent", ctx.ID()),
		slog.String("task", task.name),
		slog.String("status", p.lastStatus.String()),
	)
	switch p.lastStatus {
	case Success:
		if p.hooks.OnCurrentTaskCompletedSuccessfully != nil {
			p.hooks.OnCurrentTaskCompletedSuccessfully(task)
		}
		p.current = nil
		if len(p.plan) == 0 {
			ctx.lastRecord = nil
			ctx.dirty = false
		}
	case Failure:
		if p.hooks.OnCurrentTaskFailed != nil {
			p.hooks.OnCurrentTaskFailed(task)
		}
		p.abort(ctx, "task "+task.name+" failed")
	default:
		if p.hooks.OnCurrentTaskContinues != nil {
			p.hooks.OnCurrentTaskContinues(task)
		}
	}
}

func (p *Planner) abort(ctx *Context, reason string) {
	p.clearAll(ctx)
	p.lastStatus = Failure
	p.log().Info("plan aborted", slog.String("agent", ctx.ID()), slog.String("reason", reason))
	if p.hooks.OnAbort != nil {
		p.hooks.OnAbort(reason)
	}
}

func (p *Planner) clearAll(ctx *Context) {
	p.current = nil
	p.plan = nil
	ctx.lastRecord = nil
	ctx.paused = false
	ctx.partialQueue = nil
	ctx.dirty = false
}

func (p *Planner) log() *slog.Logger {
	if p.logger == nil {
		return discard
	}
	return p.logger
}

var discard = slog.New(slog.DiscardHandler)
