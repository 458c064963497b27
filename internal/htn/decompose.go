package htn

// Plan is an ordered queue of Primitive task indices.
type Plan []int

// decompose appends the decomposition of the task at index to plan, starting
// at child offset from for compounds. Every exit path leaves the transaction
// depth as it found it.
func (b *Behaviour) decompose(ctx *Context, index, from int, plan Plan) (Plan, DecompositionStatus) {
	task := b.tasks[index]
	switch task.typ {
	case Sequence:
		return b.decomposeSequence(ctx, task, from, plan)
	case Selector:
		return b.decomposeSelector(ctx, task, from, plan)
	case Primitive:
		return decomposePrimitive(ctx, task, plan)
	case Pause:
		return b.decomposePause(ctx, task, plan)
	default:
		return plan, Rejected
	}
}

// decomposeSequence decomposes the children in order inside a transaction.
// Anything but Succeeded from a child rolls the transaction back, so a failed
// attempt leaves no trace in the Context. Partial carries the prefix decomposed
// so far upward and queues this sequence's continuation.
func (b *Behaviour) decomposeSequence(ctx *Context, task *Task, from int, plan Plan) (Plan, DecompositionStatus) {
	mark := len(ctx.record)
	ctx.BeginTransaction()
	var local Plan
	for i := from; i < len(task.children); i++ {
		if !task.IsValid(ctx) {
			ctx.RollbackTransaction()
			ctx.record = ctx.record[:mark]
			return plan, Failed
		}
		child := b.tasks[task.children[i]]
		var status DecompositionStatus
		local, status = b.decompose(ctx, child.index, 0, local)
		switch status {
		case Succeeded:
		case Partial:
			// a Pause child queues this sequence itself
			if child.typ != Pause && i+1 < len(task.children) {
				ctx.pushPartial(task.index, i+1)
			}
			ctx.RollbackTransaction()
			return append(plan, local...), Partial
		default:
			ctx.RollbackTransaction()
			ctx.record = ctx.record[:mark]
			return plan, status
		}
	}
	if len(local) == 0 {
		ctx.RollbackTransaction()
		ctx.record = ctx.record[:mark]
		return plan, Failed
	}
	ctx.CommitTransaction()
	return append(plan, local...), Succeeded
}

// decomposeSelector takes the first child that does not fail. Child order is
// priority order.
func (b *Behaviour) decomposeSelector(ctx *Context, task *Task, from int, plan Plan) (Plan, DecompositionStatus) {
	for i := from; i < len(task.children); i++ {
		if !task.IsValid(ctx) {
			return plan, Failed
		}
		sub, status := b.decompose(ctx, task.children[i], 0, nil)
		if status != Failed {
			return append(plan, sub...), status
		}
	}
	return plan, Failed
}

func decomposePrimitive(ctx *Context, task *Task, plan Plan) (Plan, DecompositionStatus) {
	if !task.IsValid(ctx) {
		return plan, Failed
	}
	task.ApplyEffects(ctx)
	ctx.addToRecord(task.index)
	return append(plan, task.index), Succeeded
}

// decomposePause marks the Context paused and queues the enclosing sequence
// at the sibling after the pause. Under a Selector nothing is queued: the
// pause was the chosen alternative, and any enclosing sequence queues its own
// continuation.
func (b *Behaviour) decomposePause(ctx *Context, task *Task, plan Plan) (Plan, DecompositionStatus) {
	ctx.paused = true
	if task.parent == NoParent {
		return plan, Partial
	}
	parent := b.tasks[task.parent]
	if parent.typ != Sequence {
		return plan, Partial
	}
	for i, child := range parent.children {
		if child == task.index && i+1 < len(parent.children) {
			ctx.pushPartial(parent.index, i+1)
			break
		}
	}
	return plan, Partial
}
