package htn

// Hooks observes a Planner. Every field is optional.
type Hooks struct {
	// OnNewPlan fires when a plan is adopted while none was pending.
	OnNewPlan func(plan Plan)

	// OnReplacePlan fires when a plan is adopted over a pending one.
	OnReplacePlan func(old Plan, current *Task, plan Plan)

	// OnNewTask fires when a task is popped off the plan.
	OnNewTask func(task *Task)

	// OnNewTaskConditionFailed fires when a popped task's planning
	// condition no longer holds. The planner aborts afterwards.
	OnNewTaskConditionFailed func(task *Task, condition string)

	// OnStopCurrentTask fires when a new plan pre-empts a running Primitive.
	OnStopCurrentTask func(task *Task)

	OnCurrentTaskCompletedSuccessfully func(task *Task)
	OnCurrentTaskFailed                func(task *Task)
	OnCurrentTaskContinues             func(task *Task)

	// OnCurrentTaskExecutingConditionFailed fires when an execution
	// condition fails. The planner aborts afterwards.
	OnCurrentTaskExecutingConditionFailed func(task *Task, condition string)

	// OnAbort fires whenever the planner discards its plan and the Context's
	// partial state.
	OnAbort func(reason string)
}

// MergeHooks returns Hooks calling each of hs in order.
func MergeHooks(hs ...Hooks) Hooks {
	var m Hooks
	for _, h := range hs {
		m.OnNewPlan = chain1(m.OnNewPlan, h.OnNewPlan)
		m.OnReplacePlan = chain3(m.OnReplacePlan, h.OnReplacePlan)
		m.OnNewTask = chain1(m.OnNewTask, h.OnNewTask)
		m.OnNewTaskConditionFailed = chain2(m.OnNewTaskConditionFailed, h.OnNewTaskConditionFailed)
		m.OnStopCurrentTask = chain1(m.OnStopCurrentTask, h.OnStopCurrentTask)
		m.OnCurrentTaskCompletedSuccessfully = chain1(m.OnCurrentTaskCompletedSuccessfully, h.OnCurrentTaskCompletedSuccessfully)
		m.OnCurrentTaskFailed = chain1(m.OnCurrentTaskFailed, h.OnCurrentTaskFailed)
		m.OnCurrentTaskContinues = chain1(m.OnCurrentTaskContinues, h.OnCurrentTaskContinues)
		m.OnCurrentTaskExecutingConditionFailed = chain2(m.OnCurrentTaskExecutingConditionFailed, h.OnCurrentTaskExecutingConditionFailed)
		m.OnAbort = chain1(m.OnAbort, h.OnAbort)
	}
	return m
}

func chain1[A any](f, g func(A)) func(A) {
	if f == nil {
		return g
	}
	if g == nil {
		return f
	}
	return func(a A) { f(a); g(a) }
}

func chain2[A, B any](f, g func(A, B)) func(A, B) {
	if f == nil {
		return g
	}
	if g == nil {
		return f
	}
	return func(a A, b B) { f(a, b); g(a, b) }
}

func chain3[A, B, C any](f, g func(A, B, C)) func(A, B, C) {
	if f == nil {
		return g
	}
	if g == nil {
		return f
	}
	return func(a A, b B, c C) { f(a, b, c); g(a, b, c) }
}
