package telemetry

import (
	"context"

	"github.com/joeycumines/go-htn/internal/htn"
)

// PlannerHooks returns planner hooks recording every event for agent.
func PlannerHooks(ctx context.Context, agent string) htn.Hooks {
	return htn.Hooks{
		OnNewPlan: func(plan htn.Plan) {
			RecordReplan(ctx, agent, "new", len(plan))
		},

		OnReplacePlan: func(_ htn.Plan, _ *htn.Task, plan htn.Plan) {
			RecordReplan(ctx, agent, "replace", len(plan))
		},

		OnNewTask: func(task *htn.Task) {
			RecordTask(ctx, agent, task.Name())
		},

		OnNewTaskConditionFailed: func(task *htn.Task, condition string) {
			RecordConditionFailure(ctx, agent, task.Name(), condition, "plan")
		},

		OnStopCurrentTask: func(task *htn.Task) {
			RecordTaskStop(ctx, agent, task.Name())
		},

		OnCurrentTaskCompletedSuccessfully: func(task *htn.Task) {
			RecordTaskOutcome(ctx, agent, task.Name(), htn.Success.String())
		},

		OnCurrentTaskFailed: func(task *htn.Task) {
			RecordTaskOutcome(ctx, agent, task.Name(), htn.Failure.String())
		},

		OnCurrentTaskContinues: func(task *htn.Task) {
			RecordTaskOutcome(ctx, agent, task.Name(), htn.Continue.String())
		},

		OnCurrentTaskExecutingConditionFailed: func(task *htn.Task, condition string) {
			RecordConditionFailure(ctx, agent, task.Name(), condition, "execute")
		},

		OnAbort: func(reason string) {
			RecordAbort(ctx, agent, reason)
		},
	}
}
