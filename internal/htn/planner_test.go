package htn

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanner_ZeroValue(t *testing.T) {
	t.Parallel()

	var p Planner
	assert.Nil(t, p.CurrentTask())
	assert.Empty(t, p.Plan())
	assert.Equal(t, Failure, p.LastStatus())
}

func TestPlanner_PrimitiveWithoutOperator(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("super").
		Primitive("primitive").End().
		End().
		MustBuild()

	var logs bytes.Buffer
	p := NewPlanner(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	ctx := NewContext()
	p.Tick(b, ctx)

	assert.Nil(t, p.CurrentTask())
	assert.Equal(t, Failure, p.LastStatus())
	assert.Contains(t, logs.String(), "primitive task has no operator")
}

func TestPlanner_TrivialSuccess(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("done").Do("succeed", always(Success)).End().
		End().
		MustBuild()

	p := NewPlanner()
	ctx := NewContext()
	p.Tick(b, ctx)

	assert.Equal(t, Success, p.LastStatus())
	assert.Empty(t, p.Plan())
	assert.Nil(t, p.CurrentTask())
	assert.False(t, ctx.Dirty())
	assert.Empty(t, ctx.LastRecord())
}

func TestPlanner_NoPollutionAfterTick(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").Effect("yeh", setBool("yeh", true)).Do("ok", always(Success)).End().
		Primitive("b").Effect("yeh2", setBool("yeh2", true)).Do("ok", always(Success)).End().
		Primitive("c").Condition("never", invalid).Do("ok", always(Success)).End().
		End().
		MustBuild()

	p := NewPlanner()
	ctx := NewContext()
	p.Tick(b, ctx)

	_, ok := ctx.Get("yeh")
	assert.False(t, ok)
	_, ok = ctx.Get("yeh2")
	assert.False(t, ok)
	assert.Equal(t, Failure, p.LastStatus())
}

func TestPlanner_SelectorPriorityAfterTick(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Selector("root").
		Sequence("fails").
		Primitive("set wrong").Effect("wrong", setBool("wrong", true)).Do("ok", always(Success)).End().
		Primitive("never").Condition("never", invalid).Do("ok", always(Success)).End().
		End().
		Primitive("set test").Effect("test", setBool("test", true)).Do("ok", always(Success)).End().
		End().
		MustBuild()

	p := NewPlanner()
	ctx := NewContext()
	p.Tick(b, ctx)

	_, ok := ctx.Get("wrong")
	assert.False(t, ok)
	v, ok := ctx.Get("test")
	require.True(t, ok)
	assert.True(t, v.Equal(BoolValue(true)))
	assert.Equal(t, Success, p.LastStatus())
}

func TestPlanner_ContinueKeepsTask(t *testing.T) {
	t.Parallel()

	remaining := 2
	walk := OperatorFunc(func(*Context) TaskStatus {
		if remaining > 0 {
			remaining--
			return Continue
		}
		return Success
	})
	b := NewBuilder("test").
		Sequence("root").
		Primitive("walk").Do("walking", walk).End().
		Primitive("arrive").Do("ok", always(Success)).End().
		End().
		MustBuild()

	p := NewPlanner()
	ctx := NewContext()

	p.Tick(b, ctx)
	assert.Equal(t, Continue, p.LastStatus())
	require.NotNil(t, p.CurrentTask())
	assert.Equal(t, "walk", p.CurrentTask().Name())
	assert.Len(t, p.Plan(), 1)

	p.Tick(b, ctx)
	assert.Equal(t, Continue, p.LastStatus())

	p.Tick(b, ctx)
	assert.Equal(t, Success, p.LastStatus())
	assert.Nil(t, p.CurrentTask())

	p.Tick(b, ctx)
	assert.Equal(t, Success, p.LastStatus())
	assert.Empty(t, p.Plan())
}

func TestPlanner_OperatorFailureAborts(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").Do("fail", always(Failure)).End().
		Primitive("b").Do("ok", always(Success)).End().
		End().
		MustBuild()

	var aborts []string
	p := NewPlanner(WithHooks(Hooks{OnAbort: func(reason string) { aborts = append(aborts, reason) }}))
	ctx := NewContext()
	p.Tick(b, ctx)

	assert.Equal(t, Failure, p.LastStatus())
	assert.Empty(t, p.Plan())
	assert.Nil(t, p.CurrentTask())
	assert.False(t, ctx.Dirty())
	require.Len(t, aborts, 1)
	assert.Contains(t, aborts[0], "task a failed")
}

func TestPlanner_ConditionFailureAtRuntimeAborts(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").Do("ok", always(Success)).End().
		Primitive("b").Condition("door open", hasFact("door")).Do("ok", always(Success)).End().
		End().
		MustBuild()

	var failed string
	p := NewPlanner(WithHooks(Hooks{
		OnNewTaskConditionFailed: func(task *Task, condition string) { failed = task.Name() + "/" + condition },
	}))
	ctx := NewContext()
	ctx.Set("door", BoolValue(true))
	p.Tick(b, ctx)
	require.Equal(t, Success, p.LastStatus())
	require.Len(t, p.Plan(), 1)

	// the host's sensing closes the door between ticks
	ctx.Remove("door")
	p.Tick(b, ctx)
	assert.Equal(t, "b/door open", failed)
	assert.Equal(t, Failure, p.LastStatus())
	assert.Empty(t, p.Plan())
	assert.Nil(t, p.CurrentTask())
}

func TestPlanner_ExecConditionFailureAborts(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("chase").ExecCondition("target visible", hasFact("target")).
		Do("chasing", always(Continue)).End().
		End().
		MustBuild()

	var failed []string
	p := NewPlanner(WithHooks(Hooks{
		OnCurrentTaskExecutingConditionFailed: func(_ *Task, condition string) { failed = append(failed, condition) },
	}))
	ctx := NewContext()
	ctx.Set("target", EntityValue(9))
	p.Tick(b, ctx)
	require.Equal(t, Continue, p.LastStatus())

	ctx.Remove("target")
	p.Tick(b, ctx)
	assert.Equal(t, []string{"target visible"}, failed)
	assert.Equal(t, Failure, p.LastStatus())
	assert.Nil(t, p.CurrentTask())
}

func TestPlanner_DirtyReplacesPlanAndStopsTask(t *testing.T) {
	t.Parallel()

	stops := 0
	wander := StoppableOperator{
		OnUpdate: func(*Context) TaskStatus { return Continue },
		OnStop:   func(*Context) { stops++ },
	}
	b := NewBuilder("test").
		Selector("root").
		Primitive("flee").Condition("threatened", hasFact("threat")).Do("ok", always(Continue)).End().
		Primitive("wander").Do("wandering", wander).End().
		End().
		MustBuild()

	var (
		newPlans, replaced int
		stopped            []string
	)
	p := NewPlanner(WithHooks(Hooks{
		OnNewPlan:         func(Plan) { newPlans++ },
		OnReplacePlan:     func(Plan, *Task, Plan) { replaced++ },
		OnStopCurrentTask: func(task *Task) { stopped = append(stopped, task.Name()) },
	}))
	ctx := NewContext()
	p.Tick(b, ctx)
	require.Equal(t, "wander", p.CurrentTask().Name())
	assert.Equal(t, 1, newPlans)

	ctx.Set("threat", EntityValue(2))
	ctx.MarkDirty()
	p.Tick(b, ctx)

	require.NotNil(t, p.CurrentTask())
	assert.Equal(t, "flee", p.CurrentTask().Name())
	assert.Equal(t, 1, stops)
	assert.Equal(t, []string{"wander"}, stopped)
	assert.Equal(t, 2, newPlans, "the pending plan was empty, only the running task was replaced")
	assert.Equal(t, 0, replaced)
	assert.False(t, ctx.Dirty())
}

func TestPlanner_ReplacePlanHook(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").Do("ok", always(Continue)).End().
		Primitive("b").Do("ok", always(Success)).End().
		End().
		MustBuild()

	var old, next Plan
	var running *Task
	p := NewPlanner(WithHooks(Hooks{
		OnReplacePlan: func(o Plan, current *Task, n Plan) { old, running, next = o, current, n },
	}))
	ctx := NewContext()
	p.Tick(b, ctx)
	ctx.MarkDirty()
	p.Tick(b, ctx)

	assert.Equal(t, []string{"b"}, taskNames(b, old))
	require.NotNil(t, running)
	assert.Equal(t, "a", running.Name())
	assert.Equal(t, []string{"a", "b"}, taskNames(b, next))
}

func TestPlanner_UnplannableReportsFailure(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Selector("root").
		Primitive("never").Condition("never", invalid).Do("ok", always(Success)).End().
		End().
		MustBuild()

	p := NewPlanner()
	ctx := NewContext()
	p.Tick(b, ctx)
	assert.Equal(t, Failure, p.LastStatus())
	assert.Empty(t, p.Plan())
}

func TestPlanner_FailedDirtyReplanKeepsRunningPlan(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Condition("allowed", lacksFact("blocked")).
		Primitive("a").Do("ok", always(Continue)).End().
		Primitive("b").Do("ok", always(Success)).End().
		End().
		MustBuild()

	p := NewPlanner()
	ctx := NewContext()
	p.Tick(b, ctx)
	require.Equal(t, "a", p.CurrentTask().Name())

	ctx.Set("blocked", BoolValue(true))
	ctx.MarkDirty()
	p.Tick(b, ctx)
	require.NotNil(t, p.CurrentTask())
	assert.Equal(t, "a", p.CurrentTask().Name())
	assert.Equal(t, Continue, p.LastStatus())
	assert.Len(t, p.Plan(), 1)
}

func TestPlanner_PausedBehaviourRunsInSegments(t *testing.T) {
	t.Parallel()

	var ran []string
	op := func(name string) OperatorFunc {
		return func(*Context) TaskStatus {
			ran = append(ran, name)
			return Success
		}
	}
	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").Do("a", op("a")).End().
		Primitive("b").Do("b", op("b")).End().
		Pause().
		Primitive("c").Do("c", op("c")).End().
		End().
		MustBuild()

	p := NewPlanner()
	ctx := NewContext()

	p.Tick(b, ctx)
	assert.True(t, ctx.Paused())
	assert.Equal(t, []int{1, 2}, ctx.LastRecord())
	p.Tick(b, ctx)
	assert.Empty(t, ctx.LastRecord(), "the segment has run to completion")

	p.Tick(b, ctx)
	assert.False(t, ctx.Paused())
	assert.Equal(t, []string{"a", "b", "c"}, ran)

	// and round again from the root
	p.Tick(b, ctx)
	assert.Equal(t, []string{"a", "b", "c", "a"}, ran)
}

func TestPlanner_FailedResumeReportsFailure(t *testing.T) {
	t.Parallel()

	var ran []string
	op := func(name string) OperatorFunc {
		return func(*Context) TaskStatus {
			ran = append(ran, name)
			return Success
		}
	}
	b := NewBuilder("test").
		Sequence("root").
		Condition("fresh", lacksFact("stale")).
		Primitive("a").Do("a", op("a")).End().
		Pause().
		Primitive("b").Do("b", op("b")).End().
		End().
		MustBuild()

	p := NewPlanner()
	ctx := NewContext()
	p.Tick(b, ctx)
	require.True(t, ctx.Paused())
	require.Equal(t, Success, p.LastStatus())

	ctx.Set("stale", BoolValue(true))
	p.Tick(b, ctx)
	assert.Equal(t, Failure, p.LastStatus())
	assert.Nil(t, p.CurrentTask())
	assert.Empty(t, p.Plan())
	assert.False(t, ctx.Paused())
	assert.Empty(t, ctx.PartialQueue())

	// the next tick replans from the root
	ctx.Remove("stale")
	p.Tick(b, ctx)
	assert.Equal(t, []string{"a", "a"}, ran)
	assert.True(t, ctx.Paused())
}

func TestPlanner_DirtyWhilePausedRestoresOnFailure(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Condition("allowed", lacksFact("blocked")).
		Primitive("a").Do("ok", always(Continue)).End().
		Pause().
		Primitive("b").Do("ok", always(Success)).End().
		End().
		MustBuild()

	p := NewPlanner()
	ctx := NewContext()
	p.Tick(b, ctx)
	require.True(t, ctx.Paused())
	queue := ctx.PartialQueue()
	last := ctx.LastRecord()

	ctx.Set("blocked", BoolValue(true))
	ctx.MarkDirty()
	p.Tick(b, ctx)

	assert.True(t, ctx.Paused())
	assert.Equal(t, queue, ctx.PartialQueue())
	assert.Equal(t, last, ctx.LastRecord())
	assert.Equal(t, "a", p.CurrentTask().Name())
}

func TestPlanner_Reset(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").Do("ok", always(Continue)).End().
		Pause().
		Primitive("b").Do("ok", always(Success)).End().
		End().
		MustBuild()

	p := NewPlanner()
	ctx := NewContext()
	p.Tick(b, ctx)
	require.NotNil(t, p.CurrentTask())

	p.Reset(ctx)
	assert.Nil(t, p.CurrentTask())
	assert.False(t, ctx.Paused())
	assert.Empty(t, ctx.PartialQueue())
	assert.Empty(t, ctx.LastRecord())
}

func TestPlanner_HookSequence(t *testing.T) {
	t.Parallel()

	var events []string
	record := func(format string) func(*Task) {
		return func(task *Task) { events = append(events, strings.ReplaceAll(format, "%", task.Name())) }
	}
	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").Do("ok", always(Success)).End().
		Primitive("b").Do("ok", always(Continue)).End().
		End().
		MustBuild()

	first := Hooks{
		OnNewPlan:                          func(plan Plan) { events = append(events, "plan") },
		OnNewTask:                          record("new %"),
		OnCurrentTaskCompletedSuccessfully: record("done %"),
	}
	second := Hooks{
		OnNewTask:              record("also new %"),
		OnCurrentTaskContinues: record("continue %"),
	}
	p := NewPlanner(WithHooks(first), WithHooks(second))
	ctx := NewContext()
	p.Tick(b, ctx)
	p.Tick(b, ctx)

	assert.Equal(t, []string{
		"plan",
		"new a", "also new a",
		"done a",
		"new b", "also new b",
		"continue b",
	}, events)
}
