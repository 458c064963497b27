package htn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBehaviour_Empty(t *testing.T) {
	t.Parallel()

	_, err := NewBehaviour("test", nil)
	assert.ErrorIs(t, err, ErrEmptyBehaviour)
}

func TestNewBehaviour_InvalidArena(t *testing.T) {
	t.Parallel()

	t.Run("child out of range", func(t *testing.T) {
		t.Parallel()
		root := NewTask("root", Sequence)
		root.AddChild(3)
		_, err := NewBehaviour("test", []*Task{root})
		assert.ErrorIs(t, err, ErrInvalidArena)
	})
	t.Run("root as child", func(t *testing.T) {
		t.Parallel()
		root := NewTask("root", Sequence)
		root.AddChild(0)
		_, err := NewBehaviour("test", []*Task{root})
		assert.ErrorIs(t, err, ErrInvalidArena)
	})
	t.Run("shared child", func(t *testing.T) {
		t.Parallel()
		root := NewTask("root", Sequence)
		left := NewTask("left", Selector)
		leaf := NewTask("leaf", Primitive)
		root.AddChild(1)
		root.AddChild(2)
		left.AddChild(2)
		_, err := NewBehaviour("test", []*Task{root, left, leaf})
		assert.ErrorIs(t, err, ErrInvalidArena)
	})
	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		root := NewTask("root", Sequence)
		a := NewTask("a", Sequence)
		b := NewTask("b", Sequence)
		a.AddChild(2)
		b.AddChild(1)
		_, err := NewBehaviour("test", []*Task{root, a, b})
		assert.ErrorIs(t, err, ErrInvalidArena)
	})
	t.Run("pause root", func(t *testing.T) {
		t.Parallel()
		_, err := NewBehaviour("test", []*Task{NewTask("", Pause)})
		assert.ErrorIs(t, err, ErrInvalidArena)
	})
}

func TestNewBehaviour_AdoptsChildren(t *testing.T) {
	t.Parallel()

	root := NewTask("root", Sequence)
	leaf := NewTask("leaf", Primitive)
	root.AddChild(1)
	b, err := NewBehaviour("test", []*Task{root, leaf})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Task(1).Parent())
	assert.Equal(t, 1, b.Task(1).Index())
}

func TestBehaviour_TaskOutOfRangePanics(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").Sequence("root").End().MustBuild()
	assert.Panics(t, func() { b.Task(1) })
	assert.Panics(t, func() { b.Task(-1) })
}

func TestTask_MisusePanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewTask("p", Primitive).AddChild(1) })
	assert.Panics(t, func() { NewTask("p", Pause).AddChild(1) })
	assert.Panics(t, func() { NewTask("s", Selector).AddOperator("op", always(Success)) })
	assert.NotPanics(t, func() { NewTask("p", Primitive).AddOperator("op", always(Success)) })
}

func TestTask_IsValidVacuous(t *testing.T) {
	t.Parallel()

	task := NewTask("p", Primitive)
	assert.True(t, task.IsValid(NewContext()))
	task.AddCondition("ok", valid)
	task.AddCondition("nope", invalid)
	assert.False(t, task.IsValid(NewContext()))
}

func TestTask_ApplyEffectsInOrder(t *testing.T) {
	t.Parallel()

	task := NewTask("p", Primitive)
	task.AddEffect("first", EffectFunc(func(ctx *Context) { ctx.Set("k", Int32Value(1)) }))
	task.AddEffect("second", EffectFunc(func(ctx *Context) { ctx.Set("k", Int32Value(2)) }))
	ctx := NewContext()
	task.ApplyEffects(ctx)
	v, _ := ctx.Get("k")
	assert.True(t, v.Equal(Int32Value(2)))
}

func TestTask_Stop(t *testing.T) {
	t.Parallel()

	stopped := false
	task := NewTask("p", Primitive)
	assert.NotPanics(t, func() { task.Stop(NewContext()) })
	task.AddOperator("op", StoppableOperator{
		OnUpdate: func(*Context) TaskStatus { return Continue },
		OnStop:   func(*Context) { stopped = true },
	})
	assert.Equal(t, Continue, task.Update(NewContext()))
	task.Stop(NewContext())
	assert.True(t, stopped)
}

func TestFindPlan_SequenceNoPollution(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").Effect("yeh", setBool("yeh", true)).End().
		Primitive("b").Effect("yeh2", setBool("yeh2", true)).End().
		Primitive("c").Condition("never", invalid).End().
		End().
		MustBuild()

	ctx := NewContext()
	plan, status := b.FindPlan(ctx)
	assert.Equal(t, Failed, status)
	assert.Empty(t, plan)
	assert.False(t, ctx.Has("yeh"))
	assert.False(t, ctx.Has("yeh2"))
	assert.Empty(t, ctx.Record())
	assert.Equal(t, 0, ctx.TransactionDepth())
	assert.Equal(t, Executing, ctx.State())
}

func TestFindPlan_SelectorPriority(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Selector("root").
		Sequence("wrong way").
		Primitive("set wrong").Effect("wrong", setBool("wrong", true)).End().
		Primitive("fail").Condition("never", invalid).End().
		End().
		Primitive("right").Effect("test", setBool("test", true)).End().
		Primitive("also right").End().
		End().
		MustBuild()

	ctx := NewContext()
	plan, status := b.FindPlan(ctx)
	assert.Equal(t, Succeeded, status)
	assert.Equal(t, []string{"right"}, taskNames(b, plan))
	assert.False(t, ctx.Has("wrong"))
	v, ok := ctx.Get("test")
	require.True(t, ok)
	assert.True(t, v.Equal(BoolValue(true)))
}

func TestFindPlan_EffectsVisibleToLaterSiblings(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("grab").Condition("empty handed", lacksFact("holding")).
		Effect("hold", setBool("holding", true)).End().
		Primitive("use").Condition("holding", hasFact("holding")).End().
		End().
		MustBuild()

	plan, status := b.FindPlan(NewContext())
	assert.Equal(t, Succeeded, status)
	assert.Equal(t, []string{"grab", "use"}, taskNames(b, plan))
}

func TestFindPlan_EmptyCompoundsFail(t *testing.T) {
	t.Parallel()

	for _, build := range []func(*Builder) *Builder{
		func(b *Builder) *Builder { return b.Sequence("root").End() },
		func(b *Builder) *Builder { return b.Selector("root").End() },
	} {
		b := build(NewBuilder("test")).MustBuild()
		plan, status := b.FindPlan(NewContext())
		assert.Equal(t, Failed, status)
		assert.Empty(t, plan)
	}
}

func TestFindPlan_SequenceRechecksOwnValidity(t *testing.T) {
	t.Parallel()

	// the first child's effect invalidates the sequence itself
	b := NewBuilder("test").
		Sequence("root").
		Condition("not done", lacksFact("done")).
		Primitive("finish").Effect("done", setBool("done", true)).End().
		Primitive("after").End().
		End().
		MustBuild()

	ctx := NewContext()
	plan, status := b.FindPlan(ctx)
	assert.Equal(t, Failed, status)
	assert.Empty(t, plan)
	assert.False(t, ctx.Has("done"))
	assert.Equal(t, 0, ctx.TransactionDepth())
}

func TestFindPlan_Idempotent(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Selector("root").
		Sequence("armed").
		Condition("has weapon", hasFact("weapon")).
		Primitive("attack").End().
		End().
		Sequence("unarmed").
		Primitive("find weapon").Effect("weapon", setBool("weapon", true)).End().
		Primitive("equip").End().
		End().
		End().
		MustBuild()

	ctx := NewContext()
	ctx.Set("enemy", EntityValue(1))
	before := ctx.Snapshot()

	plan1, status1 := b.FindPlan(ctx)
	// effects land in the context; restore it to compare a second pass
	ctx.Remove("weapon")
	plan2, status2 := b.FindPlan(ctx)

	assert.Equal(t, status1, status2)
	assert.Equal(t, plan1, plan2)
	ctx.Remove("weapon")
	assert.Equal(t, len(before), ctx.Len())
}

func TestFindPlan_PauseSplitsSequence(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").End().
		Pause().
		Primitive("b").End().
		End().
		MustBuild()

	ctx := NewContext()
	plan, status := b.FindPlan(ctx)
	assert.Equal(t, Partial, status)
	assert.Equal(t, []string{"a"}, taskNames(b, plan))
	assert.True(t, ctx.Paused())
	assert.Equal(t, []PartialEntry{{Task: 0, Next: 2}}, ctx.PartialQueue())
	assert.Equal(t, 0, ctx.TransactionDepth())

	plan, status = b.FindPlan(ctx)
	assert.Equal(t, Succeeded, status)
	assert.Equal(t, []string{"b"}, taskNames(b, plan))
	assert.False(t, ctx.Paused())
	assert.Empty(t, ctx.PartialQueue())
}

func TestFindPlan_MultiEntryPartialQueue(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Sequence("inner").
		Primitive("a").End().
		Pause().
		Primitive("b").End().
		End().
		Primitive("c").End().
		Pause().
		Primitive("d").End().
		End().
		MustBuild()

	ctx := NewContext()
	plan, status := b.FindPlan(ctx)
	require.Equal(t, Partial, status)
	assert.Equal(t, []string{"a"}, taskNames(b, plan))
	inner := b.Task(0).Children()[0]
	assert.Equal(t, []PartialEntry{{Task: inner, Next: 2}, {Task: 0, Next: 1}}, ctx.PartialQueue())

	// inner resumes into the primary plan, root into a scratch plan that
	// then pauses again
	plan, status = b.FindPlan(ctx)
	require.Equal(t, Partial, status)
	assert.Equal(t, []string{"b", "c"}, taskNames(b, plan))
	assert.True(t, ctx.Paused())
	assert.Equal(t, []PartialEntry{{Task: 0, Next: 3}}, ctx.PartialQueue())

	plan, status = b.FindPlan(ctx)
	require.Equal(t, Succeeded, status)
	assert.Equal(t, []string{"d"}, taskNames(b, plan))
	assert.Empty(t, ctx.PartialQueue())
}

func TestFindPlan_FailedResumeReportsFailed(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Selector("root").
		Sequence("long").
		Condition("fresh", lacksFact("stale")).
		Primitive("a").End().
		Pause().
		Primitive("b").End().
		End().
		Primitive("idle").End().
		End().
		MustBuild()

	ctx := NewContext()
	plan, status := b.FindPlan(ctx)
	require.Equal(t, Partial, status)
	assert.Equal(t, []string{"a"}, taskNames(b, plan))

	// the continuation is no longer valid
	ctx.Set("stale", BoolValue(true))
	plan, status = b.FindPlan(ctx)
	assert.Equal(t, Failed, status)
	assert.Empty(t, plan)
	assert.False(t, ctx.Paused())
	assert.Empty(t, ctx.PartialQueue())
	assert.Equal(t, 0, ctx.TransactionDepth())

	// not paused any more, so the next call plans from the root
	plan, status = b.FindPlan(ctx)
	assert.Equal(t, Succeeded, status)
	assert.Equal(t, []string{"idle"}, taskNames(b, plan))
}

func TestFindPlan_PartialResumeKeepsSegments(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").End().
		Pause().
		Primitive("b").End().
		Pause().
		Primitive("c").End().
		End().
		MustBuild()

	ctx := NewContext()
	plan, status := b.FindPlan(ctx)
	require.Equal(t, Partial, status)
	assert.Equal(t, []string{"a"}, taskNames(b, plan))

	// a second pause hands back the next segment, not a replan of a
	plan, status = b.FindPlan(ctx)
	require.Equal(t, Partial, status)
	assert.Equal(t, []string{"b"}, taskNames(b, plan))
	assert.True(t, ctx.Paused())
	assert.Equal(t, []PartialEntry{{Task: 0, Next: 4}}, ctx.PartialQueue())

	plan, status = b.FindPlan(ctx)
	assert.Equal(t, Succeeded, status)
	assert.Equal(t, []string{"c"}, taskNames(b, plan))
	assert.False(t, ctx.Paused())
}

func TestFindPlan_RejectedResumeFallsBackToRoot(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").End().
		Selector("choose").
		Pause().
		End().
		End().
		MustBuild()

	ctx := NewContext()
	plan, status := b.FindPlan(ctx)
	require.Equal(t, Partial, status)
	assert.Equal(t, []string{"a"}, taskNames(b, plan))
	// the pause sits under a selector at the end, nothing is queued
	assert.True(t, ctx.Paused())
	assert.Empty(t, ctx.PartialQueue())

	plan, status = b.FindPlan(ctx)
	assert.Equal(t, Partial, status)
	assert.Equal(t, []string{"a"}, taskNames(b, plan))
	assert.Equal(t, []int{1}, ctx.Record())
}

func TestFindPlan_FailedReplanKeepsPartialState(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Condition("allowed", lacksFact("blocked")).
		Primitive("a").End().
		Pause().
		Primitive("b").End().
		End().
		MustBuild()

	ctx := NewContext()
	_, status := b.FindPlan(ctx)
	require.Equal(t, Partial, status)
	queue := ctx.PartialQueue()

	// a previous plan is still being executed, so FindPlan replans
	ctx.lastRecord = []int{1}
	ctx.Set("blocked", BoolValue(true))
	_, status = b.FindPlan(ctx)
	assert.Equal(t, Failed, status)
	assert.True(t, ctx.Paused())
	assert.Equal(t, queue, ctx.PartialQueue())
}

func TestFindPlan_PauseUnderSelector(t *testing.T) {
	t.Parallel()

	b := NewBuilder("test").
		Sequence("root").
		Primitive("a").End().
		Selector("choose").
		Pause().
		End().
		Primitive("b").End().
		End().
		MustBuild()

	ctx := NewContext()
	plan, status := b.FindPlan(ctx)
	require.Equal(t, Partial, status)
	assert.Equal(t, []string{"a"}, taskNames(b, plan))
	assert.Equal(t, []PartialEntry{{Task: 0, Next: 2}}, ctx.PartialQueue())

	plan, status = b.FindPlan(ctx)
	assert.Equal(t, Succeeded, status)
	assert.Equal(t, []string{"b"}, taskNames(b, plan))
}
