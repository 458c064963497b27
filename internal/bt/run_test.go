package bt

import (
	"context"
	"errors"
	"testing"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/go-htn/internal/htn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_MaxTicks(t *testing.T) {
	t.Parallel()

	a := NewAgent(single(continueOp))
	err := Run(context.Background(), time.Millisecond, a.Node(), WithMaxTicks(3))
	require.NoError(t, err)
	assert.Equal(t, 3, a.Ticks())
}

func TestRun_ContextDone(t *testing.T) {
	t.Parallel()

	a := NewAgent(single(continueOp))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := Run(ctx, time.Millisecond, a.Node())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, a.Ticks())
}

func TestRun_StopOnFailure(t *testing.T) {
	t.Parallel()

	a := NewAgent(single(always(htn.Failure)))
	err := Run(context.Background(), time.Millisecond, a.Node(), WithStopOnFailure(), WithMaxTicks(100))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Ticks())
}

func TestRun_NodeError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	node := bt.New(func([]bt.Node) (bt.Status, error) { return bt.Failure, boom })
	err := Run(context.Background(), time.Millisecond, node, WithMaxTicks(5))
	assert.ErrorIs(t, err, boom)
}
