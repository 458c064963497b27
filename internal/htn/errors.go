package htn

import "errors"

var (
	// ErrEmptyBehaviour is returned when a Behaviour would have no tasks.
	ErrEmptyBehaviour = errors.New("htn: behaviour has no tasks")

	// ErrInvalidArena is returned when task links do not form a tree rooted
	// at index 0.
	ErrInvalidArena = errors.New("htn: invalid task arena")

	// ErrNoCurrentTask is returned by Builder when a task attribute is
	// declared before any task.
	ErrNoCurrentTask = errors.New("htn: no current task")

	// ErrChildOfPrimitive is returned by Builder when a task is opened under a
	// Primitive.
	ErrChildOfPrimitive = errors.New("htn: primitive tasks cannot have children")

	// ErrOperatorOnCompound is returned by Builder when Do targets a task that
	// is not a Primitive.
	ErrOperatorOnCompound = errors.New("htn: only primitive tasks take an operator")

	// ErrUnbalancedEnd is returned by Builder when End has no open task.
	ErrUnbalancedEnd = errors.New("htn: end without open task")
)
