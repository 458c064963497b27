/*
Package htn implements a Hierarchical Task Network planner for driving agent
behaviour one host update at a time.

# Architecture

  - Behaviour owns a flat arena of Task nodes. Parent and child links are arena
    indices, the root is always index 0, and the arena is immutable once built.
  - Context is the per-agent fact store. It maps fact names to Variant values and
    carries the planner bookkeeping: a nested transaction log, the paused and
    dirty flags, the execution state, the current and previous records and the
    queue of partial decompositions awaiting resumption.
  - Decomposition turns one Task and its subtree into an ordered Plan of
    Primitive indices plus a DecompositionStatus.
  - Planner is the per-agent cursor. Its Tick is called once per host update;
    it (re)plans when needed and runs the head of the Plan via the task's
    Operator.

# Decomposition

Sequences decompose their children in order inside a Context transaction, so a
failing sibling rolls back every Effect applied by the earlier ones. Selectors
try their children in order and take the first one that does not fail. A Pause
splits a long decomposition into resumable segments: the compound that reached
it is queued on the Context together with the child offset to continue from,
and the next FindPlan resumes from there once the current segment has run.

# Capabilities

Condition, Effect and Operator are small interfaces supplied by the host. The
ConditionFunc, EffectFunc and OperatorFunc adapters cover the common case of a
plain function.

# Errors

Misuse that indicates a malformed Behaviour panics (adding a child to a
Primitive, an Operator to a compound, an out of range task index, unbalanced
transactions). Building through Builder reports construction mistakes as errors
instead. Ordinary planning and execution outcomes are never errors: they are
DecompositionStatus and TaskStatus values, and the only host-visible failure
signal is Planner.LastStatus reporting Failure.

# Concurrency

Nothing in this package is safe for concurrent use. Exactly one Planner and one
Context exist per agent and both are driven from the host's update loop.
*/
package htn
