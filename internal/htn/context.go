package htn

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// ExecutionState tracks whether the Context is currently being planned
// against or executed against.
type ExecutionState int

const (
	Planning ExecutionState = iota
	Executing
)

// String implements fmt.Stringer.
func (s ExecutionState) String() string {
	if s == Executing {
		return "executing"
	}
	return "planning"
}

// PartialEntry is one resumable decomposition segment: the compound task that
// was interrupted and the child offset to continue from.
type PartialEntry struct {
	Task int
	Next int
}

// Context is the per-agent fact store plus planner bookkeeping.
//
// The zero value is usable; the fact map is lazily initialized on the first
// write. NewContext additionally assigns an id and starts dirty, so the first
// Tick always plans.
type Context struct {
	id    string
	facts map[string]Variant

	// innermost transaction last
	transactions []*transaction

	paused       bool
	dirty        bool
	state        ExecutionState
	record       []int
	lastRecord   []int
	partialQueue []PartialEntry
}

// NewContext returns a dirty Context with a fresh id.
func NewContext() *Context {
	return &Context{
		id:    uuid.NewString(),
		facts: make(map[string]Variant),
		dirty: true,
	}
}

// ID returns the agent id assigned by NewContext, or "" for a zero Context.
func (c *Context) ID() string { return c.id }

func (c *Context) init() {
	if c.facts == nil {
		c.facts = make(map[string]Variant)
	}
}

// Add inserts a fact that must not already exist. Adding an existing key
// panics.
func (c *Context) Add(key string, value Variant) {
	c.init()
	if _, ok := c.facts[key]; ok {
		panic(fmt.Sprintf("htn: Context.Add: key %q already present", key))
	}
	c.logWrite(key, Variant{}, false)
	c.facts[key] = value
}

// Set inserts or replaces a fact.
func (c *Context) Set(key string, value Variant) {
	c.init()
	prior, existed := c.facts[key]
	c.logWrite(key, prior, existed)
	c.facts[key] = value
}

// Get returns the fact stored under key.
func (c *Context) Get(key string) (Variant, bool) {
	v, ok := c.facts[key]
	return v, ok
}

// Remove deletes a fact. Removing an absent key is a no-op.
func (c *Context) Remove(key string) {
	prior, ok := c.facts[key]
	if !ok {
		return
	}
	if tx := c.currentTransaction(); tx != nil {
		if entry, logged := tx.entries[key]; logged {
			if !entry.existed {
				// created and removed within the same transaction: nothing to undo
				tx.unlog(key)
			}
		} else {
			tx.log(key, prior, true)
		}
	}
	delete(c.facts, key)
}

// TestValue compares the stored fact against value. ok is false when the key
// is absent.
func (c *Context) TestValue(key string, value Variant) (equal, ok bool) {
	v, ok := c.facts[key]
	if !ok {
		return false, false
	}
	return v.Equal(value), true
}

// Has reports whether key is present.
func (c *Context) Has(key string) bool {
	_, ok := c.facts[key]
	return ok
}

// Len returns the number of facts.
func (c *Context) Len() int { return len(c.facts) }

// Keys returns the fact names in sorted order.
func (c *Context) Keys() []string {
	return slices.Sorted(maps.Keys(c.facts))
}

// Snapshot returns a copy of the fact map.
func (c *Context) Snapshot() map[string]Variant {
	if c.facts == nil {
		return nil
	}
	return maps.Clone(c.facts)
}

// Paused reports whether a partial plan is waiting to be resumed.
func (c *Context) Paused() bool { return c.paused }

// Dirty reports whether the host has requested a replan.
func (c *Context) Dirty() bool { return c.dirty }

// MarkDirty requests a replan on the next Tick.
func (c *Context) MarkDirty() { c.dirty = true }

// State returns the execution state.
func (c *Context) State() ExecutionState { return c.state }

// Record returns a copy of the indices decomposed into the current plan.
func (c *Context) Record() []int { return slices.Clone(c.record) }

// LastRecord returns a copy of the previous record.
func (c *Context) LastRecord() []int { return slices.Clone(c.lastRecord) }

// PartialQueue returns a copy of the segments awaiting resumption, in order.
func (c *Context) PartialQueue() []PartialEntry { return slices.Clone(c.partialQueue) }

// DumpIntoLastRecord moves the live record into the last record, leaving the
// live record empty.
func (c *Context) DumpIntoLastRecord() {
	c.lastRecord = c.record
	c.record = nil
}

// DumpIntoRecord moves the last record back into the live record, leaving the
// last record empty.
func (c *Context) DumpIntoRecord() {
	c.record = c.lastRecord
	c.lastRecord = nil
}

func (c *Context) addToRecord(index int) {
	c.record = append(c.record, index)
}

func (c *Context) pushPartial(task, next int) {
	c.partialQueue = append(c.partialQueue, PartialEntry{Task: task, Next: next})
}

// txEntry captures the state of one key before its first write in a
// transaction.
type txEntry struct {
	existed bool
	prior   Variant
}

type transaction struct {
	keys    []string
	entries map[string]txEntry
}

func newTransaction() *transaction {
	return &transaction{entries: make(map[string]txEntry)}
}

func (t *transaction) log(key string, prior Variant, existed bool) {
	t.keys = append(t.keys, key)
	t.entries[key] = txEntry{existed: existed, prior: prior}
}

func (t *transaction) unlog(key string) {
	delete(t.entries, key)
	if i := slices.Index(t.keys, key); i >= 0 {
		t.keys = slices.Delete(t.keys, i, i+1)
	}
}

func (c *Context) currentTransaction() *transaction {
	if len(c.transactions) == 0 {
		return nil
	}
	return c.transactions[len(c.transactions)-1]
}

// logWrite records key in the innermost transaction on its first write there.
func (c *Context) logWrite(key string, prior Variant, existed bool) {
	tx := c.currentTransaction()
	if tx == nil {
		return
	}
	if _, logged := tx.entries[key]; logged {
		return
	}
	tx.log(key, prior, existed)
}

// BeginTransaction opens a nested transaction.
func (c *Context) BeginTransaction() {
	c.transactions = append(c.transactions, newTransaction())
}

// CommitTransaction closes the innermost transaction, keeping its writes.
// Its log is folded into the enclosing transaction, so rolling that back
// still undoes the committed writes. Panics if no transaction is open.
func (c *Context) CommitTransaction() {
	tx := c.popTransaction("CommitTransaction")
	parent := c.currentTransaction()
	if parent == nil {
		return
	}
	for _, key := range tx.keys {
		entry := tx.entries[key]
		if outer, logged := parent.entries[key]; logged {
			if !outer.existed && !c.Has(key) {
				// created in the parent, removed in the child
				parent.unlog(key)
			}
			continue
		}
		parent.log(key, entry.prior, entry.existed)
	}
}

// RollbackTransaction closes the innermost transaction, undoing every write
// logged since the matching BeginTransaction. Panics if no transaction is
// open, or if a key created inside the transaction has vanished.
func (c *Context) RollbackTransaction() {
	tx := c.popTransaction("RollbackTransaction")
	for i := len(tx.keys) - 1; i >= 0; i-- {
		key := tx.keys[i]
		entry := tx.entries[key]
		if entry.existed {
			c.init()
			c.facts[key] = entry.prior
			continue
		}
		if _, ok := c.facts[key]; !ok {
			panic(fmt.Sprintf("htn: RollbackTransaction: logged key %q vanished", key))
		}
		delete(c.facts, key)
	}
}

func (c *Context) popTransaction(op string) *transaction {
	n := len(c.transactions)
	if n == 0 {
		panic("htn: " + op + ": no open transaction")
	}
	tx := c.transactions[n-1]
	c.transactions[n-1] = nil
	c.transactions = c.transactions[:n-1]
	return tx
}

// TransactionDepth returns the number of open transactions.
func (c *Context) TransactionDepth() int { return len(c.transactions) }
