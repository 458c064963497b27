// Package bt runs htn agents under go-behaviortree.
//
// An Agent wraps a Behaviour, its Planner and its Context and is exposed as a
// bt.Node, so it can be ticked directly, composed with other nodes, or driven
// by a bt.Ticker via Run. Host code reports what the agent perceives through
// Sensors, which may be written from any goroutine; staged readings reach the
// Context at the start of the next tick.
package bt

import (
	"maps"
	"slices"
	"sync"

	"github.com/joeycumines/go-htn/internal/htn"
)

// Sensors is a thread-safe staging area for host perception.
//
// Usage: Create with new(Sensors). The internal maps are lazily initialized
// on the first write.
type Sensors struct {
	mu      sync.RWMutex
	data    map[string]htn.Variant
	pending map[string]*htn.Variant // nil value means removed
}

func (s *Sensors) init() {
	if s.data == nil {
		s.data = make(map[string]htn.Variant)
	}
	if s.pending == nil {
		s.pending = make(map[string]*htn.Variant)
	}
}

// Set stages a reading.
func (s *Sensors) Set(key string, value htn.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	s.data[key] = value
	s.pending[key] = &value
}

// SetValue stages a plain Go value, converted with htn.VariantOf.
func (s *Sensors) SetValue(key string, value any) error {
	v, err := htn.VariantOf(value)
	if err != nil {
		return err
	}
	s.Set(key, v)
	return nil
}

// Get returns the latest staged reading for key.
func (s *Sensors) Get(key string) (htn.Variant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Has returns true if key currently holds a reading.
func (s *Sensors) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete stages the removal of key.
func (s *Sensors) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	delete(s.data, key)
	s.pending[key] = nil
}

// Keys returns the keys currently held, sorted.
func (s *Sensors) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.data))
}

// Len returns the number of readings held.
func (s *Sensors) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Snapshot returns a copy of the readings held.
func (s *Sensors) Snapshot() map[string]htn.Variant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil
	}
	return maps.Clone(s.data)
}

// Clear stages the removal of every reading.
func (s *Sensors) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	for k := range s.data {
		s.pending[k] = nil
	}
	clear(s.data)
}

// Pending returns the number of staged changes not yet flushed.
func (s *Sensors) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// Flush applies the staged changes to ctx and reports whether any fact
// actually changed. A change marks ctx dirty, which makes the next planner
// tick replan. Flush must not be called while ctx is planning.
func (s *Sensors) Flush(ctx *htn.Context) bool {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	var changed bool
	for _, key := range slices.Sorted(maps.Keys(pending)) {
		value := pending[key]
		if value == nil {
			if ctx.Has(key) {
				ctx.Remove(key)
				changed = true
			}
			continue
		}
		if equal, ok := ctx.TestValue(key, *value); ok && equal {
			continue
		}
		ctx.Set(key, *value)
		changed = true
	}
	if changed {
		ctx.MarkDirty()
	}
	return changed
}
