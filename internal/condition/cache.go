package condition

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// DefaultCacheSize bounds the shared program cache.
const DefaultCacheSize = 1000

// programs is shared by every Expr and ExprEffect. Behaviours are usually
// instantiated once per agent, so the same expressions compile many times.
var programs = NewProgramCache(DefaultCacheSize)

// SetCacheSize resizes the shared program cache, evicting immediately if it
// shrinks. Sizes below 1 are raised to 1.
func SetCacheSize(size int) { programs.Resize(size) }

// ClearCache empties the shared program cache.
func ClearCache() { programs.Clear() }

// CacheStats reports on the shared program cache.
func CacheStats() (size int, hits, misses int64, ratio float64) { return programs.Stats() }

// ProgramCache is a thread-safe LRU cache of compiled expr-lang programs.
type ProgramCache struct {
	mu        sync.Mutex
	entries   map[string]*list.Element
	lru       *list.List
	maxSize   int
	hitCount  int64
	missCount int64
}

type cached struct {
	key     string
	program *vm.Program
}

// NewProgramCache returns an empty cache holding at most maxSize programs.
func NewProgramCache(maxSize int) *ProgramCache {
	if maxSize < 1 {
		maxSize = DefaultCacheSize
	}
	return &ProgramCache{
		entries: make(map[string]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get returns the program stored under key, marking it most recently used.
func (c *ProgramCache) Get(key string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[key]
	if !ok {
		c.missCount++
		return nil, false
	}
	c.hitCount++
	c.lru.MoveToFront(elem)
	return elem.Value.(*cached).program, true
}

// Put stores program under key, evicting the least recently used entry when
// full.
func (c *ProgramCache) Put(key string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cached).program = program
		return
	}
	c.entries[key] = c.lru.PushFront(&cached{key: key, program: program})
	c.evict()
}

// Resize changes the capacity.
func (c *ProgramCache) Resize(maxSize int) {
	if maxSize < 1 {
		maxSize = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = maxSize
	c.evict()
}

func (c *ProgramCache) evict() {
	for c.lru.Len() > c.maxSize {
		elem := c.lru.Back()
		delete(c.entries, elem.Value.(*cached).key)
		c.lru.Remove(elem)
	}
}

// Clear removes every entry. Hit and miss counters are kept.
func (c *ProgramCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the number of cached programs.
func (c *ProgramCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns the size, hit and miss counts and the hit ratio.
func (c *ProgramCache) Stats() (size int, hits, misses int64, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if total := c.hitCount + c.missCount; total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}
	return c.lru.Len(), c.hitCount, c.missCount, ratio
}

// String implements fmt.Stringer.
func (c *ProgramCache) String() string {
	size, hits, misses, ratio := c.Stats()
	return fmt.Sprintf("ProgramCache{size=%d, hits=%d, misses=%d, hit_ratio=%.2f%%}",
		size, hits, misses, ratio*100)
}
