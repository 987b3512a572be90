// Package cache implements the small bounded node cache sitting between the
// tree engine and the block store. It coalesces repeated reads of the same
// block and defers writes until the entry is evicted or the cache is
// flushed, with first-in-first-out eviction once it reaches capacity.
//
// The cache is a field owned by a single index handle (see pkg/index), never
// process-wide state: two open indexes never share one.
package cache

import "sync"

// DefaultCapacity matches the reference design's fixed three-slot cache.
const DefaultCapacity = 3

// Loader reads a node from durable storage on a cache miss.
type Loader func(blockID uint64) (NodeLike, error)

// Flusher writes a dirty node back to durable storage, either on eviction
// or on an explicit Flush.
type Flusher func(n NodeLike) error

// NodeLike is the minimal shape the cache needs from a cached value: a
// stable block id to key entries by. pkg/node's Node satisfies this.
type NodeLike interface {
	ID() uint64
}

type entry struct {
	blockID uint64
	node    NodeLike
	dirty   bool
}

// Cache is a fixed-capacity, FIFO-eviction node cache.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  []*entry
	load     Loader
	flush    Flusher
}

// New builds a Cache with the given capacity (DefaultCapacity if cap <= 0),
// reading misses via load and writing evicted/flushed dirty entries via
// flush.
func New(capacity int, load Loader, flush Flusher) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{capacity: capacity, load: load, flush: flush}
}

func (c *Cache) find(blockID uint64) *entry {
	for _, e := range c.entries {
		if e.blockID == blockID {
			return e
		}
	}
	return nil
}

// evictOldest writes back slot 0 if dirty and drops it, shifting the
// remaining entries down one position.
func (c *Cache) evictOldest() error {
	oldest := c.entries[0]
	if oldest.dirty {
		if err := c.flush(oldest.node); err != nil {
			return err
		}
	}
	c.entries = c.entries[1:]
	return nil
}

// Read returns the cached node for blockID, loading it on a miss. A miss
// while the cache is already full evicts (and, if dirty, flushes) the oldest
// entry first.
func (c *Cache) Read(blockID uint64) (NodeLike, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.find(blockID); e != nil {
		return e.node, nil
	}

	if len(c.entries) == c.capacity {
		if err := c.evictOldest(); err != nil {
			return nil, err
		}
	}

	n, err := c.load(blockID)
	if err != nil {
		return nil, err
	}
	c.entries = append(c.entries, &entry{blockID: blockID, node: n})
	return n, nil
}

// Write stores n in the cache and marks it dirty, inserting it (evicting
// the oldest entry if necessary) if it isn't already present.
func (c *Cache) Write(n NodeLike) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.find(n.ID()); e != nil {
		e.node = n
		e.dirty = true
		return nil
	}

	if len(c.entries) == c.capacity {
		if err := c.evictOldest(); err != nil {
			return err
		}
	}

	c.entries = append(c.entries, &entry{blockID: n.ID(), node: n, dirty: true})
	return nil
}

// MarkDirty flags the cached entry for blockID as needing write-back, if
// present. It is a no-op if the block isn't cached.
func (c *Cache) MarkDirty(blockID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.find(blockID); e != nil {
		e.dirty = true
	}
}

// Flush writes back every dirty entry and resets the cache to empty.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.dirty {
			if err := c.flush(e.node); err != nil {
				return err
			}
			e.dirty = false
		}
	}
	c.entries = c.entries[:0]
	return nil
}
