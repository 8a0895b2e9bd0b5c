// Package cache holds a grow-only, lock-free map for values built once and
// then read on every lookup, such as mapping plans keyed by header.
package cache

import "sync/atomic"

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Cache maps keys to values without locks. Readers scan an immutable
// snapshot; writers publish an extended copy with compare-and-swap.
// Entries are never removed.
type Cache[K comparable, V any] struct {
	entries atomic.Pointer[[]entry[K, V]]
}

// New returns an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	c := &Cache[K, V]{}
	c.entries.Store(&[]entry[K, V]{})

	return c
}

// Get returns the value stored for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	return lookup(c.snapshot(), key)
}

// Add stores value for key unless another value got there first, and
// returns the value that is in the cache afterwards.
func (c *Cache[K, V]) Add(key K, value V) V {
	for {
		current := c.entries.Load()

		if existing, ok := lookup(deref(current), key); ok {
			return existing
		}

		next := make([]entry[K, V], len(deref(current)), len(deref(current))+1)
		copy(next, deref(current))
		next = append(next, entry[K, V]{key: key, value: value})

		if c.entries.CompareAndSwap(current, &next) {
			return value
		}
	}
}

// GetOrAdd returns the cached value for key, building and adding it on a
// miss. build may run more than once under contention; one result wins.
func (c *Cache[K, V]) GetOrAdd(key K, build func() (V, error)) (v V, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err = build()
	if err != nil {
		return v, false, err
	}

	return c.Add(key, v), false, nil
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	return len(c.snapshot())
}

func (c *Cache[K, V]) snapshot() []entry[K, V] {
	return deref(c.entries.Load())
}

func deref[K comparable, V any](p *[]entry[K, V]) []entry[K, V] {
	if p == nil {
		return nil
	}

	return *p
}

func lookup[K comparable, V any](entries []entry[K, V], key K) (V, bool) {
	for _, e := range entries {
		if e.key == key {
			return e.value, true
		}
	}

	var zero V

	return zero, false
}
