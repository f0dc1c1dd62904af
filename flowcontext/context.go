// Package flowcontext implements the shared mutable key/value map that
// flows through a chain of tasks. Unlike an immutable snapshot, Context is
// meant to be read and written in place by successive task work steps; it
// only guards against concurrent access, not against lost updates from
// sibling tasks in the same parallel group.
package flowcontext

import (
	"fmt"
	"maps"
	"sync"
)

// Context is a string-keyed map shared across the tasks of a chain. A zero
// Context is not usable; construct one with New.
type Context struct {
	mu   sync.RWMutex
	data map[string]any
}

// New returns an empty Context.
func New() *Context {
	return &Context{data: make(map[string]any)}
}

// FromMap returns a Context seeded with a copy of seed.
func FromMap(seed map[string]any) *Context {
	c := New()
	maps.Copy(c.data, seed)
	return c
}

// Get returns the value stored under key and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Set stores value under key, overwriting any existing entry.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// Delete removes key, if present.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Has reports whether key is present.
func (c *Context) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[key]
	return ok
}

// Keys returns the set of keys currently present, in no particular order.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a shallow copy of the underlying map, safe to retain
// after the Context continues to mutate (e.g. for embedding in a Result).
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.data))
	maps.Copy(out, c.data)
	return out
}

// Merge copies every entry of other into c, overwriting on key collision.
func (c *Context) Merge(other map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	maps.Copy(c.data, other)
}

// As fetches key from c and type-asserts it to T. It returns an error,
// rather than panicking, when the key is absent or holds a different type —
// the typical path for tasks reading attributes produced by an earlier step.
func As[T any](c *Context, key string) (T, error) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, fmt.Errorf("flowcontext: key %q not set", key)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("flowcontext: key %q holds %T, not %T", key, v, zero)
	}
	return typed, nil
}
