package views

import "sync"

// Collection is a view's local copy of a server collection, keyed by entity
// ID. Patches are optimistic; a Replace from a fresh fetch is the truth.
type Collection[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(T) int64
}

// NewCollection creates an empty collection using id to identify entities
func NewCollection[T any](id func(T) int64) *Collection[T] {
	return &Collection[T]{id: id}
}

// Replace swaps in a freshly fetched list
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T(nil), items...)
}

// Items returns a copy of the list
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Len returns the number of items
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the item with the given id
func (c *Collection[T]) Get(id int64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) index(id int64) int {
	for i := range c.items {
		if c.id(c.items[i]) == id {
			return i
		}
	}
	return -1
}

// Upsert replaces the item with the same id in place, or prepends it
func (c *Collection[T]) Upsert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(c.id(item)); i >= 0 {
		c.items[i] = item
		return
	}
	c.items = append([]T{item}, c.items...)
}

// Append replaces the item with the same id in place, or appends it
func (c *Collection[T]) Append(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(c.id(item)); i >= 0 {
		c.items[i] = item
		return
	}
	c.items = append(c.items, item)
}

// Remove drops the item with the given id, reporting whether it was present
func (c *Collection[T]) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	return true
}

// Patch applies fn to a copy of the item and stores the result
func (c *Collection[T]) Patch(id int64, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return false
	}
	item := c.items[i]
	fn(&item)
	c.items[i] = item
	return true
}

// mergeID adds id to ids with set semantics. The input slice is never
// mutated, so copies handed out by Items stay stable.
func mergeID(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	out := make([]int64, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

func containsID(ids []int64, id int64) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
