package cache

import (
	"crypto/sha256"
	"sync"
)

// ContentCache maps the hash of a named content to a value computed from it, it is used to avoid
// parsing unchanged files again in watch mode.
type ContentCache[T any] struct {
	entries map[[32]byte]*T
	lock    sync.Mutex
}

func NewContentCache[T any]() *ContentCache[T] {
	return &ContentCache[T]{
		entries: make(map[[32]byte]*T, 0),
	}
}

func contentKey(name string, content []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(content)

	var key [32]byte
	h.Sum(key[:0])
	return key
}

func (c *ContentCache[T]) InvalidateAllEntries() {
	c.lock.Lock()
	defer c.lock.Unlock()
	clear(c.entries)
}

func (c *ContentCache[T]) Get(name string, content []byte) (*T, bool) {
	key := contentKey(name, content)
	c.lock.Lock()
	defer c.lock.Unlock()
	value, ok := c.entries[key]
	return value, ok
}

func (c *ContentCache[T]) Put(name string, content []byte, value *T) {
	key := contentKey(name, content)
	c.lock.Lock()
	defer c.lock.Unlock()
	c.entries[key] = value
}

func (c *ContentCache[T]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.entries)
}
