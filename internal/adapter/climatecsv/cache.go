package climatecsv

import (
	"context"
	"sync"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// CachedReader wraps a CellReader with an in-memory LRU cache keyed by
// station, so cells sharing a station parse its file once. Cached slices are
// shared between callers and must not be modified.
type CachedReader struct {
	inner CellReader
	cache *lruCache[string, []domain.ClimateRecord]
}

// NewCachedReader creates a cache decorator around a reader.
func NewCachedReader(inner CellReader, maxEntries int) *CachedReader {
	return &CachedReader{
		inner: inner,
		cache: newLRUCache[string, []domain.ClimateRecord](max(1, maxEntries)),
	}
}

func (c *CachedReader) ReadCell(ctx context.Context, cell domain.Cell) ([]domain.ClimateRecord, error) {
	key := cell.StationID()
	if records, ok := c.cache.get(key); ok {
		return records, nil
	}
	records, err := c.inner.ReadCell(ctx, cell)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, records)
	return records, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[K comparable, V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[K]*entry[K, V]
	head       *entry[K, V] // most recently used
	tail       *entry[K, V] // least recently used
}

type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	return &lruCache[K, V]{
		maxEntries: maxEntries,
		entries:    make(map[K]*entry[K, V]),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[K, V]) put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[K, V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[K, V]) moveToFront(e *entry[K, V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[K, V]) addToFront(e *entry[K, V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[K, V]) remove(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[K, V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
