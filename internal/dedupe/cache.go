// ABOUTME: Duplicate suppression for redelivered conversational callbacks
// ABOUTME: One atomic check-and-mark call with TTL expiry and size-bounded eviction

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key     string
	expires time.Time
	elem    *list.Element
}

// Cache answers one question for the session router: has this callback ID
// been handled within the TTL? Asking marks the ID, so the call that admits
// the original is the same call that drops its redeliveries. Entries share
// one TTL; when the cache is full the entry closest to expiry is evicted.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // *entry, next to expire at the front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache and starts a background sweeper that drops expired
// entries once a minute.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// SeenOrMark reports whether the key was already marked inside the TTL,
// marking it when not. The check and the mark happen under a single lock
// acquisition, so concurrent callers for the same key admit exactly one.
func (c *Cache) SeenOrMark(key string) bool {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if now.Before(e.expires) {
			return true
		}
		e.expires = now.Add(c.ttl)
		c.order.MoveToBack(e.elem)
		return false
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	e := &entry{key: key, expires: now.Add(c.ttl)}
	e.elem = c.order.PushBack(e)
	c.entries[key] = e
	return false
}

func (c *Cache) evictOldestLocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	e := front.Value.(*entry)
	c.order.Remove(front)
	delete(c.entries, e.key)
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

// sweep drops expired entries from the front of the order list. All entries
// carry the same TTL and refreshes move to the back, so expiry order and
// list order coincide and the walk stops at the first live entry.
func (c *Cache) sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for front := c.order.Front(); front != nil; front = c.order.Front() {
		e := front.Value.(*entry)
		if now.Before(e.expires) {
			return
		}
		c.order.Remove(front)
		delete(c.entries, e.key)
	}
}

// Close stops the sweeper. Safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
