// Package debounce provides a bounded, in-memory trailing-edge debounce cache.
//
// Each key remembers when a notification was last delivered. Deliveries that
// arrive inside the cooldown window are not dropped: the cache schedules a
// single retry at the window boundary, replacing any retry installed earlier
// for the same key, so a burst collapses into one delivery carrying the
// latest payload.
package debounce

import (
	"fmt"
	"sync"
	"time"
)

// DefaultCapacity is the number of keys kept before least recently used keys
// are evicted.
const DefaultCapacity = 1000

// Key builds the cache key for a (webhook id, user, game) triple.
func Key(webhookID int64, userID, gameID string) string {
	return fmt.Sprintf("%d:%s:%s", webhookID, userID, gameID)
}

// CancelFunc cancels a scheduled retry. Calling it after the retry has fired
// or has been superseded is a no-op.
type CancelFunc func()

// Entry is a snapshot of the state held for a key.
type Entry struct {
	Key        string
	LastSentAt time.Time
	InFlight   bool
	Pending    bool
}

// Decision is the result of Admit.
type Decision struct {
	// Suppressed is true when the key is still inside its cooldown window.
	// A retry has been scheduled in that case.
	Suppressed bool

	// RetryAt is when the scheduled retry will fire. Zero when not suppressed.
	RetryAt time.Time
}

// Config holds configuration for Cache.
type Config struct {
	// Capacity is the maximum number of keys. Default: DefaultCapacity.
	Capacity int

	// Clock provides time and timers. Default: SystemClock.
	Clock Clock

	// OnEvict is called (outside the lock) with each key evicted by
	// capacity pressure.
	OnEvict func(key string)
}

// Cache is a thread-safe LRU debounce cache.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	lru      *lruList
	capacity int
	clock    Clock
	onEvict  func(key string)
	closed   bool
}

type entry struct {
	lastSentAt time.Time
	inFlight   bool

	// pending is the timer of the single outstanding retry for the key.
	// gen identifies it; a fired timer whose gen no longer matches was
	// superseded and does nothing.
	pending   Timer
	pendingFn func()
	gen       uint64
}

// lruList is a doubly-linked list of keys, most recently used at the head.
type lruList struct {
	head *lruNode
	tail *lruNode
	keys map[string]*lruNode
}

type lruNode struct {
	key  string
	prev *lruNode
	next *lruNode
}

// New creates a Cache.
func New(cfg Config) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	return &Cache{
		entries:  make(map[string]*entry),
		lru:      &lruList{keys: make(map[string]*lruNode)},
		capacity: cfg.Capacity,
		clock:    cfg.Clock,
		onEvict:  cfg.OnEvict,
	}
}

// Clock returns the clock the cache schedules retries on.
func (c *Cache) Clock() Clock {
	return c.clock
}

// Len returns the number of keys currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Check returns the entry for key and marks it as recently used.
func (c *Cache) Check(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	c.lru.touch(key)
	return Entry{
		Key:        key,
		LastSentAt: e.lastSentAt,
		InFlight:   e.inFlight,
		Pending:    e.pending != nil,
	}, true
}

// RecordSend stores a successful delivery time for key, inserting the key if
// needed, and clears the in-flight reservation taken by Admit. A retry that
// was scheduled while the delivery was in flight is kept, so the payload
// that arrived meanwhile still goes out at the end of the new window.
func (c *Cache) RecordSend(key string, at time.Time) {
	evicted := c.recordSend(key, at)
	c.notifyEvicted(evicted)
}

func (c *Cache) recordSend(key string, at time.Time) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, evicted := c.getOrCreateLocked(key)
	e.lastSentAt = at
	e.inFlight = false
	return evicted
}

// ScheduleRetry installs fn to run after delay, cancelling any retry already
// pending for key. At most one retry is pending per key.
func (c *Cache) ScheduleRetry(key string, delay time.Duration, fn func()) CancelFunc {
	cancel, evicted := c.scheduleRetry(key, delay, fn)
	c.notifyEvicted(evicted)
	return cancel
}

func (c *Cache) scheduleRetry(key string, delay time.Duration, fn func()) (CancelFunc, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return func() {}, nil
	}
	e, evicted := c.getOrCreateLocked(key)
	return c.scheduleLocked(key, e, delay, fn), evicted
}

// CancelPending stops the retry pending for key, if any.
func (c *Cache) CancelPending(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.stopPending()
	}
}

// EvictIfStale removes key when its cooldown window has elapsed, that is
// when now >= LastSentAt+interval. It reports whether the key was removed.
func (c *Cache) EvictIfStale(key string, interval time.Duration, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if now.Before(e.lastSentAt.Add(interval)) {
		return false
	}
	c.removeLocked(key)
	return true
}

// Admit decides whether a delivery for key may go out now.
//
// When the key was delivered less than interval ago the delivery is
// suppressed: retry is scheduled for LastSentAt+interval, replacing any
// earlier retry, and the caller must not send. When a delivery for the key
// is still in flight, the retry is scheduled one interval from now and will
// re-check once that delivery has been recorded.
//
// Otherwise any stale entry is dropped and the key is reserved as in flight.
// The caller must follow up with RecordSend on success or Abandon on failure.
// The check and the reservation happen under one lock, so concurrent
// callers for the same key cannot both be admitted.
func (c *Cache) Admit(key string, interval time.Duration, now time.Time, retry func()) Decision {
	d, evicted := c.admit(key, interval, now, retry)
	c.notifyEvicted(evicted)
	return d
}

func (c *Cache) admit(key string, interval time.Duration, now time.Time, retry func()) (Decision, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		var retryAt time.Time
		switch {
		case e.inFlight:
			retryAt = now.Add(interval)
		case !e.lastSentAt.IsZero() && now.Before(e.lastSentAt.Add(interval)):
			retryAt = e.lastSentAt.Add(interval)
		}
		if !retryAt.IsZero() {
			c.lru.touch(key)
			if !c.closed {
				c.scheduleLocked(key, e, retryAt.Sub(now), retry)
			}
			return Decision{Suppressed: true, RetryAt: retryAt}, nil
		}
		c.removeLocked(key)
	}

	e, evicted := c.getOrCreateLocked(key)
	e.inFlight = true
	return Decision{}, evicted
}

// Abandon releases the in-flight reservation taken by Admit after a failed
// delivery. The key is left without a LastSentAt so the next attempt is
// fresh. A retry queued behind the failed delivery is fired immediately.
func (c *Cache) Abandon(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.inFlight {
		return
	}
	e.inFlight = false

	if e.pending != nil && !c.closed {
		c.scheduleLocked(key, e, 0, e.pendingFn)
		return
	}
	if e.lastSentAt.IsZero() {
		c.removeLocked(key)
	}
}

// Sweep removes keys last delivered more than maxAge ago that have neither
// a pending retry nor an in-flight delivery. It returns the number removed.
func (c *Cache) Sweep(maxAge time.Duration, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := now.Add(-maxAge)
	removed := 0
	for key, e := range c.entries {
		if e.pending != nil || e.inFlight {
			continue
		}
		if e.lastSentAt.Before(cutoff) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Close stops every pending retry. Retries scheduled afterwards are ignored.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for _, e := range c.entries {
		e.stopPending()
	}
}

// scheduleLocked replaces the pending retry of e.
func (c *Cache) scheduleLocked(key string, e *entry, delay time.Duration, fn func()) CancelFunc {
	e.stopPending()
	if delay < 0 {
		delay = 0
	}

	e.gen++
	gen := e.gen
	e.pendingFn = fn
	e.pending = c.clock.AfterFunc(delay, func() {
		if !c.claim(key, gen) {
			return
		}
		fn()
	})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if cur, ok := c.entries[key]; ok && cur.gen == gen {
			cur.stopPending()
		}
	}
}

// claim clears the pending slot when the firing timer is still the current
// one for key.
func (c *Cache) claim(key string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.gen != gen || e.pending == nil {
		return false
	}
	e.pending = nil
	e.pendingFn = nil
	return true
}

// getOrCreateLocked returns the entry for key, inserting it (and evicting the
// least recently used key when full) if absent.
func (c *Cache) getOrCreateLocked(key string) (*entry, []string) {
	var evicted []string
	e, ok := c.entries[key]
	if !ok {
		for len(c.entries) >= c.capacity && c.lru.tail != nil {
			victim := c.lru.tail.key
			c.removeLocked(victim)
			evicted = append(evicted, victim)
		}
		e = &entry{}
		c.entries[key] = e
	}
	c.lru.touch(key)
	return e, evicted
}

// removeLocked deletes key and stops its pending retry.
func (c *Cache) removeLocked(key string) {
	if e, ok := c.entries[key]; ok {
		e.stopPending()
		delete(c.entries, key)
	}
	c.lru.remove(key)
}

func (c *Cache) notifyEvicted(keys []string) {
	if c.onEvict == nil {
		return
	}
	for _, k := range keys {
		c.onEvict(k)
	}
}

func (e *entry) stopPending() {
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
		e.pendingFn = nil
	}
}

// touch moves key to the front of the list, adding it if absent.
func (l *lruList) touch(key string) {
	if _, exists := l.keys[key]; exists {
		l.remove(key)
	}

	n := &lruNode{key: key, next: l.head}
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	l.keys[key] = n
}

func (l *lruList) remove(key string) {
	n, exists := l.keys[key]
	if !exists {
		return
	}

	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	delete(l.keys, key)
}
