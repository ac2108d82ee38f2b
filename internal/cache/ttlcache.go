// Package cache provides the shared in-memory score caches: TTL-bounded,
// size-bounded, FIFO-evicted maps safe for concurrent queries.
package cache

import (
	"container/list"
	"hash/fnv"
	"sync"
	"time"
)

// defaultShards spreads lock contention across unrelated keys. Small
// caches collapse to a single shard so capacity and FIFO order stay
// exact.
const defaultShards = 16

// TTL is a sharded cache keyed by string. Expired entries are treated
// as misses and removed on lookup; at capacity the oldest entry by
// insertion time is evicted. Access never extends an entry's life.
type TTL[V any] struct {
	shards []*shard[V]
	ttl    time.Duration
	now    func() time.Time
}

type shard[V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*entry[V]
	order    *list.List // of string keys, front = oldest insertion
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
	elem       *list.Element
}

// NewTTL creates a cache holding at most capacity entries for at most
// ttl each. A non-positive capacity yields a nil cache, meaning
// caching is disabled and every lookup misses.
func NewTTL[V any](capacity int, ttl time.Duration) *TTL[V] {
	if capacity <= 0 {
		return nil
	}

	nshards := defaultShards
	if capacity < defaultShards*8 {
		nshards = 1
	}
	perShard := capacity / nshards
	if perShard < 1 {
		perShard = 1
	}

	shards := make([]*shard[V], nshards)
	for i := range shards {
		shards[i] = &shard[V]{
			capacity: perShard,
			entries:  make(map[string]*entry[V], perShard),
			order:    list.New(),
		}
	}
	return &TTL[V]{shards: shards, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (c *TTL[V]) WithClock(now func() time.Time) *TTL[V] {
	c.now = now
	return c
}

// Get returns the cached value if present and not expired. An expired
// entry is removed and reported as a miss.
func (c *TTL[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}

	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(e.insertedAt) >= c.ttl {
		s.remove(key, e)
		return zero, false
	}
	return e.value, true
}

// Set inserts or replaces a value, refreshing its insertion time. When
// the shard is at capacity, its oldest entry is evicted first.
func (c *TTL[V]) Set(key string, value V) {
	if c == nil {
		return
	}

	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.value = value
		e.insertedAt = c.now()
		s.order.MoveToBack(e.elem)
		return
	}

	if len(s.entries) >= s.capacity {
		if oldest := s.order.Front(); oldest != nil {
			key := oldest.Value.(string)
			s.remove(key, s.entries[key])
		}
	}

	s.entries[key] = &entry[V]{
		value:      value,
		insertedAt: c.now(),
		elem:       s.order.PushBack(key),
	}
}

// Len returns the number of live entries, counting expired-but-unread
// entries until a lookup removes them.
func (c *TTL[V]) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

func (c *TTL[V]) shardFor(key string) *shard[V] {
	if len(c.shards) == 1 {
		return c.shards[0]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

func (s *shard[V]) remove(key string, e *entry[V]) {
	if e == nil {
		return
	}
	s.order.Remove(e.elem)
	delete(s.entries, key)
}
