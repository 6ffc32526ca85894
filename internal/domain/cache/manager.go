package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Options configures a Manager.
type Options struct {
	// Clock is the time source for expiry checks. Defaults to SystemClock.
	Clock Clock
	// Observer, when set, is notified of lookups and invalidations.
	Observer Observer
}

// Manager is a set of independent keyed pools, each with its own default policy.
// It is safe for concurrent use by multiple goroutines.
type Manager[V any] struct {
	mu       sync.Mutex
	pools    map[PoolName]*pool[V]
	clock    Clock
	observer Observer
}

type pool[V any] struct {
	cfg     PoolConfig
	entries map[string]*Entry[V]
}

// NewManager creates a Manager with one pool per entry in pools.
// AllPools is not a valid pool name and is ignored.
func NewManager[V any](pools map[PoolName]PoolConfig, opts Options) *Manager[V] {
	m := &Manager[V]{
		pools:    make(map[PoolName]*pool[V], len(pools)),
		clock:    opts.Clock,
		observer: opts.Observer,
	}
	if m.clock == nil {
		m.clock = SystemClock{}
	}
	for name, cfg := range pools {
		if name == AllPools || name == "" {
			continue
		}
		m.pools[name] = &pool[V]{cfg: cfg, entries: make(map[string]*Entry[V])}
	}
	return m
}

// Get returns the value stored under key if it is still readable.
// An expired entry is deleted as a side effect. Unknown pools and keys that were
// never set both report a miss.
func (m *Manager[V]) Get(name PoolName, key string) (V, bool) {
	var zero V

	m.mu.Lock()
	p, ok := m.pools[name]
	if !ok {
		m.mu.Unlock()
		m.notifyLookup(name, false)
		return zero, false
	}
	e, ok := p.entries[key]
	if ok && !e.Readable(m.clock.Now()) {
		delete(p.entries, key)
		ok = false
	}
	m.mu.Unlock()

	m.notifyLookup(name, ok)
	if !ok {
		return zero, false
	}
	return e.Value, true
}

// Set stores value under key with the given policy, replacing any existing entry.
func (m *Manager[V]) Set(name PoolName, key string, value V, policy Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[name]
	if !ok {
		return ErrUnknownPool
	}

	now := m.clock.Now()
	if _, exists := p.entries[key]; !exists && p.cfg.MaxEntries > 0 && len(p.entries) >= p.cfg.MaxEntries {
		p.makeRoom(now)
	}
	p.entries[key] = &Entry[V]{Value: value, StoredAt: now, Policy: policy}
	return nil
}

// SetDefault stores value under key using the pool's default TTL.
func (m *Manager[V]) SetDefault(name PoolName, key string, value V) error {
	policy, ok := m.DefaultPolicy(name)
	if !ok {
		return ErrUnknownPool
	}
	return m.Set(name, key, value, policy)
}

// DefaultPolicy returns the TTL policy configured for the pool.
func (m *Manager[V]) DefaultPolicy(name PoolName) (Policy, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[name]
	if !ok {
		return Policy{}, false
	}
	return TTL(p.cfg.DefaultTTL), true
}

// Invalidate deletes every entry whose key contains pattern from the named pool,
// or from every pool when name is AllPools. An empty pattern matches every key.
// It returns the number of entries removed.
func (m *Manager[V]) Invalidate(name PoolName, pattern string) int {
	removed := make(map[PoolName]int)

	m.mu.Lock()
	for pn, p := range m.pools {
		if name != AllPools && pn != name {
			continue
		}
		for key := range p.entries {
			if strings.Contains(key, pattern) {
				delete(p.entries, key)
				removed[pn]++
			}
		}
	}
	m.mu.Unlock()

	total := 0
	for pn, n := range removed {
		total += n
		if m.observer != nil {
			m.observer.OnInvalidate(pn, n)
		}
	}
	return total
}

// Clear drops every entry of every pool.
func (m *Manager[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pools {
		p.entries = make(map[string]*Entry[V])
	}
}

// Len returns the number of entries held by the pool, including expired entries
// that have not been looked up yet.
func (m *Manager[V]) Len(name PoolName) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[name]
	if !ok {
		return 0
	}
	return len(p.entries)
}

// Pools returns the configured pool names in sorted order.
func (m *Manager[V]) Pools() []PoolName {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]PoolName, 0, len(m.pools))
	for name := range m.pools {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (m *Manager[V]) notifyLookup(name PoolName, hit bool) {
	if m.observer != nil {
		m.observer.OnLookup(name, hit)
	}
}

// makeRoom drops expired entries and, if the pool is still full, the oldest one.
// Must be called with the manager lock held.
func (p *pool[V]) makeRoom(now time.Time) {
	for key, e := range p.entries {
		if !e.Readable(now) {
			delete(p.entries, key)
		}
	}
	if len(p.entries) < p.cfg.MaxEntries {
		return
	}

	var oldestKey string
	var oldest *Entry[V]
	for key, e := range p.entries {
		if oldest == nil || e.StoredAt.Before(oldest.StoredAt) {
			oldest = e
			oldestKey = key
		}
	}
	if oldest != nil {
		delete(p.entries, oldestKey)
	}
}
