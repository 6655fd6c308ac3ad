package cache

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMemoryCap = 1000
	defaultMemoryTTL = 24 * time.Hour
	janitorInterval  = 5 * time.Minute
)

type memEntry struct {
	val      interface{}
	deadline time.Time
	touched  time.Time
}

func (e *memEntry) expired(now time.Time) bool { return now.After(e.deadline) }

// MemoryCache is an in-process cache with a size cap. When full, the entry
// with the oldest access time is evicted. A janitor goroutine sweeps expired
// entries until Close is called.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	cap     int
	stop    chan struct{}
	once    sync.Once
}

// MemoryOption configures the in-process cache.
type MemoryOption func(*MemoryCache)

// WithMemoryMaxSize caps the number of entries.
func WithMemoryMaxSize(n int) MemoryOption {
	return func(mc *MemoryCache) {
		if n > 0 {
			mc.cap = n
		}
	}
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	mc := &MemoryCache{
		entries: make(map[string]*memEntry),
		cap:     defaultMemoryCap,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(mc)
	}
	go mc.janitor()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, ok := mc.entries[key]; !ok && len(mc.entries) >= mc.cap {
		mc.evictOldest()
	}
	mc.entries[key] = &memEntry{val: value, deadline: now.Add(ttl), touched: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	e, ok := mc.entries[key]
	if !ok || e.expired(now) {
		if ok {
			delete(mc.entries, key)
		}
		return ErrCacheMiss
	}
	e.touched = now

	switch d := dest.(type) {
	case *string:
		if s, ok := e.val.(string); ok {
			*d = s
			return nil
		}
	case *interface{}:
		*d = e.val
		return nil
	}
	return ErrCacheMiss
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		delete(mc.entries, k)
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	e, ok := mc.entries[key]
	return ok && !e.expired(time.Now()), nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	e, ok := mc.entries[key]
	if !ok {
		return false, nil
	}
	e.deadline = time.Now().Add(ttl)
	return true, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if e, ok := mc.entries[key]; ok && !e.expired(now) {
		return false, nil
	}
	mc.entries[key] = &memEntry{val: "locked", deadline: now.Add(ttl), touched: now}
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Close stops the janitor. Safe to call more than once.
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.stop) })
	return nil
}

// evictOldest removes the least recently touched entry. Caller holds the lock.
func (mc *MemoryCache) evictOldest() {
	var victim string
	var oldest time.Time
	for k, e := range mc.entries {
		if victim == "" || e.touched.Before(oldest) {
			victim = k
			oldest = e.touched
		}
	}
	if victim != "" {
		delete(mc.entries, victim)
	}
}

func (mc *MemoryCache) janitor() {
	t := time.NewTicker(janitorInterval)
	defer t.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case <-t.C:
			now := time.Now()
			mc.mu.Lock()
			for k, e := range mc.entries {
				if e.expired(now) {
					delete(mc.entries, k)
				}
			}
			mc.mu.Unlock()
		}
	}
}
