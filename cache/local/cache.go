package local

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a key or member does not exist.
var ErrNotFound = errors.New("local cache: not found")

// Config configures the LocalCache.
type Config struct {
	// GCInterval controls how often expired KV entries are swept.
	GCInterval time.Duration
}

type entry struct {
	value    string
	expireAt time.Time // zero = no expiry
}

func (e *entry) expired() bool {
	return !e.expireAt.IsZero() && time.Now().After(e.expireAt)
}

type zmember struct {
	member string
	score  float64
}

// LocalCache is an in-process Cache implementation used when no Redis
// address is configured. Safe for concurrent use.
type LocalCache struct {
	mu     sync.RWMutex
	kv     map[string]*entry
	zsets  map[string][]zmember
	stopGC chan struct{}
}

// NewCache creates a LocalCache and starts its GC sweeper.
func NewCache(cfg Config) *LocalCache {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		kv:     make(map[string]*entry),
		zsets:  make(map[string][]zmember),
		stopGC: make(chan struct{}),
	}
	go c.runGC(interval)
	return c
}

// Close stops the GC sweeper.
func (c *LocalCache) Close() {
	select {
	case <-c.stopGC:
	default:
		close(c.stopGC)
	}
}

func (c *LocalCache) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for k, e := range c.kv {
				if e.expired() {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.kv[key]
	if !ok || e.expired() {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := &entry{value: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.kv[key] = e
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.kv, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.kv[key]
	return ok && !e.expired(), nil
}

func (c *LocalCache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.kv[key]; ok && !e.expired() {
		return false, nil
	}
	e := &entry{value: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	c.kv[key] = e
	return true, nil
}

func (c *LocalCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.kv[key]
	if !ok || e.expired() {
		return ErrNotFound
	}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	} else {
		e.expireAt = time.Time{}
	}
	return nil
}

func (c *LocalCache) ZAdd(_ context.Context, key string, score float64, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	zs := c.zsets[key]
	for i := range zs {
		if zs[i].member == member {
			zs[i].score = score
			return nil
		}
	}
	c.zsets[key] = append(zs, zmember{member: member, score: score})
	return nil
}

func (c *LocalCache) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.RLock()
	zs := append([]zmember(nil), c.zsets[key]...)
	c.mu.RUnlock()

	sort.SliceStable(zs, func(i, j int) bool { return zs[i].score > zs[j].score })

	n := int64(len(zs))
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return nil, nil
	}
	out := make([]string, 0, stop-start+1)
	for _, m := range zs[start : stop+1] {
		out = append(out, m.member)
	}
	return out, nil
}

func (c *LocalCache) ZScore(_ context.Context, key, member string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.zsets[key] {
		if m.member == member {
			return m.score, nil
		}
	}
	return 0, ErrNotFound
}
