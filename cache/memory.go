package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryCache keeps entries in a map. It is safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryCache returns an empty in-memory store.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (mc *MemoryCache) Get(key string) (*Entry, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	e, ok := mc.entries[sanitizeKey(key)]
	if !ok || len(e.Body) == 0 {
		return nil, false
	}
	e.Body = append([]byte(nil), e.Body...)
	return &e, true
}

func (mc *MemoryCache) Put(key string, entry *Entry) error {
	e := Entry{FetchedAt: entry.FetchedAt, Body: append([]byte(nil), entry.Body...)}
	if e.FetchedAt == 0 {
		e.FetchedAt = time.Now().Unix()
	}
	mc.mu.Lock()
	mc.entries[sanitizeKey(key)] = e
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Delete(key string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	key = sanitizeKey(key)
	if _, ok := mc.entries[key]; !ok {
		return false, nil
	}
	delete(mc.entries, key)
	return true, nil
}

func (mc *MemoryCache) Keys(prefix string) ([]string, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	prefix = sanitizeKey(prefix)
	var keys []string
	for k := range mc.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
