// Package cache provides key/value persistence for fetched records with
// TTL-based freshness and stale reads.
package cache

import (
	"encoding/json"
	"time"
)

// Entry represents a cached record with the time it was fetched.
type Entry struct {
	FetchedAt int64           `json:"fetched_at"`
	Body      json.RawMessage `json:"body"`
}

// Reader defines the interface for reading cache entries
type Reader interface {
	// Get returns the stored entry regardless of its age. Missing or
	// undecodable values report false.
	Get(key string) (*Entry, bool)
}

// Writer defines the interface for writing cache entries
type Writer interface {
	// Put replaces the value stored under key.
	Put(key string, entry *Entry) error
}

// Deleter removes entries.
type Deleter interface {
	// Delete removes key and reports whether a value existed.
	Delete(key string) (bool, error)
}

// Lister enumerates stored keys.
type Lister interface {
	// Keys returns every stored key starting with prefix.
	Keys(prefix string) ([]string, error)
}

// Store is the main interface that combines all cache operations
type Store interface {
	Reader
	Writer
	Deleter
	Lister
}

// IsFresh reports whether e was fetched less than ttl before now. Entries
// without a fetch time are never fresh.
func IsFresh(e *Entry, ttl time.Duration, now time.Time) bool {
	if e == nil || e.FetchedAt <= 0 {
		return false
	}
	return now.Unix()-e.FetchedAt < int64(ttl/time.Second)
}
