package cache

import (
	"encoding/json"
	"errors"
)

var (
	// ErrCacheNotFound is returned when a cache entry is not found
	ErrCacheNotFound = errors.New("cache entry not found")
)

// Load decodes the record stored under key into out and returns the entry
// it came from.
func Load(s Reader, key string, out any) (*Entry, error) {
	entry, ok := s.Get(key)
	if !ok {
		return nil, ErrCacheNotFound
	}
	if err := json.Unmarshal(entry.Body, out); err != nil {
		return nil, err
	}
	return entry, nil
}

// Save encodes record and stores it under key with the given fetch time.
func Save(s Writer, key string, fetchedAt int64, record any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.Put(key, &Entry{FetchedAt: fetchedAt, Body: body})
}
