package cache

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// KeyFor builds the cache key for a source prefix and an optional identity.
// Callers validate id before it gets here.
func KeyFor(prefix, id string) string {
	if id == "" {
		return sanitizeKey(prefix)
	}
	return sanitizeKey(prefix + "_" + id)
}

// sanitizeKey ensures the key is safe for use as a filename
func sanitizeKey(key string) string {
	// For very long keys, use hash to avoid filesystem limits
	if len(key) > 200 {
		hash := md5.Sum([]byte(key))
		return fmt.Sprintf("hash_%x", hash)
	}

	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
