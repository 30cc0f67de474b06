// Package cache caches raw document-export payloads fetched from the
// index service. Exports are immutable for a given ingestion run, so
// caching is purely a latency concern, never a correctness one.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the byte-payload cache behind the HTTP source provider.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from a document export URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "relato:v1:" + hex.EncodeToString(sum[:])
}
