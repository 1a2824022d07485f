// Package cacheutil holds the small TTL cache helpers shared by cached
// repositories.
package cacheutil

import (
	"sync"
	"time"
)

// WriteThrough runs a write and invalidates the cache only if it succeeded.
func WriteThrough(invalidate func(), operation func() error) error {
	if err := operation(); err != nil {
		return err
	}
	invalidate()
	return nil
}

// CachedValue is a value and the time it was read from the store.
type CachedValue[T any] struct {
	Value     T
	FetchedAt time.Time
}

// Fresh reports whether the value is younger than ttl at now.
func (c CachedValue[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return !c.FetchedAt.IsZero() && now.Sub(c.FetchedAt) < ttl
}

// Lookup returns a fresh entry from a keyed cache. Callers hold the lock.
func Lookup[K comparable, T any](cache map[K]CachedValue[T], key K, now time.Time, ttl time.Duration) (T, bool) {
	if entry, ok := cache[key]; ok && entry.Fresh(now, ttl) {
		return entry.Value, true
	}
	var zero T
	return zero, false
}

// ReadThrough returns a cached value or fetches and stores a new one.
//
// checkCache runs under the read lock first, then again under the write lock
// so that concurrent misses for the same key trigger a single fetch.
// fetchAndCache runs under the write lock and must store what it returns.
func ReadThrough[T any](
	mu *sync.RWMutex,
	checkCache func(now time.Time) (T, bool),
	fetchAndCache func(now time.Time) (T, error),
) (T, error) {
	mu.RLock()
	if value, ok := checkCache(time.Now()); ok {
		mu.RUnlock()
		return value, nil
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Another goroutine may have filled the entry between the two locks.
	now := time.Now()
	if value, ok := checkCache(now); ok {
		return value, nil
	}
	return fetchAndCache(now)
}
