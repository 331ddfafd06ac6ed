// Package directory resolves attendee names to calendar identifiers.
package directory

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrNotFound is returned when a name has no directory entry.
var ErrNotFound = errors.New("attendee not found in directory")

// Resolver maps a free-text attendee name to a directory identifier.
type Resolver interface {
	ResolveAttendee(ctx context.Context, name string) (string, error)
}

// StaticResolver resolves against a fixed name -> identifier table,
// case-insensitively. It backs the configured DIRECTORY map.
type StaticResolver struct {
	entries map[string]string
}

func NewStaticResolver(entries map[string]string) *StaticResolver {
	normalized := make(map[string]string, len(entries))
	for name, id := range entries {
		normalized[strings.ToLower(strings.TrimSpace(name))] = id
	}
	return &StaticResolver{entries: normalized}
}

func (r *StaticResolver) ResolveAttendee(_ context.Context, name string) (string, error) {
	id, ok := r.entries[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

// CachedResolver wraps another Resolver with a read-mostly cache. Lookups
// are served from the cache when present; misses fall through and populate
// it. Stale entries are acceptable and simply retried on miss.
type CachedResolver struct {
	inner Resolver

	mu    sync.RWMutex
	cache map[string]string
}

func NewCachedResolver(inner Resolver) *CachedResolver {
	return &CachedResolver{inner: inner, cache: make(map[string]string)}
}

func (r *CachedResolver) ResolveAttendee(ctx context.Context, name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	r.mu.RLock()
	id, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	id, err := r.inner.ResolveAttendee(ctx, name)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[key] = id
	r.mu.Unlock()
	return id, nil
}

// Invalidate drops one cached entry, forcing the next lookup through.
func (r *CachedResolver) Invalidate(name string) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	delete(r.cache, key)
	r.mu.Unlock()
}
