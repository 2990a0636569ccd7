package internal

import "context"

// ListCache is the slice of the cache the listing services depend on. The cache
// package provides the Redis-backed implementation.
type ListCache interface {
	// Get loads the value stored under the given key into dest. The second
	// return value reports whether the key was found.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Set stores the given value under the given key
	Set(ctx context.Context, key string, value interface{})
	// Invalidate removes all entries matching the given key pattern
	Invalidate(ctx context.Context, pattern string)
}
