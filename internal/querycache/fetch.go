package querycache

import (
	"context"
	"fmt"
)

// Fetch returns the cached value for key, or calls fetch, stores the result
// and returns it. A cached value of another type is treated as a miss.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Read(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	c.Write(key, v)
	return v, nil
}

// Stale returns the last value stored for key, fresh or not
func Stale[T any](c *Cache, key Key) (T, bool) {
	var zero T
	v, ok := c.ReadStale(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
