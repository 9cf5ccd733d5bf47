// Package cache stores computed layouts and rendered artifacts.
//
// Three backends implement [Cache]: [NullCache] (caching disabled),
// [FileCache] for the CLI, and [RedisCache] for the HTTP server. Keys come
// from a [Keyer], so every backend shares one key scheme:
//
//	layout:<sha256(document, policy, solver)>
//	artifact:<sha256(layout hash, format)>
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry. A miss is reported through the
// bool result, never as an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Backend names a Cache implementation.
type Backend string

const (
	BackendNone  Backend = "none"
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
)

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendNone, BackendFile, BackendRedis:
		return true
	}
	return false
}

// Options select and configure a backend for Open.
type Options struct {
	Backend  Backend
	Dir      string // file backend; DefaultDir when empty
	RedisURL string // redis backend
	Prefix   string // prepended to every key by the redis backend
}

// Open returns the backend described by opts. An empty backend disables
// caching.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case BackendRedis:
		return NewRedisCache(ctx, opts.RedisURL, opts.Prefix)
	}
	return nil, &UnknownBackendError{Backend: opts.Backend}
}

// UnknownBackendError is returned by Open for an unrecognized backend name.
type UnknownBackendError struct{ Backend Backend }

func (e *UnknownBackendError) Error() string {
	return "unknown cache backend " + string(e.Backend) + " (want none, file or redis)"
}
