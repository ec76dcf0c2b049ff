package providers

import (
	"context"
	"errors"
)

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

// SessionUserKey is where a console session's logged-in user record lives
func SessionUserKey(sessionID string) string {
	return "session:" + sessionID + ":user"
}

// SessionPrefsKey is where a session's last date/range/hospital choice lives
func SessionPrefsKey(sessionID string) string {
	return "session:" + sessionID + ":prefs"
}

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")
