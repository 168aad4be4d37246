package ports

import "errors"

// Provider failures are never fatal to a solve: callers fall back to cached
// values and then to the estimate provider, flagging the response as degraded.
var (
	ErrProviderUnavailable = errors.New("travel provider unavailable")
	ErrProviderRateLimited = errors.New("travel provider rate limited")
)

// ErrCacheMiss is returned by cache implementations when a key is absent or
// expired.
var ErrCacheMiss = errors.New("cache miss")
