package repository

import (
	"time"
)

// CacheRepository is a plain string key-value store. Get returns
// apperrors.ErrNotFound for absent keys. A zero expiration stores the
// value without a TTL.
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(keys ...string) error
}
