package jobq

import (
	"github.com/UniQw/jobq/internal/store"
	"github.com/redis/go-redis/v9"
)

// Store is the key-value backend jobs, claims, and results live in.
// NewRedisStore is the production implementation.
type Store = store.Store

// ErrKeyNotFound is returned by Store.Get and Store.Pop when nothing is stored.
var ErrKeyNotFound = store.ErrNotFound

// NewRedisStore adapts a go-redis client to Store.
func NewRedisStore(rdb redis.UniversalClient) Store {
	return store.NewRedis(rdb)
}
