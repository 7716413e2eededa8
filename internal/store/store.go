package store

//go:generate mockgen -destination=../mocks/mock_store.go -package=mocks github.com/UniQw/jobq/internal/store Store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get and Pop when the key or list is empty.
var ErrNotFound = errors.New("store: key not found")

// Store is the key-value surface the job lifecycle is built on. Every
// operation is expected to be atomic for a single key; nothing here spans
// keys transactionally except PromoteDue.
type Store interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value at key. A ttl <= 0 keeps the key forever.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Delete removes the keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys lists every key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Push appends member to the head of list.
	Push(ctx context.Context, list, member string) error
	// Pop removes and returns the oldest member of list, or ErrNotFound.
	Pop(ctx context.Context, list string) (string, error)
	// Len returns the number of members in list.
	Len(ctx context.Context, list string) (int64, error)
	// Range returns list members oldest first.
	Range(ctx context.Context, list string) ([]string, error)

	// Schedule adds member to the sorted set zset with at as its score.
	Schedule(ctx context.Context, zset, member string, at time.Time) error
	// ScheduledAt returns the score of member in zset, or ErrNotFound.
	ScheduledAt(ctx context.Context, zset, member string) (time.Time, error)
	// Scheduled returns every member of zset ordered by score.
	Scheduled(ctx context.Context, zset string) ([]string, error)
	// PromoteDue moves up to limit members of zset whose score is <= now onto
	// list and returns how many were moved.
	PromoteDue(ctx context.Context, zset, list string, now time.Time, limit int) (int, error)
}
