package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// promoteOneScript atomically moves one due item from a delayed ZSET to a pending LIST.
// It returns the moved member on success, or false/nil if none moved.
var promoteOneScript = redis.NewScript(`
local dkey = KEYS[1]
local pkey = KEYS[2]
local now  = ARGV[1]
local items = redis.call('ZRANGEBYSCORE', dkey, '-inf', now, 'LIMIT', 0, 1)
if #items == 0 then return false end
local m = items[1]
local rem = redis.call('ZREM', dkey, m)
if rem == 1 then
  redis.call('LPUSH', pkey, m)
  return m
end
return false
`)

// Redis implements Store on top of a go-redis client.
type Redis struct {
	rdb redis.UniversalClient
}

// NewRedis wraps a Redis client.
func NewRedis(rdb redis.UniversalClient) *Redis {
	return &Redis{rdb: rdb}
}

// Client exposes the underlying Redis client.
func (r *Redis) Client() redis.UniversalClient { return r.rdb }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Keys walks the keyspace with SCAN so large databases are not blocked.
func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := r.rdb.Scan(ctx, 0, prefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Redis) Push(ctx context.Context, list, member string) error {
	return r.rdb.LPush(ctx, list, member).Err()
}

func (r *Redis) Pop(ctx context.Context, list string) (string, error) {
	v, err := r.rdb.RPop(ctx, list).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (r *Redis) Len(ctx context.Context, list string) (int64, error) {
	return r.rdb.LLen(ctx, list).Result()
}

func (r *Redis) Range(ctx context.Context, list string) ([]string, error) {
	vals, err := r.rdb.LRange(ctx, list, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	// LPUSH stores newest first; callers expect enqueue order.
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
	return vals, nil
}

func (r *Redis) Schedule(ctx context.Context, zset, member string, at time.Time) error {
	return r.rdb.ZAdd(ctx, zset, redis.Z{Score: float64(at.UnixMilli()), Member: member}).Err()
}

func (r *Redis) ScheduledAt(ctx context.Context, zset, member string) (time.Time, error) {
	score, err := r.rdb.ZScore(ctx, zset, member).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(int64(score)), nil
}

func (r *Redis) Scheduled(ctx context.Context, zset string) ([]string, error) {
	return r.rdb.ZRange(ctx, zset, 0, -1).Result()
}

func (r *Redis) PromoteDue(ctx context.Context, zset, list string, now time.Time, limit int) (int, error) {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	moved := 0
	for moved < limit {
		res, err := promoteOneScript.Run(ctx, r.rdb, []string{zset, list}, ms).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, err
		}
		if res == nil || res == false {
			break
		}
		moved++
	}
	return moved, nil
}
