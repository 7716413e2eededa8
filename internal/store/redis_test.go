package store

import (
	"context"
	"sort"
	"testing"
	"time"

	mrd "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newMini(t *testing.T) (*Redis, *mrd.Miniredis, func()) {
	t.Helper()
	s := mrd.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	return NewRedis(rdb), s, func() { _ = rdb.Close(); s.Close() }
}

func TestRedis_GetSetDelete(t *testing.T) {
	st, _, done := newMini(t)
	defer done()
	ctx := context.Background()

	_, err := st.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Set(ctx, "k", []byte("v"), 0))
	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	ok, err := st.Exists(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, st.Delete(ctx, "k", "missing"))
	ok, err = st.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.Delete(ctx))
}

func TestRedis_SetNX_TTL(t *testing.T) {
	st, s, done := newMini(t)
	defer done()
	ctx := context.Background()

	ok, err := st.SetNX(ctx, "lock", []byte("1"), 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 5*time.Second, s.TTL("lock"))

	ok, err = st.SetNX(ctx, "lock", []byte("2"), 5*time.Second)
	require.NoError(t, err)
	require.False(t, ok)

	s.FastForward(6 * time.Second)
	ok, err = st.SetNX(ctx, "lock", []byte("3"), 0)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedis_Keys(t *testing.T) {
	st, _, done := newMini(t)
	defer done()
	ctx := context.Background()

	for _, k := range []string{"p:a", "p:b", "other:c"} {
		require.NoError(t, st.Set(ctx, k, []byte("x"), 0))
	}
	keys, err := st.Keys(ctx, "p:")
	require.NoError(t, err)
	sort.Strings(keys)
	require.Equal(t, []string{"p:a", "p:b"}, keys)
}

func TestRedis_ListFIFO(t *testing.T) {
	st, _, done := newMini(t)
	defer done()
	ctx := context.Background()

	_, err := st.Pop(ctx, "l")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Push(ctx, "l", "1"))
	require.NoError(t, st.Push(ctx, "l", "2"))
	n, err := st.Len(ctx, "l")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	all, err := st.Range(ctx, "l")
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, all)

	v, err := st.Pop(ctx, "l")
	require.NoError(t, err)
	require.Equal(t, "1", v)
	v, err = st.Pop(ctx, "l")
	require.NoError(t, err)
	require.Equal(t, "2", v)
}

func TestRedis_ScheduleAndPromote(t *testing.T) {
	st, _, done := newMini(t)
	defer done()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, st.Schedule(ctx, "z", "due", now.Add(-time.Second)))
	require.NoError(t, st.Schedule(ctx, "z", "later", now.Add(time.Hour)))

	at, err := st.ScheduledAt(ctx, "z", "later")
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour).UnixMilli(), at.UnixMilli())
	_, err = st.ScheduledAt(ctx, "z", "nope")
	require.ErrorIs(t, err, ErrNotFound)

	moved, err := st.PromoteDue(ctx, "z", "l", now, 10)
	require.NoError(t, err)
	require.Equal(t, 1, moved)

	v, err := st.Pop(ctx, "l")
	require.NoError(t, err)
	require.Equal(t, "due", v)

	left, err := st.Scheduled(ctx, "z")
	require.NoError(t, err)
	require.Equal(t, []string{"later"}, left)
}

func TestRedis_PromoteDue_Errors(t *testing.T) {
	st, s, done := newMini(t)
	defer done()
	ctx := context.Background()

	require.NoError(t, s.Set("z", "not a zset"))
	_, err := st.PromoteDue(ctx, "z", "l", time.Now(), 10)
	require.Error(t, err)

	s.Close()
	_, err = st.PromoteDue(ctx, "other", "l", time.Now(), 10)
	require.Error(t, err)
}

func TestRedis_PromoteDue_Empty(t *testing.T) {
	st, _, done := newMini(t)
	defer done()

	moved, err := st.PromoteDue(context.Background(), "z", "l", time.Now(), 10)
	require.NoError(t, err)
	require.Equal(t, 0, moved)
}
