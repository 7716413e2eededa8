package jobq

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistry_MiddlewareOrder(t *testing.T) {
	reg := NewRegistry()
	var calls []string
	mw := func(name string) Middleware {
		return func(next Func) Func {
			return func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
				calls = append(calls, name+":before")
				v, err := next(ctx, args, kwargs)
				calls = append(calls, name+":after")
				return v, err
			}
		}
	}
	reg.Use(mw("outer"))
	reg.Use(mw("inner"))
	reg.Handle("f", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		calls = append(calls, "handler")
		return "ok", nil
	})

	f, ok := reg.lookup("f")
	require.True(t, ok)
	v, err := reg.wrap(f.exec)(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.Equal(t, []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}, calls)
}

func TestRegistry_HandleReplacesAndOptions(t *testing.T) {
	reg := NewRegistry()
	reg.Handle("f", func(context.Context, []any, map[string]any) (any, error) { return 1, nil })
	reg.Handle("f", func(context.Context, []any, map[string]any) (any, error) { return 2, nil },
		MaxTries(2), JobTimeout(time.Minute), KeepResult(time.Second))
	reg.Handle("g", func(context.Context, []any, map[string]any) (any, error) { return nil, nil })

	names := reg.Names()
	sort.Strings(names)
	require.Equal(t, []string{"f", "g"}, names)

	f, ok := reg.lookup("f")
	require.True(t, ok)
	v, _ := f.exec(context.Background(), nil, nil)
	require.Equal(t, 2, v)
	require.Equal(t, 2, f.maxTries)
	require.Equal(t, time.Minute, f.timeout)
	require.Equal(t, time.Second, f.keepResult)

	_, ok = reg.lookup("missing")
	require.False(t, ok)

	require.Equal(t, time.Minute, reg.maxTimeout(time.Second))
	require.Equal(t, time.Hour, reg.maxTimeout(time.Hour))
}
