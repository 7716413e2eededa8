package jobq

import (
	"context"
	"testing"
	"time"

	"github.com/UniQw/jobq/internal/hctx"
	"github.com/stretchr/testify/require"
)

func TestHandlerCtx_NoState(t *testing.T) {
	ctx := context.Background()
	id, ok := JobIDFromContext(ctx)
	require.False(t, ok)
	require.Empty(t, id)
	require.Zero(t, JobTryFromContext(ctx))
	require.Empty(t, QueueNameFromContext(ctx))
	require.True(t, EnqueueTimeFromContext(ctx).IsZero())
}

func TestHandlerCtx_WithState(t *testing.T) {
	et := time.UnixMilli(1730000000000)
	ctx := hctx.WithState(context.Background(), &hctx.State{JobID: "j1", JobTry: 2, Queue: "q", EnqueueTime: et})

	id, ok := JobIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "j1", id)
	require.Equal(t, 2, JobTryFromContext(ctx))
	require.Equal(t, "q", QueueNameFromContext(ctx))
	require.Equal(t, et, EnqueueTimeFromContext(ctx))
}
