package jobq

import (
	"context"
	"time"

	"github.com/UniQw/jobq/internal/hctx"
)

// JobIDFromContext returns the id of the job a registered function is running for.
func JobIDFromContext(ctx context.Context) (string, bool) {
	st, ok := hctx.From(ctx)
	if !ok || st == nil {
		return "", false
	}
	return st.JobID, true
}

// JobTryFromContext returns the current attempt number, starting at 1.
// It returns 0 outside a worker.
func JobTryFromContext(ctx context.Context) int {
	st, ok := hctx.From(ctx)
	if !ok || st == nil {
		return 0
	}
	return st.JobTry
}

// QueueNameFromContext returns the queue the running job was taken from.
func QueueNameFromContext(ctx context.Context) string {
	st, ok := hctx.From(ctx)
	if !ok || st == nil {
		return ""
	}
	return st.Queue
}

// EnqueueTimeFromContext returns when the running job was enqueued.
func EnqueueTimeFromContext(ctx context.Context) time.Time {
	st, ok := hctx.From(ctx)
	if !ok || st == nil {
		return time.Time{}
	}
	return st.EnqueueTime
}
