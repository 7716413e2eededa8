package jobq

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned by Job.Result when the deadline passes before the job completes.
// It matches context.DeadlineExceeded with errors.Is.
var ErrTimeout = fmt.Errorf("jobq: timed out waiting for job result: %w", context.DeadlineExceeded)

// ErrResultNotFound is returned by Job.FetchResult when no result record exists for the job.
var ErrResultNotFound = errors.New("jobq: job result not found")

// ErrUnknownStatus is returned when parsing an invalid status string.
var ErrUnknownStatus = errors.New("jobq: unknown job status")

// ErrFunctionNotFound is recorded as the failure of jobs whose function is not registered.
var ErrFunctionNotFound = errors.New("jobq: function not found")

// ErrMaxTriesExceeded is recorded when a job is picked up after it used all its tries.
var ErrMaxTriesExceeded = errors.New("jobq: max tries exceeded")

// SerializationError reports that job arguments could not be encoded.
// The job is never persisted when this is returned.
type SerializationError struct {
	Function string
	Err      error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("unable to serialize job %q: %v", e.Function, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// DeserializationError reports that stored bytes could not be decoded.
// Msg is always "unable to deserialize job" or "unable to deserialize job result".
type DeserializationError struct {
	Msg string
	Err error
}

func (e *DeserializationError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *DeserializationError) Unwrap() error { return e.Err }

const (
	msgDeserializeJob    = "unable to deserialize job"
	msgDeserializeResult = "unable to deserialize job result"
)

// RetryError asks the worker to run the job again after Delay, as long as the
// job has tries left. Return it from a registered function via RetryJob.
type RetryError struct {
	Delay time.Duration
	Err   error
}

// RetryJob wraps err so the worker retries the job after delay instead of the
// configured backoff.
func RetryJob(delay time.Duration, err error) error {
	return &RetryError{Delay: delay, Err: err}
}

func (e *RetryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("retry requested (delay %s)", e.Delay)
	}
	return fmt.Sprintf("retry requested (delay %s): %v", e.Delay, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }
