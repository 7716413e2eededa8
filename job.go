package jobq

import (
	"context"
	"errors"
	"fmt"
	"time"

	ikeys "github.com/UniQw/jobq/internal/keys"
	"github.com/UniQw/jobq/internal/metrics"
	"github.com/UniQw/jobq/internal/store"
)

// DefaultPollDelay is how often Job.Result checks the job status.
const DefaultPollDelay = 500 * time.Millisecond

// JobDef describes an enqueued job.
type JobDef struct {
	JobID       string
	Function    string
	Args        []any
	Kwargs      map[string]any
	JobTry      int
	EnqueueTime time.Time
	QueueName   string
	// Score is the run-at time in ms while the job is deferred or waiting for
	// a retry, nil otherwise.
	Score *int64

	// expires is the job record TTL chosen at enqueue: 0 unknown, negative never.
	expires time.Duration
}

// JobResult is the outcome of a finished job. For a job that has not finished
// yet (see Job.Info) only the JobDef part is populated.
type JobResult struct {
	JobDef
	Success bool
	// Result is the encoded return value, or the error message when Success
	// is false. It is nil when the return value could not be encoded.
	Result     []byte
	StartTime  time.Time
	FinishTime time.Time

	enc Encoder
}

// Decode decodes the stored payload into v. A missing payload leaves v untouched.
func (r *JobResult) Decode(v any) error {
	if r.Result == nil {
		return nil
	}
	enc := r.enc
	if enc == nil {
		enc = &JSONEncoder{}
	}
	if err := enc.Decode(r.Result, v); err != nil {
		return &DeserializationError{Msg: msgDeserializeResult, Err: err}
	}
	return nil
}

// JobFailedError is returned by Job.Result when the job finished unsuccessfully.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("jobq: job %s failed: %s", e.JobID, e.Message)
}

// Job is a handle to one enqueued unit of work. It holds no job state; every
// call reads the store.
type Job struct {
	ID    string
	Queue string

	st  Store
	enc Encoder
	log Logger
}

type resultOptions struct {
	pollDelay  time.Duration
	deprecated string
}

// ResultOption configures Job.Result.
type ResultOption func(*resultOptions)

// PollDelay sets how long Result waits between status checks. Zero polls
// without pausing.
func PollDelay(d time.Duration) ResultOption {
	return func(o *resultOptions) {
		o.pollDelay = d
	}
}

// PoleDelay is the former name of PollDelay.
//
// Deprecated: use PollDelay. PoleDelay behaves identically but logs a
// deprecation warning on every use.
func PoleDelay(d time.Duration) ResultOption {
	return func(o *resultOptions) {
		o.pollDelay = d
		o.deprecated = "PoleDelay"
	}
}

// Status reports where the job is in its lifecycle by checking, in order, the
// in-progress claim, the result record and the job record.
func (j *Job) Status(ctx context.Context) (JobStatus, error) {
	ok, err := j.st.Exists(ctx, ikeys.InProgress(j.ID))
	if err != nil {
		return "", err
	}
	if ok {
		return StatusInProgress, nil
	}
	if ok, err = j.st.Exists(ctx, ikeys.Result(j.ID)); err != nil {
		return "", err
	} else if ok {
		return StatusComplete, nil
	}
	if ok, err = j.st.Exists(ctx, ikeys.Job(j.ID)); err != nil {
		return "", err
	} else if ok {
		return StatusQueued, nil
	}
	// A worker may have stored the result and deleted the job record between
	// the two reads above.
	if ok, err = j.st.Exists(ctx, ikeys.Result(j.ID)); err != nil {
		return "", err
	} else if ok {
		return StatusComplete, nil
	}
	return StatusNotFound, nil
}

// Info returns the result record if the job finished, otherwise the job
// definition wrapped in a JobResult. It returns nil, nil when neither exists.
// Corrupt records are reported as *DeserializationError.
func (j *Job) Info(ctx context.Context) (*JobResult, error) {
	r, err := j.FetchResult(ctx)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrResultNotFound) {
		return nil, err
	}

	b, err := j.st.Get(ctx, ikeys.Job(j.ID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	def, err := DeserializeJob(j.enc, b)
	if err != nil {
		return nil, err
	}
	def.JobID = j.ID
	if def.QueueName == "" {
		def.QueueName = j.Queue
	}
	at, err := j.st.ScheduledAt(ctx, ikeys.Delayed(def.QueueName), j.ID)
	switch {
	case err == nil:
		score := at.UnixMilli()
		def.Score = &score
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	return &JobResult{JobDef: *def, enc: j.enc}, nil
}

// FetchResult reads the result record without waiting. It returns
// ErrResultNotFound when the job has no result yet.
func (j *Job) FetchResult(ctx context.Context) (*JobResult, error) {
	b, err := j.st.Get(ctx, ikeys.Result(j.ID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, j.ID)
	}
	if err != nil {
		return nil, err
	}
	r, err := DeserializeResult(j.enc, b)
	if err != nil {
		return nil, err
	}
	if r.JobID == "" {
		r.JobID = j.ID
	}
	return r, nil
}

// Result waits for the job to complete and returns its decoded return value.
// See ResultInto.
func (j *Job) Result(ctx context.Context, timeout time.Duration, opts ...ResultOption) (any, error) {
	var v any
	if err := j.ResultInto(ctx, timeout, &v, opts...); err != nil {
		return nil, err
	}
	return v, nil
}

// ResultInto polls Status until the job is complete and decodes its return
// value into dst. A timeout <= 0 waits until ctx is done. When the deadline
// passes first ErrTimeout is returned; the job itself keeps running. A job
// that finished unsuccessfully yields *JobFailedError.
func (j *Job) ResultInto(ctx context.Context, timeout time.Duration, dst any, opts ...ResultOption) error {
	cfg := resultOptions{pollDelay: DefaultPollDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.deprecated != "" {
		j.log.Warnf("jobq: %s is deprecated, use PollDelay instead", cfg.deprecated)
		metrics.DeprecatedOptions.WithLabelValues(cfg.deprecated).Inc()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	for {
		if err := ctx.Err(); err != nil {
			return waitErr(err)
		}
		st, err := j.Status(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return waitErr(ctx.Err())
			}
			return err
		}
		if st == StatusComplete {
			r, err := j.FetchResult(ctx)
			switch {
			case err == nil:
				if !r.Success {
					var msg string
					_ = r.Decode(&msg)
					return &JobFailedError{JobID: j.ID, Message: msg}
				}
				return r.Decode(dst)
			case errors.Is(err, ErrResultNotFound):
				// expired between the two reads; keep waiting for the deadline
			case ctx.Err() != nil:
				return waitErr(ctx.Err())
			default:
				return err
			}
		}

		t := time.NewTimer(cfg.pollDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return waitErr(ctx.Err())
		case <-t.C:
		}
	}
}

func waitErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
