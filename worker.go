package jobq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/UniQw/jobq/internal/backoff"
	"github.com/UniQw/jobq/internal/hctx"
	ikeys "github.com/UniQw/jobq/internal/keys"
	"github.com/UniQw/jobq/internal/metrics"
	rtm "github.com/UniQw/jobq/internal/runtime"
	"github.com/UniQw/jobq/internal/store"
	"github.com/redis/go-redis/v9"
)

// Backoff computes the delay before retry attempt n (1-indexed).
type Backoff = backoff.Strategy

// ConstantBackoff waits d before every retry.
func ConstantBackoff(d time.Duration) Backoff { return backoff.NewConstant(d) }

// ExponentialBackoff doubles the delay on each retry starting at initial, capped at maxDelay.
func ExponentialBackoff(initial, maxDelay time.Duration) Backoff {
	return backoff.NewExponential(initial, maxDelay)
}

// JitterBackoff is ExponentialBackoff with full jitter.
func JitterBackoff(initial, maxDelay time.Duration) Backoff {
	return backoff.NewExponentialWithJitter(initial, maxDelay)
}

// WorkerConfig defines the configuration for a Worker. Zero values fall back
// to the defaults noted on each field.
type WorkerConfig struct {
	// Queues defines the queues to process and their relative weights.
	// Default: {DefaultQueue: 1}.
	Queues map[string]int
	// MaxJobs caps the number of jobs executing at once. Default: 10.
	MaxJobs int
	// MaxTries is how many times a failing job runs before a failure result is
	// stored. Default: 5.
	MaxTries int
	// JobTimeout bounds a single execution. Default: 300s.
	JobTimeout time.Duration
	// KeepResult is how long result records live. Default: 1h.
	KeepResult time.Duration
	// KeepResultForever disables result expiry.
	KeepResultForever bool
	// PollInterval is the pause between polls of empty queues. Default: 500ms.
	PollInterval time.Duration
	// Backoff picks the delay before a retry. Default: exponential 1s..1m.
	Backoff Backoff
	// Encoder must match the encoder of the pools enqueueing jobs. Default: JSONEncoder.
	Encoder Encoder
	// Logger is the logger used for worker events.
	Logger Logger
}

func (c *WorkerConfig) setDefaults() {
	if len(c.Queues) == 0 {
		c.Queues = map[string]int{DefaultQueue: 1}
	}
	if c.MaxJobs <= 0 {
		c.MaxJobs = 10
	}
	if c.MaxTries <= 0 {
		c.MaxTries = 5
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 300 * time.Second
	}
	if c.KeepResult <= 0 {
		c.KeepResult = time.Hour
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.Backoff == nil {
		c.Backoff = backoff.Default()
	}
	if c.Encoder == nil {
		c.Encoder = &JSONEncoder{}
	}
	if c.Logger == nil {
		c.Logger = NewFmtLogger()
	}
}

// Stats counts job outcomes of one RunCheck pass.
type Stats struct {
	Complete int
	Failed   int
	Retried  int
	// Skipped counts ids that were claimed by another worker or whose job
	// record had expired.
	Skipped int
}

// Worker claims jobs from its queues and executes the registered functions.
type Worker struct {
	st       Store
	reg      *Registry
	cfg      WorkerConfig
	rt       *rtm.Runtime
	claimTTL time.Duration
	log      Logger
	mu       sync.Mutex
	started  bool
}

// NewWorker creates a worker backed by Redis.
func NewWorker(rdb redis.UniversalClient, reg *Registry, cfg WorkerConfig) *Worker {
	return NewWorkerWithStore(store.NewRedis(rdb), reg, cfg)
}

// NewWorkerWithStore creates a worker on top of any Store implementation.
func NewWorkerWithStore(st Store, reg *Registry, cfg WorkerConfig) *Worker {
	cfg.setDefaults()
	w := &Worker{
		st:       st,
		reg:      reg,
		cfg:      cfg,
		claimTTL: reg.maxTimeout(cfg.JobTimeout) + time.Second,
		log:      cfg.Logger,
	}
	w.rt = rtm.New(st, rtm.Config{
		Queues:       cfg.Queues,
		MaxJobs:      cfg.MaxJobs,
		PollInterval: cfg.PollInterval,
		Logger:       rtLogger{Logger: cfg.Logger},
	}, w.process)
	return w
}

// RunCheck promotes due deferred jobs, executes every job pending at the time
// of the call and returns once they all finished. Failed jobs are counted in
// Stats rather than reported as an error; the error is for store failures.
func (w *Worker) RunCheck(ctx context.Context) (Stats, error) {
	s, err := w.rt.Drain(ctx)
	return Stats{Complete: s.Complete, Failed: s.Failed, Retried: s.Retried, Skipped: s.Skipped}, err
}

// Start launches the polling loop in the background. It is idempotent and non-blocking.
func (w *Worker) Start() {
	w.mu.Lock()
	if w.started {
		w.log.Warnf("worker already started; ignoring Start()")
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	w.log.Infof("starting worker: max_jobs=%d queues=%d functions=%d", w.rt.CfgMaxJobs(), len(w.rt.CfgQueues()), len(w.reg.funcs))
	w.rt.Start()
}

// Stop shuts the loop down and waits for in-flight jobs. Their contexts are
// cancelled; jobs that fail because of it are retried like any other failure.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.log.Warnf("worker not started; ignoring Stop()")
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()
	w.log.Infof("stopping worker")
	w.rt.Stop()
}

// Run starts the worker and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	w.Start()
	<-ctx.Done()
	w.Stop()
	return ctx.Err()
}

func (w *Worker) process(ctx context.Context, queue, id string) rtm.Outcome {
	ok, err := w.st.SetNX(ctx, ikeys.InProgress(id), []byte("1"), w.claimTTL)
	if err != nil {
		w.log.Errorf("claim failed: id=%s queue=%s err=%v", id, queue, err)
		w.requeue(ctx, queue, id)
		return rtm.Skipped
	}
	if !ok {
		w.log.Debugf("already in progress, rescheduling: id=%s queue=%s", id, queue)
		w.reschedule(ctx, queue, id)
		return rtm.Skipped
	}
	// Bookkeeping must finish even when ctx is cancelled by Stop.
	pctx := context.WithoutCancel(ctx)
	c := &claim{w: w, ctx: pctx, id: id}
	var running <-chan struct{}
	defer func() { c.release(running) }()

	raw, err := w.st.Get(ctx, ikeys.Job(id))
	if errors.Is(err, store.ErrNotFound) {
		w.log.Warnf("job expired: id=%s queue=%s", id, queue)
		return rtm.Skipped
	}
	if err != nil {
		w.log.Errorf("load job failed: id=%s queue=%s err=%v", id, queue, err)
		w.requeue(pctx, queue, id)
		return rtm.Skipped
	}

	def, err := DeserializeJob(w.cfg.Encoder, raw)
	if err != nil {
		w.log.Errorf("corrupt job: id=%s queue=%s err=%v", id, queue, err)
		now := time.Now()
		w.finish(pctx, &JobDef{JobID: id, QueueName: queue, Function: "<unknown>", JobTry: 1}, now, now, false, err.Error(), w.cfg.KeepResult)
		return rtm.Failed
	}
	def.JobID = id
	if def.QueueName == "" {
		def.QueueName = queue
	}

	fn, ok := w.reg.lookup(def.Function)
	if !ok {
		w.log.Warnf("function not found: id=%s function=%s queue=%s", id, def.Function, queue)
		now := time.Now()
		w.finish(pctx, def, now, now, false, fmt.Sprintf("%v: %s", ErrFunctionNotFound, def.Function), w.cfg.KeepResult)
		return rtm.Failed
	}
	maxTries := w.cfg.MaxTries
	if fn.maxTries > 0 {
		maxTries = fn.maxTries
	}
	keep := w.cfg.KeepResult
	if fn.keepResult > 0 {
		keep = fn.keepResult
	}
	if def.JobTry > maxTries {
		w.log.Warnf("max tries exceeded: id=%s function=%s try=%d", id, def.Function, def.JobTry)
		now := time.Now()
		w.finish(pctx, def, now, now, false, ErrMaxTriesExceeded.Error(), keep)
		return rtm.Failed
	}
	timeout := w.cfg.JobTimeout
	if fn.timeout > 0 {
		timeout = fn.timeout
	}

	metrics.JobsInProgress.WithLabelValues(def.QueueName).Inc()
	start := time.Now()
	value, abandoned, err := w.call(ctx, fn, def, timeout)
	end := time.Now()
	metrics.JobsInProgress.WithLabelValues(def.QueueName).Dec()
	running = abandoned

	if err != nil {
		if def.JobTry < maxTries {
			delay := w.cfg.Backoff.Delay(def.JobTry)
			var rerr *RetryError
			if errors.As(err, &rerr) {
				delay = rerr.Delay
			}
			// The id becomes poppable as soon as it is pushed or promoted;
			// nobody can claim it while the marker is still set.
			if running == nil {
				c.release(nil)
			}
			serr := w.retry(pctx, def, delay)
			if serr == nil {
				w.log.Warnf("job failed, retrying: id=%s function=%s try=%d delay=%s err=%v", id, def.Function, def.JobTry, delay, err)
				metrics.JobsRetried.WithLabelValues(def.QueueName).Inc()
				return rtm.Retried
			}
			w.log.Errorf("retry scheduling failed: id=%s function=%s err=%v", id, def.Function, serr)
		}
		w.log.Warnf("job failed: id=%s function=%s try=%d err=%v", id, def.Function, def.JobTry, err)
		w.finish(pctx, def, start, end, false, err.Error(), keep)
		return rtm.Failed
	}

	w.finish(pctx, def, start, end, true, value, keep)
	w.log.Debugf("processed: id=%s function=%s queue=%s dur=%s", id, def.Function, def.QueueName, end.Sub(start))
	return rtm.Complete
}

// claim is the in-progress marker held while a worker owns a job.
type claim struct {
	w        *Worker
	ctx      context.Context
	id       string
	released bool
}

// release deletes the marker once. With a non-nil wait the delete is held
// back until wait closes, so a function still running past its timeout keeps
// the job claimed (up to the marker TTL).
func (c *claim) release(wait <-chan struct{}) {
	if c.released {
		return
	}
	c.released = true
	del := func() {
		if err := c.w.st.Delete(c.ctx, ikeys.InProgress(c.id)); err != nil {
			c.w.log.Warnf("release claim failed: id=%s err=%v", c.id, err)
		}
	}
	if wait == nil {
		del()
		return
	}
	go func() {
		<-wait
		del()
	}()
}

// call runs the function with the job metadata attached to ctx. A function
// that ignores ctx and overruns its timeout is abandoned, not stopped; the
// returned channel is then non-nil and closes when it finally returns.
func (w *Worker) call(ctx context.Context, fn function, def *JobDef, timeout time.Duration) (any, <-chan struct{}, error) {
	jctx := hctx.WithState(ctx, &hctx.State{
		JobID:       def.JobID,
		JobTry:      def.JobTry,
		Queue:       def.QueueName,
		EnqueueTime: def.EnqueueTime,
	})
	jctx, cancel := context.WithTimeout(jctx, timeout)
	defer cancel()

	type outcome struct {
		v   any
		err error
	}
	ch := make(chan outcome, 1)
	done := make(chan struct{})
	exec := w.reg.wrap(fn.exec)
	go func() {
		defer close(done)
		defer func() {
			if p := recover(); p != nil {
				ch <- outcome{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		v, err := exec(jctx, def.Args, def.Kwargs)
		ch <- outcome{v: v, err: err}
	}()

	select {
	case o := <-ch:
		return o.v, nil, o.err
	case <-jctx.Done():
		if errors.Is(jctx.Err(), context.DeadlineExceeded) {
			return nil, done, fmt.Errorf("job timed out after %s: %w", timeout, jctx.Err())
		}
		return nil, done, jctx.Err()
	}
}

// retry rewrites the job record with the next try number and schedules it.
// The record keeps the TTL the pool gave it, extended by the delay.
func (w *Worker) retry(ctx context.Context, def *JobDef, delay time.Duration) error {
	next := *def
	next.JobTry++
	next.Score = nil
	raw, err := serializeJobDef(w.cfg.Encoder, &next)
	if err != nil {
		return err
	}
	if delay < 0 {
		delay = 0
	}
	ttl := DefaultExpires
	switch {
	case def.expires < 0:
		ttl = 0
	case def.expires > 0:
		ttl = def.expires
	}
	if ttl > 0 {
		ttl += delay
	}
	if err := w.st.Set(ctx, ikeys.Job(def.JobID), raw, ttl); err != nil {
		return err
	}
	k := ikeys.For(def.QueueName)
	if delay == 0 {
		return w.st.Push(ctx, k.Pending, def.JobID)
	}
	return w.st.Schedule(ctx, k.Delayed, def.JobID, time.Now().Add(delay))
}

// finish stores the result record and removes the job record. A value that
// cannot be encoded is dropped and the record is stored without a payload so
// the success flag survives.
func (w *Worker) finish(ctx context.Context, def *JobDef, start, end time.Time, success bool, value any, keep time.Duration) {
	r := &JobResult{JobDef: *def, Success: success, StartTime: start, FinishTime: end}
	r.Score = nil
	raw := SerializeResult(w.cfg.Encoder, r, value)
	if raw == nil {
		w.log.Warnf("result not serializable, storing without payload: id=%s function=%s", def.JobID, def.Function)
		raw = serializeResultRecord(w.cfg.Encoder, r, nil)
	}
	if w.cfg.KeepResultForever {
		keep = 0
	}
	if raw == nil {
		w.log.Errorf("result record not serializable, dropping: id=%s function=%s", def.JobID, def.Function)
	} else if err := w.st.Set(ctx, ikeys.Result(def.JobID), raw, keep); err != nil {
		w.log.Errorf("store result failed: id=%s function=%s err=%v", def.JobID, def.Function, err)
	}
	if err := w.st.Delete(ctx, ikeys.Job(def.JobID)); err != nil {
		w.log.Warnf("delete job failed: id=%s err=%v", def.JobID, err)
	}
	if success {
		metrics.JobsComplete.WithLabelValues(def.QueueName).Inc()
	} else {
		metrics.JobsFailed.WithLabelValues(def.QueueName).Inc()
	}
}

// reschedule puts back an id popped while another worker holds its claim, so
// it is looked at again after PollInterval. An id already waiting in the
// delayed set keeps its run-at time.
func (w *Worker) reschedule(ctx context.Context, queue, id string) {
	ctx = context.WithoutCancel(ctx)
	delayed := ikeys.Delayed(queue)
	if _, err := w.st.ScheduledAt(ctx, delayed, id); err == nil {
		return
	}
	if err := w.st.Schedule(ctx, delayed, id, time.Now().Add(w.cfg.PollInterval)); err != nil {
		w.log.Errorf("reschedule failed: id=%s queue=%s err=%v", id, queue, err)
	}
}

// requeue puts an id back when the worker could not tell what happened to it.
func (w *Worker) requeue(ctx context.Context, queue, id string) {
	if err := w.st.Push(context.WithoutCancel(ctx), ikeys.Pending(queue), id); err != nil {
		w.log.Errorf("requeue failed: id=%s queue=%s err=%v", id, queue, err)
	}
}

// rtLogger adapts the public Logger to the internal runtime logger interface.
type rtLogger struct{ Logger }
