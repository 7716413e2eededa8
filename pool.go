package jobq

import (
	"context"
	"errors"
	"sort"
	"time"

	ikeys "github.com/UniQw/jobq/internal/keys"
	"github.com/UniQw/jobq/internal/metrics"
	"github.com/UniQw/jobq/internal/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueue is the queue jobs go to when no QueueName option is given.
const DefaultQueue = "default"

// DefaultExpires is how long an unprocessed job record is kept.
const DefaultExpires = 24 * time.Hour

// Pool enqueues jobs and reads their results. It is safe for concurrent use;
// cross-process coordination relies on the atomic operations of the Store.
type Pool struct {
	st           Store
	enc          Encoder
	log          Logger
	defaultQueue string
	expires      time.Duration
}

// NewPool creates a pool backed by Redis.
func NewPool(rdb redis.UniversalClient, opts ...PoolOption) *Pool {
	return NewPoolWithStore(store.NewRedis(rdb), opts...)
}

// NewPoolWithStore creates a pool on top of any Store implementation.
func NewPoolWithStore(st Store, opts ...PoolOption) *Pool {
	cfg := poolOptions{
		encoder:      &JSONEncoder{},
		logger:       NewFmtLogger(),
		defaultQueue: DefaultQueue,
		expires:      DefaultExpires,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Pool{
		st:           st,
		enc:          cfg.encoder,
		log:          cfg.logger,
		defaultQueue: cfg.defaultQueue,
		expires:      cfg.expires,
	}
}

// Job returns a handle for id on the default queue. The job does not need to exist.
func (p *Pool) Job(id string) *Job {
	return p.JobInQueue(p.defaultQueue, id)
}

// JobInQueue returns a handle for id on queue.
func (p *Pool) JobInQueue(queue, id string) *Job {
	return &Job{ID: id, Queue: queue, st: p.st, enc: p.enc, log: p.log}
}

// EnqueueJob stores a job for function and pushes it onto its queue.
//
// Arguments are encoded before anything is written; a *SerializationError
// leaves the store untouched. When the job ID (see JobID) already has a job
// or result record, the existing job's handle is returned and nothing is
// enqueued again.
func (p *Pool) EnqueueJob(ctx context.Context, function string, args []any, kwargs map[string]any, opts ...Option) (*Job, error) {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	queue := cfg.queue
	if queue == "" {
		queue = p.defaultQueue
	}
	id := cfg.id
	if id == "" {
		id = uuid.NewString()
	}
	try := cfg.jobTry
	if try < 1 {
		try = 1
	}

	ttl := p.expires
	if cfg.expiresOK {
		ttl = cfg.expires
	}
	recTTL := ttl
	if recTTL <= 0 {
		recTTL = -1
	}

	now := time.Now()
	raw, err := serializeJobDef(p.enc, &JobDef{
		Function:    function,
		Args:        args,
		Kwargs:      kwargs,
		JobTry:      try,
		EnqueueTime: now,
		QueueName:   queue,
		expires:     recTTL,
	})
	if err != nil {
		return nil, err
	}

	j := p.JobInQueue(queue, id)
	done, err := p.st.Exists(ctx, ikeys.Result(id))
	if err != nil {
		return nil, err
	}
	if done {
		p.log.Debugf("enqueue skipped, job already complete: id=%s function=%s", id, function)
		return j, nil
	}

	var runAt time.Time
	switch {
	case !cfg.deferAt.IsZero():
		runAt = cfg.deferAt
	case cfg.deferBy > 0:
		runAt = now.Add(cfg.deferBy)
	}

	if ttl > 0 && runAt.After(now) {
		ttl += runAt.Sub(now)
	}

	ok, err := p.st.SetNX(ctx, ikeys.Job(id), raw, ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		p.log.Debugf("enqueue skipped, job already exists: id=%s function=%s", id, function)
		return j, nil
	}

	k := ikeys.For(queue)
	if runAt.After(now) {
		err = p.st.Schedule(ctx, k.Delayed, id, runAt)
	} else {
		err = p.st.Push(ctx, k.Pending, id)
	}
	if err != nil {
		// Rollback the job record so a retried enqueue starts clean
		if derr := p.st.Delete(ctx, ikeys.Job(id)); derr != nil {
			p.log.Errorf("enqueue rollback failed: id=%s err=%v", id, derr)
		}
		return nil, err
	}

	metrics.JobsEnqueued.WithLabelValues(queue).Inc()
	p.log.Debugf("enqueued: id=%s function=%s queue=%s", id, function, queue)
	return j, nil
}

type resultsOptions struct {
	skipCorrupt bool
}

// ResultsOption configures AllJobResults.
type ResultsOption func(*resultsOptions)

// SkipCorrupt makes AllJobResults log and skip records it cannot decode
// instead of failing on the first one.
func SkipCorrupt() ResultsOption {
	return func(o *resultsOptions) {
		o.skipCorrupt = true
	}
}

// AllJobResults returns every stored result ordered by enqueue time. By default
// the first corrupt record aborts the call with a *DeserializationError.
func (p *Pool) AllJobResults(ctx context.Context, opts ...ResultsOption) ([]*JobResult, error) {
	var cfg resultsOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	keys, err := p.st.Keys(ctx, ikeys.ResultPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*JobResult, 0, len(keys))
	for _, key := range keys {
		b, err := p.st.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		r, err := DeserializeResult(p.enc, b)
		if err != nil {
			if cfg.skipCorrupt {
				p.log.Warnf("skipping corrupt result: key=%s err=%v", key, err)
				continue
			}
			return nil, err
		}
		if r.JobID == "" {
			r.JobID = ikeys.IDFromResult(key)
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].EnqueueTime.Before(out[b].EnqueueTime)
	})
	return out, nil
}

// QueuedJobs lists the jobs waiting on queue, pending ones first in enqueue
// order, then deferred ones by run-at time.
func (p *Pool) QueuedJobs(ctx context.Context, queue string) ([]*JobDef, error) {
	k := ikeys.For(queue)
	pending, err := p.st.Range(ctx, k.Pending)
	if err != nil {
		return nil, err
	}
	delayed, err := p.st.Scheduled(ctx, k.Delayed)
	if err != nil {
		return nil, err
	}

	out := make([]*JobDef, 0, len(pending)+len(delayed))
	appendDef := func(id string, deferred bool) error {
		b, err := p.st.Get(ctx, ikeys.Job(id))
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		def, err := DeserializeJob(p.enc, b)
		if err != nil {
			return err
		}
		def.JobID = id
		if def.QueueName == "" {
			def.QueueName = queue
		}
		if deferred {
			if at, err := p.st.ScheduledAt(ctx, k.Delayed, id); err == nil {
				score := at.UnixMilli()
				def.Score = &score
			}
		}
		out = append(out, def)
		return nil
	}
	for _, id := range pending {
		if err := appendDef(id, false); err != nil {
			return nil, err
		}
	}
	for _, id := range delayed {
		if err := appendDef(id, true); err != nil {
			return nil, err
		}
	}
	return out, nil
}
