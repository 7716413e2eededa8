package jobq

import "time"

type options struct {
	id        string
	queue     string
	deferBy   time.Duration
	deferAt   time.Time
	expires   time.Duration
	jobTry    int
	expiresOK bool
}

// Option is a function that configures a job during EnqueueJob.
type Option func(*options)

// JobID sets a custom ID for the job. If not provided, a random UUID will be generated.
// Enqueueing twice with the same ID returns the existing job instead of a duplicate.
func JobID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// QueueName routes the job to a queue other than the pool's default.
func QueueName(q string) Option {
	return func(o *options) {
		o.queue = q
	}
}

// Defer schedules the job to be executed after the specified duration.
func Defer(d time.Duration) Option {
	return func(o *options) {
		o.deferBy = d
	}
}

// DeferUntil schedules the job to be executed at t. It takes precedence over Defer.
func DeferUntil(t time.Time) Option {
	return func(o *options) {
		o.deferAt = t
	}
}

// Expires sets how long the job record is kept if no worker picks it up.
// A zero or negative duration keeps it forever.
func Expires(d time.Duration) Option {
	return func(o *options) {
		o.expires = d
		o.expiresOK = true
	}
}

// JobTry sets the attempt counter the job starts with. Values below 1 are ignored.
func JobTry(n int) Option {
	return func(o *options) {
		o.jobTry = n
	}
}

type poolOptions struct {
	encoder      Encoder
	logger       Logger
	defaultQueue string
	expires      time.Duration
}

// PoolOption configures a Pool.
type PoolOption func(*poolOptions)

// WithEncoder sets the encoder used for job and result records. Workers
// reading the same queues must use the same encoder.
func WithEncoder(e Encoder) PoolOption {
	return func(o *poolOptions) {
		if e != nil {
			o.encoder = e
		}
	}
}

// WithLogger sets the logger used by the pool and the job handles it creates.
func WithLogger(l Logger) PoolOption {
	return func(o *poolOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDefaultQueue changes the queue used when EnqueueJob has no QueueName option.
func WithDefaultQueue(q string) PoolOption {
	return func(o *poolOptions) {
		if q != "" {
			o.defaultQueue = q
		}
	}
}

// WithDefaultExpires sets the job record TTL used when EnqueueJob has no Expires option.
func WithDefaultExpires(d time.Duration) PoolOption {
	return func(o *poolOptions) {
		o.expires = d
	}
}
