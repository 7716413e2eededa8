package runtime

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	ikeys "github.com/UniQw/jobq/internal/keys"
	"github.com/UniQw/jobq/internal/store"
	"golang.org/x/sync/semaphore"
)

// Logger is a minimal logging interface used internally by the runtime.
// It mirrors the public logger in the root package to avoid an import cycle.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// Outcome is what happened to one dequeued job id.
type Outcome int

const (
	// Skipped means another worker held the claim or the job vanished.
	Skipped Outcome = iota
	Complete
	Failed
	Retried
)

// Stats counts outcomes of a drain pass.
type Stats struct {
	Complete int
	Failed   int
	Retried  int
	Skipped  int
}

func (s *Stats) add(o Outcome) {
	switch o {
	case Complete:
		s.Complete++
	case Failed:
		s.Failed++
	case Retried:
		s.Retried++
	default:
		s.Skipped++
	}
}

type Config struct {
	// Queues maps queue names to polling weights.
	Queues map[string]int
	// MaxJobs caps how many jobs execute at once.
	MaxJobs int
	// PollInterval is how long the dispatcher sleeps when every queue is empty.
	PollInterval time.Duration
	Logger       Logger
}

// Executor processes a single job id popped from queue.
type Executor func(ctx context.Context, queue, jobID string) Outcome

type Runtime struct {
	st        store.Store
	cfg       Config
	exec      Executor
	sem       *semaphore.Weighted
	wg        sync.WaitGroup
	mu        sync.Mutex
	started   bool
	ctx       context.Context
	cancel    context.CancelFunc
	queueList []string
	qmap      map[string]ikeys.Queue
	log       Logger
}

// New creates a runtime that pulls job ids from the configured queues and
// hands them to exec.
func New(st store.Store, cfg Config, exec Executor) *Runtime {
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	qmap := make(map[string]ikeys.Queue, len(cfg.Queues))
	for q := range cfg.Queues {
		qmap[q] = ikeys.For(q)
	}
	lg := cfg.Logger
	if lg == nil {
		lg = noopLogger{}
	}
	return &Runtime{
		st:        st,
		cfg:       cfg,
		exec:      exec,
		sem:       semaphore.NewWeighted(int64(cfg.MaxJobs)),
		queueList: expandQueues(cfg.Queues),
		qmap:      qmap,
		log:       lg,
	}
}

// Start launches the dispatcher and the per-queue delayed scheduler.
func (rt *Runtime) Start() {
	rt.mu.Lock()
	if rt.started {
		rt.log.Warnf("runtime already started; ignoring Start()")
		rt.mu.Unlock()
		return
	}
	rt.started = true
	rt.ctx, rt.cancel = context.WithCancel(context.Background())
	rt.mu.Unlock()
	rt.log.Infof("runtime starting: max_jobs=%d queues=%d", rt.cfg.MaxJobs, len(rt.cfg.Queues))

	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		rt.dispatchLoop(rand.New(rand.NewSource(time.Now().UnixNano())))
	}()

	// Delayed scheduler: move due jobs from delayed -> pending atomically
	for q := range rt.cfg.Queues {
		rt.wg.Add(1)
		go func(kset ikeys.Queue) {
			defer rt.wg.Done()
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-rt.ctx.Done():
					return
				case <-ticker.C:
					if _, err := rt.st.PromoteDue(rt.ctx, kset.Delayed, kset.Pending, time.Now(), 256); err != nil && rt.ctx.Err() == nil {
						rt.log.Warnf("scheduler: promote failed queue=%s err=%v", kset.Name, err)
					}
				}
			}
		}(rt.qmap[q])
	}
}

// Stop cancels the internal context and waits for all goroutines, including
// in-flight jobs, to exit.
func (rt *Runtime) Stop() {
	rt.mu.Lock()
	if !rt.started {
		rt.log.Warnf("runtime not started; ignoring Stop()")
		rt.mu.Unlock()
		return
	}
	rt.started = false
	rt.mu.Unlock()
	rt.log.Infof("runtime stopping")

	rt.cancel()
	rt.wg.Wait()
}

func (rt *Runtime) dispatchLoop(rng *rand.Rand) {
	ql := rt.queueList
	if len(ql) == 0 {
		return
	}
	for {
		if err := rt.sem.Acquire(rt.ctx, 1); err != nil {
			return
		}
		kset := rt.qmap[ql[rng.Intn(len(ql))]]
		id, err := rt.st.Pop(rt.ctx, kset.Pending)
		if err != nil {
			rt.sem.Release(1)
			if rt.ctx.Err() != nil {
				return
			}
			if !errors.Is(err, store.ErrNotFound) {
				rt.log.Warnf("dispatch: pop failed queue=%s err=%v", kset.Name, err)
			}
			select {
			case <-rt.ctx.Done():
				return
			case <-time.After(rt.cfg.PollInterval):
			}
			continue
		}
		rt.wg.Add(1)
		go func(queue, jobID string) {
			defer rt.wg.Done()
			defer rt.sem.Release(1)
			rt.exec(rt.ctx, queue, jobID)
		}(kset.Name, id)
	}
}

// Drain runs a single pass: due deferred jobs are promoted, then every job id
// pending at the start of the pass is executed. It returns once they all
// finished.
func (rt *Runtime) Drain(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		mu    sync.Mutex
		wg    sync.WaitGroup
	)
	for q := range rt.cfg.Queues {
		kset := rt.qmap[q]
		if _, err := rt.st.PromoteDue(ctx, kset.Delayed, kset.Pending, time.Now(), 1<<20); err != nil {
			return stats, err
		}
		n, err := rt.st.Len(ctx, kset.Pending)
		if err != nil {
			return stats, err
		}
		for i := int64(0); i < n; i++ {
			if err := rt.sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return stats, err
			}
			id, err := rt.st.Pop(ctx, kset.Pending)
			if err != nil {
				rt.sem.Release(1)
				if errors.Is(err, store.ErrNotFound) {
					break
				}
				wg.Wait()
				return stats, err
			}
			wg.Add(1)
			go func(queue, jobID string) {
				defer wg.Done()
				defer rt.sem.Release(1)
				o := rt.exec(ctx, queue, jobID)
				mu.Lock()
				stats.add(o)
				mu.Unlock()
			}(kset.Name, id)
		}
	}
	wg.Wait()
	return stats, nil
}

// CfgMaxJobs exposes the configured in-flight cap.
func (rt *Runtime) CfgMaxJobs() int { return rt.cfg.MaxJobs }

// CfgQueues exposes configured queues mapping.
func (rt *Runtime) CfgQueues() map[string]int { return rt.cfg.Queues }

func expandQueues(q map[string]int) []string {
	n := 0
	for _, w := range q {
		n += w
	}
	out := make([]string, 0, n)
	for name, weight := range q {
		if weight <= 0 {
			weight = 1
		}
		for i := 0; i < weight; i++ {
			out = append(out, name)
		}
	}
	return out
}
