package jobq

import (
	"context"
	"time"
)

// Func is a registered job function. Args and kwargs arrive as decoded by the
// encoder (JSON numbers become float64). The return value is encoded as the
// job result.
type Func func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// Middleware is a function that wraps a Func to provide cross-cutting concerns.
type Middleware func(Func) Func

type function struct {
	exec       Func
	maxTries   int
	timeout    time.Duration
	keepResult time.Duration
}

type FuncOption func(*function)

// MaxTries overrides WorkerConfig.MaxTries for one function.
func MaxTries(n int) FuncOption {
	return func(f *function) { f.maxTries = n }
}

// JobTimeout overrides WorkerConfig.JobTimeout for one function.
func JobTimeout(d time.Duration) FuncOption {
	return func(f *function) { f.timeout = d }
}

// KeepResult overrides WorkerConfig.KeepResult for one function.
func KeepResult(d time.Duration) FuncOption {
	return func(f *function) { f.keepResult = d }
}

// Registry maps the function names stored in job records to Funcs. Build it
// once before starting a Worker; it is not safe to modify while workers run.
type Registry struct {
	funcs       map[string]function
	middlewares []Middleware
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs:       make(map[string]function),
		middlewares: []Middleware{},
	}
}

// Handle registers fn under name, replacing any previous registration.
func (r *Registry) Handle(name string, fn Func, opts ...FuncOption) {
	f := function{exec: fn}
	for _, opt := range opts {
		opt(&f)
	}
	r.funcs[name] = f
}

// Use adds middleware(s) to the registry. Middlewares are executed in the order they are added.
func (r *Registry) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

// Names returns the registered function names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	return out
}

func (r *Registry) lookup(name string) (function, bool) {
	f, ok := r.funcs[name]
	return f, ok
}

func (r *Registry) wrap(fn Func) Func {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		fn = r.middlewares[i](fn)
	}
	return fn
}

// maxTimeout is the longest timeout any registered function may run for.
func (r *Registry) maxTimeout(def time.Duration) time.Duration {
	m := def
	for _, f := range r.funcs {
		if f.timeout > m {
			m = f.timeout
		}
	}
	return m
}
