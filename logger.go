package jobq

import (
	"fmt"
	"io"
	"os"
)

// Logger receives pool, job handle and worker events. Pools and workers take
// one through WithLogger and WorkerConfig.Logger; deprecation warnings and
// per-job failures arrive at Warnf.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// FmtLogger is the default Logger. Debug and info lines go to stdout, warnings
// and errors to stderr, each with a level prefix. Per-job debug lines
// (enqueued, processed) are dropped when NoDebug is set.
type FmtLogger struct {
	NoDebug bool

	out, err io.Writer
}

// NewFmtLogger creates a FmtLogger writing to stdout/stderr.
func NewFmtLogger() *FmtLogger { return &FmtLogger{} }

func (l *FmtLogger) stdout() io.Writer {
	if l.out != nil {
		return l.out
	}
	return os.Stdout
}

func (l *FmtLogger) stderr() io.Writer {
	if l.err != nil {
		return l.err
	}
	return os.Stderr
}

func (l *FmtLogger) Debugf(format string, args ...any) {
	if l.NoDebug {
		return
	}
	fmt.Fprintf(l.stdout(), "[DEBUG] "+format+"\n", args...)
}

func (l *FmtLogger) Infof(format string, args ...any) {
	fmt.Fprintf(l.stdout(), "[INFO]  "+format+"\n", args...)
}

func (l *FmtLogger) Warnf(format string, args ...any) {
	fmt.Fprintf(l.stderr(), "[WARN]  "+format+"\n", args...)
}

func (l *FmtLogger) Errorf(format string, args ...any) {
	fmt.Fprintf(l.stderr(), "[ERROR] "+format+"\n", args...)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}
