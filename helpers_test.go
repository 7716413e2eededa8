package jobq

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	mrd "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniClient(t *testing.T) (*redis.Client, *mrd.Miniredis) {
	t.Helper()
	s := mrd.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, s
}

// captureLogger records formatted lines per level.
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) add(level, format string, args ...any) {
	l.mu.Lock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func (l *captureLogger) Debugf(format string, args ...any) { l.add("DEBUG", format, args...) }
func (l *captureLogger) Infof(format string, args ...any)  { l.add("INFO", format, args...) }
func (l *captureLogger) Warnf(format string, args ...any)  { l.add("WARN", format, args...) }
func (l *captureLogger) Errorf(format string, args ...any) { l.add("ERROR", format, args...) }

func (l *captureLogger) contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.HasPrefix(line, level+" ") && strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
