package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/UniQw/jobq"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, map[string]int{"default": 1}, cfg.Worker.Queues)
	require.Equal(t, 10, cfg.Worker.MaxJobs)
	require.Equal(t, 5, cfg.Worker.MaxTries)
	require.Equal(t, 300*time.Second, cfg.Worker.JobTimeout)
	require.Equal(t, time.Hour, cfg.Worker.KeepResult)
	require.Equal(t, 500*time.Millisecond, cfg.Worker.PollInterval)
	require.Equal(t, "json", cfg.Worker.Encoder)
	require.Equal(t, ":9090", cfg.MetricsAddr)
	require.False(t, cfg.Debug)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("JOBQ_REDIS_ADDR", "redis:6380")
	t.Setenv("JOBQ_REDIS_DB", "2")
	t.Setenv("JOBQ_QUEUES", "default:1,emails:3")
	t.Setenv("JOBQ_MAX_JOBS", "4")
	t.Setenv("JOBQ_JOB_TIMEOUT", "30s")
	t.Setenv("JOBQ_KEEP_RESULT_FOREVER", "true")
	t.Setenv("JOBQ_ENCODER", "MsgPack")
	t.Setenv("JOBQ_DEBUG", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, "redis:6380", cfg.RedisOptions().Addr)
	require.Equal(t, 2, cfg.RedisOptions().DB)
	require.Equal(t, map[string]int{"default": 1, "emails": 3}, cfg.Worker.Queues)
	require.True(t, cfg.Debug)

	wc := cfg.Worker.Jobq(jobq.NopLogger{})
	require.Equal(t, 4, wc.MaxJobs)
	require.Equal(t, 30*time.Second, wc.JobTimeout)
	require.True(t, wc.KeepResultForever)
	require.IsType(t, &jobq.MsgpackEncoder{}, wc.Encoder)
	require.NotNil(t, wc.Backoff)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JOBQ_MAX_TRIES=9\nJOBQ_METRICS_ADDR=:9191\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("JOBQ_MAX_TRIES")
		_ = os.Unsetenv("JOBQ_METRICS_ADDR")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9, cfg.Worker.MaxTries)
	require.Equal(t, ":9191", cfg.MetricsAddr)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("JOBQ_MAX_JOBS", "many")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestWorkerConfig_Sanitize(t *testing.T) {
	w := WorkerConfig{
		Queues:         map[string]int{" ": 2, "low": 0},
		MaxJobs:        -1,
		MaxTries:       0,
		BackoffInitial: time.Second,
		BackoffMax:     time.Millisecond,
		Encoder:        "yaml",
	}
	w.Sanitize()

	require.Equal(t, map[string]int{"low": 1}, w.Queues)
	require.Equal(t, 1, w.MaxJobs)
	require.Equal(t, 1, w.MaxTries)
	require.Equal(t, time.Second, w.BackoffMax)
	require.Equal(t, "json", w.Encoder)

	empty := WorkerConfig{}
	empty.Sanitize()
	require.Equal(t, map[string]int{jobq.DefaultQueue: 1}, empty.Queues)
}
