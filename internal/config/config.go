// Package config loads worker process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/UniQw/jobq"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection settings of the job store.
type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// WorkerConfig mirrors jobq.WorkerConfig in env form.
type WorkerConfig struct {
	// Queues is a comma separated list of name:weight pairs, e.g. "default:1,emails:3".
	Queues            map[string]int `env:"QUEUES" envDefault:"default:1" envSeparator:"," envKeyValSeparator:":"`
	MaxJobs           int            `env:"MAX_JOBS" envDefault:"10"`
	MaxTries          int            `env:"MAX_TRIES" envDefault:"5"`
	JobTimeout        time.Duration  `env:"JOB_TIMEOUT" envDefault:"300s"`
	KeepResult        time.Duration  `env:"KEEP_RESULT" envDefault:"1h"`
	KeepResultForever bool           `env:"KEEP_RESULT_FOREVER" envDefault:"false"`
	PollInterval      time.Duration  `env:"POLL_INTERVAL" envDefault:"500ms"`
	BackoffInitial    time.Duration  `env:"BACKOFF_INITIAL" envDefault:"1s"`
	BackoffMax        time.Duration  `env:"BACKOFF_MAX" envDefault:"1m"`
	// Encoder is "json" or "msgpack".
	Encoder string `env:"ENCODER" envDefault:"json"`
}

// Config is the full worker process configuration. Debug turns on per-job
// debug log lines.
type Config struct {
	Redis       RedisConfig  `envPrefix:"JOBQ_REDIS_"`
	Worker      WorkerConfig `envPrefix:"JOBQ_"`
	MetricsAddr string       `env:"JOBQ_METRICS_ADDR" envDefault:":9090"`
	Debug       bool         `env:"JOBQ_DEBUG" envDefault:"false"`
}

// Load reads the given .env files (".env" when none are given), then the
// environment. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *Config) Sanitize() {
	c.Worker.Sanitize()
	if c.Redis.DB < 0 {
		c.Redis.DB = 0
	}
}

// Sanitize drops invalid queue entries and clamps numeric settings.
func (w *WorkerConfig) Sanitize() {
	queues := make(map[string]int, len(w.Queues))
	for name, weight := range w.Queues {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if weight < 1 {
			weight = 1
		}
		queues[name] = weight
	}
	if len(queues) == 0 {
		queues[jobq.DefaultQueue] = 1
	}
	w.Queues = queues

	if w.MaxJobs < 1 {
		w.MaxJobs = 1
	}
	if w.MaxTries < 1 {
		w.MaxTries = 1
	}
	if w.BackoffMax < w.BackoffInitial {
		w.BackoffMax = w.BackoffInitial
	}
	w.Encoder = strings.ToLower(strings.TrimSpace(w.Encoder))
	if w.Encoder != "msgpack" {
		w.Encoder = "json"
	}
}

// RedisOptions builds go-redis client options.
func (c Config) RedisOptions() *redis.Options {
	return &redis.Options{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB}
}

// NewEncoder returns the encoder named by the configuration.
func (w WorkerConfig) NewEncoder() jobq.Encoder {
	if w.Encoder == "msgpack" {
		return &jobq.MsgpackEncoder{}
	}
	return &jobq.JSONEncoder{}
}

// Jobq converts the env settings into a jobq.WorkerConfig.
func (w WorkerConfig) Jobq(logger jobq.Logger) jobq.WorkerConfig {
	return jobq.WorkerConfig{
		Queues:            w.Queues,
		MaxJobs:           w.MaxJobs,
		MaxTries:          w.MaxTries,
		JobTimeout:        w.JobTimeout,
		KeepResult:        w.KeepResult,
		KeepResultForever: w.KeepResultForever,
		PollInterval:      w.PollInterval,
		Backoff:           jobq.JitterBackoff(w.BackoffInitial, w.BackoffMax),
		Encoder:           w.NewEncoder(),
		Logger:            logger,
	}
}
