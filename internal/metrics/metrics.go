package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsEnqueued      = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobq_jobs_enqueued_total", Help: "Jobs written to a pending queue"}, []string{"queue"})
	JobsComplete      = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobq_jobs_complete_total", Help: "Jobs that finished successfully"}, []string{"queue"})
	JobsFailed        = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobq_jobs_failed_total", Help: "Jobs that finished with a failure result"}, []string{"queue"})
	JobsRetried       = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobq_jobs_retried_total", Help: "Failed attempts scheduled for another try"}, []string{"queue"})
	JobsInProgress    = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "jobq_jobs_in_progress", Help: "Jobs currently executing in this process"}, []string{"queue"})
	DeprecatedOptions = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobq_deprecated_option_total", Help: "Uses of deprecated options"}, []string{"option"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			JobsEnqueued,
			JobsComplete,
			JobsFailed,
			JobsRetried,
			JobsInProgress,
			DeprecatedOptions,
		)
	})
	return promhttp.Handler()
}
