package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultCommitted     = "committed"
	ResultRejected      = "rejected"
	ResultPersistFailed = "persist_failed"
)

type MetricsCollector struct {
	registry       *prometheus.Registry
	commits        *prometheus.CounterVec
	commitDuration prometheus.Histogram
	rollbacks      prometheus.Counter
	loadFailures   prometheus.Counter
	workingRules   prometheus.Gauge
	savedRules     prometheus.Gauge
	fieldErrors    prometheus.Gauge
	mu             sync.RWMutex
	logger         *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &MetricsCollector{
		registry: registry,
		commits: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "privacy_rules_commits_total",
			Help: "Total number of save attempts by result",
		}, []string{"result"}),
		commitDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "privacy_rules_commit_duration_seconds",
			Help:    "Time taken to validate and persist a rule collection",
			Buckets: prometheus.DefBuckets,
		}),
		rollbacks: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "privacy_rules_rollbacks_total",
			Help: "Total number of discarded edit sessions",
		}),
		loadFailures: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "privacy_rules_load_failures_total",
			Help: "Total number of failed rule loads",
		}),
		workingRules: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "privacy_rules_working_rules",
			Help: "Number of rules in the working set",
		}),
		savedRules: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "privacy_rules_saved_rules",
			Help: "Number of rules in the saved set",
		}),
		fieldErrors: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "privacy_rules_field_errors",
			Help: "Number of outstanding field validation errors",
		}),
		logger: logger,
	}

	return collector
}

func (m *MetricsCollector) RecordCommit(duration time.Duration, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commits.WithLabelValues(result).Inc()
	m.commitDuration.Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordRollback() {
	m.rollbacks.Inc()
}

func (m *MetricsCollector) RecordLoadFailure() {
	m.loadFailures.Inc()
}

func (m *MetricsCollector) UpdateCollection(working, saved, fieldErrors int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workingRules.Set(float64(working))
	m.savedRules.Set(float64(saved))
	m.fieldErrors.Set(float64(fieldErrors))
}

func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
