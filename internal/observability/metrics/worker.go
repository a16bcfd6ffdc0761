package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

// WorkerMetrics tracks the vision worker's throughput and, more
// importantly, its spend signals: escalation rate, extraction attempt
// counts and estimated cost are what the cost dashboards alert on.
type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal       *prometheus.CounterVec
	processDuration    *prometheus.HistogramVec
	processInFlight    prometheus.Gauge
	escalationsTotal   *prometheus.CounterVec
	extractionAttempts prometheus.Counter
	estimatedCostUSD   *prometheus.CounterVec
	queueLag           prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradedocs",
			Subsystem: "worker",
			Name:      "documents_processed_total",
			Help:      "Total processed documents by outcome.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tradedocs",
			Subsystem: "worker",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "tradedocs",
			Subsystem:   "worker",
			Name:        "documents_in_flight",
			Help:        "Number of documents currently being processed.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	escalationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradedocs",
			Subsystem: "worker",
			Name:      "classification_total",
			Help:      "Classifications by settled model tier.",
		},
		[]string{"service", "tier"},
	)
	extractionAttempts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "tradedocs",
			Subsystem:   "worker",
			Name:        "extraction_attempts_total",
			Help:        "Upstream extraction calls issued.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	estimatedCostUSD := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradedocs",
			Subsystem: "worker",
			Name:      "estimated_cost_usd_total",
			Help:      "Accumulated estimated inference spend in USD.",
		},
		[]string{"service"},
	)
	queueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "tradedocs",
			Subsystem:   "worker",
			Name:        "queue_lag_seconds",
			Help:        "Delay between file event enqueue and processing start.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, escalationsTotal, extractionAttempts, estimatedCostUSD, queueLag)

	return &WorkerMetrics{
		registry:           registry,
		processTotal:       processTotal,
		processDuration:    processDuration,
		processInFlight:    processInFlight,
		escalationsTotal:   escalationsTotal,
		extractionAttempts: extractionAttempts,
		estimatedCostUSD:   estimatedCostUSD,
		queueLag:           queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

// FinishDocument records one completed invocation from its stored
// record; rec is nil for duplicate-delivery skips and failures.
func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, rec *domain.ProcessedRecord, err error) {
	m.processInFlight.Dec()

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case rec == nil:
		status = "skipped"
	}
	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())

	if rec == nil {
		return
	}
	m.escalationsTotal.WithLabelValues(service, string(rec.Classification.ModelTierUsed)).Inc()
	m.extractionAttempts.Add(float64(rec.Extraction.Retry.AttemptsMade))
	cost, _ := rec.Costs.TotalCost.Float64()
	m.estimatedCostUSD.WithLabelValues(service).Add(cost)
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}
