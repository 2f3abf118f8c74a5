package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterWorkoutLogs         prometheus.Counter
	CounterPlanImports         prometheus.Counter
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter

	// gauges
	GaugeRequests   prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("backend", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("backend", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterWorkoutLogs := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_logs",
		Help:      "The total number of created workout logs",
	})
	counterPlanImports := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "plan_imports",
		Help:      "The total number of imported workout plan spreadsheets",
	})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "status_code"})

	return &Manager{
		CounterRequests:            counterRequests,
		CounterWorkoutLogs:         counterWorkoutLogs,
		CounterPlanImports:         counterPlanImports,
		CounterHandleRequestPanic:  counterHandleRequestPanic,
		CounterRateLimitedRequests: counterRateLimitedRequests,
		GaugeRequests:              gaugeRequests,
		GaugeLifeSignal:            gaugeLifeSignal,
		HistogramRequestDuration:   histogramRequestDuration,
	}
}
