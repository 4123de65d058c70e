// Package metrics holds the prometheus collectors for gateway traffic,
// evaluations and history writes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "promptcoach"

// Recorder owns a private registry so tests can build as many as they need.
type Recorder struct {
	registry *prometheus.Registry

	GatewayRequests *prometheus.CounterVec
	GatewayLatency  *prometheus.HistogramVec
	Evaluations     *prometheus.CounterVec
	Scores          prometheus.Histogram
	HistoryWrites   *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		GatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Gateway generate calls by output mode and outcome.",
		}, []string{"mode", "outcome"}),
		GatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Gateway generate call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"mode"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Submission evaluations by outcome.",
		}, []string{"outcome"}),
		Scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_score",
			Help:      "Scores returned by the coach.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		HistoryWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_writes_total",
			Help:      "History appends by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(
		r.GatewayRequests,
		r.GatewayLatency,
		r.Evaluations,
		r.Scores,
		r.HistoryWrites,
		prometheus.NewGoCollector(),
	)
	return r
}

// ObserveGateway records one gateway call.
func (r *Recorder) ObserveGateway(structured bool, started time.Time, err error) {
	if r == nil {
		return
	}
	mode := "text"
	if structured {
		mode = "json"
	}
	r.GatewayRequests.WithLabelValues(mode, outcome(err)).Inc()
	r.GatewayLatency.WithLabelValues(mode).Observe(time.Since(started).Seconds())
}

func (r *Recorder) ObserveEvaluation(score float64, err error) {
	if r == nil {
		return
	}
	r.Evaluations.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		r.Scores.Observe(score)
	}
}

func (r *Recorder) ObserveHistoryWrite(err error) {
	if r == nil {
		return
	}
	r.HistoryWrites.WithLabelValues(outcome(err)).Inc()
}

// Handler exposes the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
