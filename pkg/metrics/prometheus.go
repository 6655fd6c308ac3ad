package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	plansComputed *prometheus.CounterVec
	replans       *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	confidence    *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		plansComputed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optrisk_plans_computed_total",
				Help: "Total number of risk plans computed",
			},
			[]string{"symbol", "trade_type", "mode"},
		),
		replans: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optrisk_replans_total",
				Help: "Total number of drift-triggered replans",
			},
			[]string{"symbol", "trigger"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optrisk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "optrisk_last_price",
				Help: "Last recorded underlying price for a symbol",
			},
			[]string{"symbol"},
		),
		confidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "optrisk_plan_confidence_score",
				Help: "Confidence score of the most recent plan per symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optrisk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPlanComputed records a computed plan.
func (r *Recorder) RecordPlanComputed(symbol, tradeType, mode string) {
	r.plansComputed.WithLabelValues(symbol, tradeType, mode).Inc()
}

// RecordReplan records a drift-triggered recompute.
func (r *Recorder) RecordReplan(symbol, trigger string) {
	r.replans.WithLabelValues(symbol, trigger).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last underlying price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordConfidence records the confidence score of the latest plan.
func (r *Recorder) RecordConfidence(symbol string, score float64) {
	r.confidence.WithLabelValues(symbol).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
