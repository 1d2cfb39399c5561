package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vrk-kpa/eidas-bridge/internal/core/ports"
)

// PrometheusMetricsRecorder records metrics using Prometheus.
type PrometheusMetricsRecorder struct {
	tokensIssuedTotal   *prometheus.CounterVec
	tokensRedeemedTotal *prometheus.CounterVec
	storeFailuresTotal  *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder creates a new Prometheus metrics recorder
// using the default Prometheus registry.
func NewPrometheusMetricsRecorder() *PrometheusMetricsRecorder {
	return NewPrometheusMetricsRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsRecorderWithRegistry creates a new Prometheus metrics recorder
// with a custom registry. Use this for testing.
func NewPrometheusMetricsRecorderWithRegistry(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	tokensIssuedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eidas_bridge_tokens_issued_total",
		Help: "Total light tokens issued",
	}, []string{"flow"})

	tokensRedeemedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eidas_bridge_tokens_redeemed_total",
		Help: "Total light token redemption attempts",
	}, []string{"flow", "result"})

	storeFailuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eidas_bridge_store_failures_total",
		Help: "Total light storage operation failures",
	}, []string{"operation"})

	reg.MustRegister(
		tokensIssuedTotal,
		tokensRedeemedTotal,
		storeFailuresTotal,
	)

	return &PrometheusMetricsRecorder{
		tokensIssuedTotal:   tokensIssuedTotal,
		tokensRedeemedTotal: tokensRedeemedTotal,
		storeFailuresTotal:  storeFailuresTotal,
	}
}

// RecordTokenIssued records an issued light token.
func (p *PrometheusMetricsRecorder) RecordTokenIssued(flow string) {
	p.tokensIssuedTotal.WithLabelValues(flow).Inc()
}

// RecordTokenRedeemed records a light token redemption attempt.
func (p *PrometheusMetricsRecorder) RecordTokenRedeemed(flow string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	p.tokensRedeemedTotal.WithLabelValues(flow, result).Inc()
}

// RecordStorageFailure records a failed light storage operation.
func (p *PrometheusMetricsRecorder) RecordStorageFailure(operation string) {
	p.storeFailuresTotal.WithLabelValues(operation).Inc()
}

// Ensure PrometheusMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*PrometheusMetricsRecorder)(nil)
