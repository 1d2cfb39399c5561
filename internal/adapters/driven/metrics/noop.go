package metrics

import (
	"github.com/vrk-kpa/eidas-bridge/internal/core/ports"
)

// NoopMetricsRecorder is a no-op implementation for when metrics are disabled.
// All methods are safe to call and do nothing.
type NoopMetricsRecorder struct{}

// NewNoopMetricsRecorder creates a new no-op metrics recorder.
func NewNoopMetricsRecorder() *NoopMetricsRecorder {
	return &NoopMetricsRecorder{}
}

// RecordTokenIssued is a no-op.
func (n *NoopMetricsRecorder) RecordTokenIssued(flow string) {}

// RecordTokenRedeemed is a no-op.
func (n *NoopMetricsRecorder) RecordTokenRedeemed(flow string, success bool) {}

// RecordStorageFailure is a no-op.
func (n *NoopMetricsRecorder) RecordStorageFailure(operation string) {}

// Ensure NoopMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*NoopMetricsRecorder)(nil)
