package ports

// Token flows, used as metric labels.
const (
	FlowRequest  = "request"
	FlowResponse = "response"
)

// MetricsRecorder is the port interface for recording metrics.
// Implementations are adapters (Prometheus for production, noop for
// disabled/testing).
type MetricsRecorder interface {
	// RecordTokenIssued records a freshly issued light token.
	RecordTokenIssued(flow string)

	// RecordTokenRedeemed records a token redemption attempt.
	RecordTokenRedeemed(flow string, success bool)

	// RecordStorageFailure records a failed light storage operation.
	RecordStorageFailure(operation string)
}
