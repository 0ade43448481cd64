package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}

// IncFormSubmission is a no-op.
func (n *NoopRecorder) IncFormSubmission(form, status string) {}

// IncCalculatorRun is a no-op.
func (n *NoopRecorder) IncCalculatorRun(tool, status string) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited(group string) {}

// IncSideEffect is a no-op.
func (n *NoopRecorder) IncSideEffect(kind, status string) {}
