// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Status labels shared by the counters below.
const (
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusInvalid  = "invalid"
	StatusSpam     = "spam"
	StatusDegraded = "degraded"
	StatusDropped  = "dropped"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// HTTP metrics. route is the chi route pattern, never the raw path.
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)

	// Lead capture metrics
	IncFormSubmission(form, status string)
	IncCalculatorRun(tool, status string)

	// Abuse protection
	IncRateLimited(group string)

	// Fire-and-forget email and CRM calls
	IncSideEffect(kind, status string)
}
