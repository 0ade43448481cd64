package metrics

import (
	"strconv"
	"sync"
	"time"
)

// Snapshot is a copy of the in-memory counters, keyed by
// "label1|label2".
type Snapshot struct {
	HTTPRequests    map[string]uint64
	FormSubmissions map[string]uint64
	CalculatorRuns  map[string]uint64
	RateLimited     map[string]uint64
	SideEffects     map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu              sync.Mutex
	httpRequests    map[string]uint64
	formSubmissions map[string]uint64
	calculatorRuns  map[string]uint64
	rateLimited     map[string]uint64
	sideEffects     map[string]uint64
}

var _ Recorder = (*InMemoryRecorder)(nil)

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		httpRequests:    map[string]uint64{},
		formSubmissions: map[string]uint64{},
		calculatorRuns:  map[string]uint64{},
		rateLimited:     map[string]uint64{},
		sideEffects:     map[string]uint64{},
	}
}

// Key joins label values the way Snapshot keys are built.
func Key(labels ...string) string {
	key := ""
	for i, l := range labels {
		if i > 0 {
			key += "|"
		}
		key += l
	}
	return key
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		HTTPRequests:    copyCounts(m.httpRequests),
		FormSubmissions: copyCounts(m.formSubmissions),
		CalculatorRuns:  copyCounts(m.calculatorRuns),
		RateLimited:     copyCounts(m.rateLimited),
		SideEffects:     copyCounts(m.sideEffects),
	}
}

// ObserveHTTPRequest counts a served request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	m.inc(m.httpRequests, Key(method, route, strconv.Itoa(status)))
}

// IncFormSubmission counts a form submission outcome.
func (m *InMemoryRecorder) IncFormSubmission(form, status string) {
	m.inc(m.formSubmissions, Key(form, status))
}

// IncCalculatorRun counts a calculator run outcome.
func (m *InMemoryRecorder) IncCalculatorRun(tool, status string) {
	m.inc(m.calculatorRuns, Key(tool, status))
}

// IncRateLimited counts a rejected request.
func (m *InMemoryRecorder) IncRateLimited(group string) {
	m.inc(m.rateLimited, group)
}

// IncSideEffect counts a finished side effect.
func (m *InMemoryRecorder) IncSideEffect(kind, status string) {
	m.inc(m.sideEffects, Key(kind, status))
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, key string) {
	m.mu.Lock()
	counts[key]++
	m.mu.Unlock()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
