package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRecorder(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.ObserveHTTPRequest("POST", "/api/contact", 200, time.Millisecond)
	m.IncFormSubmission("contact", StatusSuccess)
	m.IncFormSubmission("contact", StatusSuccess)
	m.IncCalculatorRun("roi", StatusSuccess)
	m.IncRateLimited("forms")
	m.IncSideEffect("mail.autoreply", StatusFailed)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.HTTPRequests["POST|/api/contact|200"])
	assert.Equal(t, uint64(2), snap.FormSubmissions[Key("contact", StatusSuccess)])
	assert.Equal(t, uint64(1), snap.CalculatorRuns["roi|success"])
	assert.Equal(t, uint64(1), snap.RateLimited["forms"])
	assert.Equal(t, uint64(1), snap.SideEffects["mail.autoreply|failed"])

	// Snapshots are copies.
	snap.RateLimited["forms"] = 99
	assert.Equal(t, uint64(1), m.Snapshot().RateLimited["forms"])
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	r := NewNoop()
	r.ObserveHTTPRequest("GET", "/", 200, time.Second)
	r.IncFormSubmission("contact", StatusSuccess)
	r.IncCalculatorRun("roi", StatusSuccess)
	r.IncRateLimited("tools")
	r.IncSideEffect("crm", StatusSuccess)
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.IncFormSubmission("newsletter", StatusSuccess)
	p.IncFormSubmission("newsletter", StatusSuccess)
	p.IncRateLimited("tools")

	families, err := p.Registry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["leadsite_form_submissions_total"])
	assert.Equal(t, 1.0, values["leadsite_rate_limited_total"])
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.ObserveHTTPRequest("GET", "/healthz", 200, 3*time.Millisecond)
	p.IncCalculatorRun("break-even", StatusInvalid)

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `leadsite_http_requests_total{method="GET",route="/healthz",status="200"} 1`))
	assert.True(t, strings.Contains(text, `leadsite_calculator_runs_total{status="invalid",tool="break-even"} 1`))
	assert.True(t, strings.Contains(text, "leadsite_http_request_duration_seconds_bucket"))
	assert.True(t, strings.Contains(text, "go_goroutines"))
}
