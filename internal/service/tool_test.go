package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbeam/leadsite/internal/calculator"
	"github.com/northbeam/leadsite/internal/crm"
	"github.com/northbeam/leadsite/internal/mail"
	"github.com/northbeam/leadsite/internal/validation"
)

func newToolService(t *testing.T) (*ToolService, *memStore, *harness) {
	t.Helper()
	h := newHarness(t)
	store := newMemStore()
	svc := NewToolService(store, h.notifier, "en", discardLogger(), h.metrics)
	svc.now = func() time.Time { return fixedNow }
	return svc, store, h
}

const roiInput = `{"investment_cost":12000,"monthly_benefit":2000,"monthly_cost":500,"horizon_months":12}`

func TestToolService_Run(t *testing.T) {
	svc, store, h := newToolService(t)

	out, err := svc.Run(context.Background(), "roi", ToolRequest{Input: json.RawMessage(roiInput)}, RequestMeta{IP: "198.51.100.1"})
	require.NoError(t, err)

	res, ok := out.Result.(calculator.ROIResult)
	require.True(t, ok)
	want, err := calculator.ROI(calculator.ROIInput{InvestmentCost: 12000, MonthlyBenefit: 2000, MonthlyCost: 500, HorizonMonths: 12})
	require.NoError(t, err)
	assert.Equal(t, want, res)

	require.Len(t, store.submissions, 1)
	sub := store.submissions[0]
	assert.Equal(t, out.SubmissionID, sub.ID)
	assert.Equal(t, "roi", sub.Tool)
	assert.JSONEq(t, roiInput, string(sub.Input))
	assert.Equal(t, "en", sub.Locale)

	// No email, no side effects.
	assert.Empty(t, h.mailer.sent)
	assert.Empty(t, h.crm.events)
	assert.Equal(t, uint64(1), h.metrics.Snapshot().CalculatorRuns["roi|success"])
}

func TestToolService_RunWithEmailSendsResults(t *testing.T) {
	svc, _, h := newToolService(t)

	_, err := svc.Run(context.Background(), "roi", ToolRequest{Input: json.RawMessage(roiInput), Email: "X@Example.com", Locale: "de"}, RequestMeta{})
	require.NoError(t, err)

	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "x@example.com", h.mailer.sent[0].To)
	assert.Equal(t, mail.TemplateToolResults, h.mailer.sent[0].Tag)
	assert.Equal(t, "Ihre Ergebnisse: roi", h.mailer.sent[0].Subject)
	assert.Equal(t, []string{crm.EventToolSubmitted}, h.eventTypes())
}

func TestToolService_UnknownTool(t *testing.T) {
	svc, _, _ := newToolService(t)

	_, err := svc.Run(context.Background(), "horoscope", ToolRequest{Input: json.RawMessage(`{}`)}, RequestMeta{})
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestToolService_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		input   string
		message string
	}{
		{"missing input", "roi", ``, "input is required"},
		{"null input", "roi", `null`, "input is required"},
		{"wrong type", "roi", `{"investment_cost":"lots"}`, "input is malformed: investment_cost has the wrong type"},
		{"schema violation", "roi", `{"investment_cost":0,"monthly_benefit":1}`, "input.investment_cost must be greater than 0"},
		{"nested field", "bottleneck", `{"demand_per_week":10,"stages":[{"name":"a","capacity_per_week":5},{"name":"","capacity_per_week":5}]}`, "input.stages[1].name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newToolService(t)

			_, err := svc.Run(context.Background(), tt.tool, ToolRequest{Input: json.RawMessage(tt.input)}, RequestMeta{})
			var verr *validation.Error
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.message, verr.Error())
			assert.Empty(t, store.submissions)
		})
	}
}

func TestToolService_UnknownFieldRejected(t *testing.T) {
	svc, _, _ := newToolService(t)

	_, err := svc.Run(context.Background(), "roi", ToolRequest{Input: json.RawMessage(`{"investment_cost":1,"bogus":true}`)}, RequestMeta{})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "json", verr.Tag)
}

func TestToolService_CalculationError(t *testing.T) {
	svc, store, _ := newToolService(t)

	input := `{"fixed_costs":1000,"price_per_unit":10,"variable_cost_per_unit":10}`
	_, err := svc.Run(context.Background(), "break-even", ToolRequest{Input: json.RawMessage(input)}, RequestMeta{})

	var cerr *CalculationError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.ErrorIs(t, err, calculator.ErrNoContributionMargin)
	assert.Empty(t, store.submissions)
}

func TestToolService_StoreFailureDegrades(t *testing.T) {
	svc, store, h := newToolService(t)
	store.err = errStoreDown

	out, err := svc.Run(context.Background(), "roi", ToolRequest{Input: json.RawMessage(roiInput), Email: "a@example.com"}, RequestMeta{})
	require.NoError(t, err)
	assert.Empty(t, out.SubmissionID)
	assert.NotNil(t, out.Result)
	assert.Len(t, h.mailer.sent, 1)
	assert.Equal(t, uint64(1), h.metrics.Snapshot().CalculatorRuns["roi|degraded"])
}

func TestToolService_InvalidEmail(t *testing.T) {
	svc, _, _ := newToolService(t)

	_, err := svc.Run(context.Background(), "roi", ToolRequest{Input: json.RawMessage(roiInput), Email: "nope"}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email address", err.Error())
}

func TestCalculate(t *testing.T) {
	result, err := Calculate("roi", json.RawMessage(roiInput))
	require.NoError(t, err)
	roi, ok := result.(calculator.ROIResult)
	require.True(t, ok, "got %T", result)
	assert.Equal(t, 1500.0, roi.NetMonthlyBenefit)

	_, err = Calculate("tarot", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownTool)

	_, err = Calculate("roi", json.RawMessage(`{"investment_cost":-5,"monthly_benefit":1,"monthly_cost":0}`))
	var verr *validation.Error
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "input.investment_cost", verr.Field)
}
