package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/northbeam/leadsite/internal/calculator"
	"github.com/northbeam/leadsite/internal/crm"
	"github.com/northbeam/leadsite/internal/mail"
	"github.com/northbeam/leadsite/internal/metrics"
	"github.com/northbeam/leadsite/internal/model"
	"github.com/northbeam/leadsite/internal/validation"
)

// SubmissionStore persists calculator runs.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, s *model.ToolSubmission) error
}

// ToolRequest is the body of a calculator call.
type ToolRequest struct {
	Input  json.RawMessage `json:"input"`
	Email  string          `json:"email" validate:"omitempty,email,max=254"`
	Locale string          `json:"locale" validate:"omitempty,locale"`
}

// ToolOutcome is a computed result. SubmissionID is empty when the run
// could not be stored.
type ToolOutcome struct {
	Tool         calculator.Tool
	Result       any
	SubmissionID string
}

// ToolService runs calculators and records submissions.
type ToolService struct {
	store         SubmissionStore
	notifier      *Notifier
	metrics       metrics.Recorder
	logger        *slog.Logger
	defaultLocale string
	now           Clock
}

// NewToolService creates a new ToolService.
func NewToolService(store SubmissionStore, notifier *Notifier, defaultLocale string, logger *slog.Logger, recorder metrics.Recorder) *ToolService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ToolService{
		store:         store,
		notifier:      notifier,
		metrics:       recorder,
		logger:        componentLogger(logger, "tool"),
		defaultLocale: defaultLocale,
		now:           utcNow,
	}
}

// Run computes tool for req. Storage failures are logged and do not
// affect the returned result.
func (s *ToolService) Run(ctx context.Context, tool string, req ToolRequest, meta RequestMeta) (*ToolOutcome, error) {
	t := calculator.Tool(tool)
	if !t.IsValid() {
		return nil, ErrUnknownTool
	}

	trim(&req.Email)
	trim(&req.Locale)
	if err := validation.Struct(req); err != nil {
		s.metrics.IncCalculatorRun(tool, metrics.StatusInvalid)
		return nil, err
	}

	input, result, err := compute(t, "input", req.Input)
	if err != nil {
		s.metrics.IncCalculatorRun(tool, metrics.StatusInvalid)
		return nil, err
	}

	outcome := &ToolOutcome{Tool: t, Result: result}
	email := validation.NormalizeEmail(req.Email)
	locale := validation.NormalizeLocale(req.Locale, s.defaultLocale)

	submission, err := s.record(ctx, t, email, locale, input, result, meta)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to store tool submission", "tool", tool, "error", err)
		s.metrics.IncCalculatorRun(tool, metrics.StatusDegraded)
	} else {
		outcome.SubmissionID = submission.ID
		s.metrics.IncCalculatorRun(tool, metrics.StatusSuccess)
	}

	if email != "" {
		fields, err := mail.ResultFields(result)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to format results email", "tool", tool, "error", err)
		} else {
			s.notifier.Mail(KindMailResults, locale, mail.TemplateToolResults, email, "", mail.ToolResultsData{
				Tool:    tool,
				Fields:  fields,
				SiteURL: s.notifier.SiteURL(),
			})
		}
		s.notifier.Event(crm.EventToolSubmitted, map[string]any{
			"submission_id": outcome.SubmissionID,
			"tool":          tool,
			"email":         email,
			"locale":        locale,
			"result":        result,
		})
	}

	return outcome, nil
}

func (s *ToolService) record(ctx context.Context, t calculator.Tool, email, locale string, input, result any, meta RequestMeta) (*model.ToolSubmission, error) {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	submission := &model.ToolSubmission{
		ID:        newRecordID(),
		Tool:      string(t),
		Email:     email,
		Locale:    locale,
		Input:     inputJSON,
		Result:    resultJSON,
		IPHash:    meta.IPHash(),
		UserAgent: meta.userAgent(),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateSubmission(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// compute decodes raw into the calculator input for t, validates it and
// runs the calculator. field names the JSON member raw came from.
func compute(t calculator.Tool, field string, raw json.RawMessage) (input, result any, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil, &validation.Error{Field: field, Tag: "required", Message: field + " is required"}
	}

	input, err = calculator.NewInput(t)
	if err != nil {
		return nil, nil, ErrUnknownTool
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(input); err != nil {
		return nil, nil, &validation.Error{Field: field, Tag: "json", Message: field + " is malformed: " + decodeMessage(err)}
	}

	if err := validation.Struct(input); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			prefixed := *verr
			prefixed.Field = field + "." + verr.Field
			prefixed.Message = field + "." + verr.Message
			return nil, nil, &prefixed
		}
		return nil, nil, err
	}

	result, err = calculator.Run(t, input)
	if err != nil {
		return nil, nil, &CalculationError{Err: err}
	}
	return input, result, nil
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field + " has the wrong type"
	}
	return err.Error()
}

// Calculate validates raw as the input of tool and runs the calculator
// without recording anything.
func Calculate(tool string, raw json.RawMessage) (any, error) {
	t := calculator.Tool(tool)
	if !t.IsValid() {
		return nil, ErrUnknownTool
	}
	_, result, err := compute(t, "input", raw)
	return result, err
}
