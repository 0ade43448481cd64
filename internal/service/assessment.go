package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/northbeam/leadsite/internal/calculator"
	"github.com/northbeam/leadsite/internal/crm"
	"github.com/northbeam/leadsite/internal/mail"
	"github.com/northbeam/leadsite/internal/metrics"
	"github.com/northbeam/leadsite/internal/model"
	"github.com/northbeam/leadsite/internal/repository"
	"github.com/northbeam/leadsite/internal/validation"
)

// AssessmentStore persists assessment sessions.
type AssessmentStore interface {
	CreateAssessment(ctx context.Context, a *model.AssessmentSession) error
	GetAssessment(ctx context.Context, id string) (*model.AssessmentSession, error)
	CompleteAssessment(ctx context.Context, a *model.AssessmentSession) error
}

// StartAssessmentInput opens a new assessment session.
type StartAssessmentInput struct {
	Kind   string `json:"kind" validate:"required,oneof=franchise fundraise"`
	Email  string `json:"email" validate:"omitempty,email,max=254"`
	Locale string `json:"locale" validate:"omitempty,locale"`
}

// CompleteAssessmentInput carries the answers of a session.
type CompleteAssessmentInput struct {
	Answers json.RawMessage `json:"answers"`
}

// AssessmentOutcome is a completed session and its computed result.
// Stored is false when the completion could not be persisted.
type AssessmentOutcome struct {
	Session *model.AssessmentSession
	Result  calculator.ReadinessResult
	Stored  bool
}

// AssessmentService runs readiness assessments.
type AssessmentService struct {
	store         AssessmentStore
	notifier      *Notifier
	metrics       metrics.Recorder
	logger        *slog.Logger
	defaultLocale string
	now           Clock
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(store AssessmentStore, notifier *Notifier, defaultLocale string, logger *slog.Logger, recorder metrics.Recorder) *AssessmentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AssessmentService{
		store:         store,
		notifier:      notifier,
		metrics:       recorder,
		logger:        componentLogger(logger, "assessment"),
		defaultLocale: defaultLocale,
		now:           utcNow,
	}
}

// Start creates a session in the started state.
func (s *AssessmentService) Start(ctx context.Context, in StartAssessmentInput, meta RequestMeta) (*model.AssessmentSession, error) {
	trim(&in.Kind)
	trim(&in.Email)
	trim(&in.Locale)
	if err := validation.Struct(in); err != nil {
		s.metrics.IncFormSubmission(FormAssessment, metrics.StatusInvalid)
		return nil, err
	}

	session := &model.AssessmentSession{
		ID:        newRecordID(),
		Kind:      model.AssessmentKind(in.Kind),
		Status:    model.AssessmentStarted,
		Email:     validation.NormalizeEmail(in.Email),
		Locale:    validation.NormalizeLocale(in.Locale, s.defaultLocale),
		IPHash:    meta.IPHash(),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateAssessment(ctx, session); err != nil {
		s.metrics.IncFormSubmission(FormAssessment, metrics.StatusFailed)
		return nil, fmt.Errorf("failed to start assessment: %w", err)
	}
	s.metrics.IncFormSubmission(FormAssessment, metrics.StatusSuccess)
	return session, nil
}

// Get returns a session by ID.
func (s *AssessmentService) Get(ctx context.Context, id string) (*model.AssessmentSession, error) {
	if !model.IsValidID(id) {
		return nil, ErrAssessmentNotFound
	}
	session, err := s.store.GetAssessment(ctx, id)
	if errors.Is(err, repository.ErrAssessmentNotFound) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return session, nil
}

// Complete scores the answers with the kind's calculator and marks the
// session completed. A failed write is logged and the result still returned.
func (s *AssessmentService) Complete(ctx context.Context, id string, in CompleteAssessmentInput) (*AssessmentOutcome, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted() {
		return nil, model.ErrAssessmentCompleted
	}

	tool, ok := session.Kind.Tool()
	if !ok {
		return nil, fmt.Errorf("assessment %s has unknown kind %q", session.ID, session.Kind)
	}

	input, raw, err := compute(tool, "answers", in.Answers)
	if err != nil {
		s.metrics.IncCalculatorRun(string(tool), metrics.StatusInvalid)
		return nil, err
	}
	result, ok := raw.(calculator.ReadinessResult)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T for %s", raw, tool)
	}

	answers, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	if err := session.Complete(answers, resultJSON, result.Score, result.Tier, s.now()); err != nil {
		return nil, err
	}

	outcome := &AssessmentOutcome{Session: session, Result: result, Stored: true}
	switch err := s.store.CompleteAssessment(ctx, session); {
	case errors.Is(err, model.ErrAssessmentCompleted):
		return nil, err
	case errors.Is(err, repository.ErrAssessmentNotFound):
		return nil, ErrAssessmentNotFound
	case err != nil:
		s.logger.WarnContext(ctx, "failed to store assessment result", "assessment_id", session.ID, "error", err)
		s.metrics.IncCalculatorRun(string(tool), metrics.StatusDegraded)
		outcome.Stored = false
	default:
		s.metrics.IncCalculatorRun(string(tool), metrics.StatusSuccess)
	}

	if session.Email != "" {
		s.notifier.Mail(KindMailResults, session.Locale, mail.TemplateAssessmentResults, session.Email, "", mail.AssessmentResultsData{
			Kind:    string(session.Kind),
			Score:   result.Score,
			Tier:    result.Tier,
			Gaps:    result.Gaps,
			SiteURL: s.notifier.SiteURL(),
		})
		s.notifier.Event(crm.EventAssessmentCompleted, session)
	}

	return outcome, nil
}
