package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/northbeam/leadsite/internal/calculator"
)

// AssessmentKind selects which readiness assessment a session runs.
type AssessmentKind string

const (
	AssessmentFranchise AssessmentKind = "franchise"
	AssessmentFundraise AssessmentKind = "fundraise"
)

// Tool returns the calculator that scores this kind of assessment.
func (k AssessmentKind) Tool() (calculator.Tool, bool) {
	switch k {
	case AssessmentFranchise:
		return calculator.ToolFranchiseReadiness, true
	case AssessmentFundraise:
		return calculator.ToolFundraiseReadiness, true
	}
	return "", false
}

// AssessmentStatus is the lifecycle state of an assessment session.
type AssessmentStatus string

const (
	AssessmentStarted   AssessmentStatus = "started"
	AssessmentCompleted AssessmentStatus = "completed"
)

// ErrAssessmentCompleted is returned when completing a finished session.
var ErrAssessmentCompleted = errors.New("assessment already completed")

// AssessmentSession is a multi-step readiness questionnaire.
type AssessmentSession struct {
	ID          string           `json:"id"`
	Kind        AssessmentKind   `json:"kind"`
	Status      AssessmentStatus `json:"status"`
	Email       string           `json:"email,omitempty"`
	Locale      string           `json:"locale"`
	Answers     json.RawMessage  `json:"answers,omitempty"`
	Result      json.RawMessage  `json:"result,omitempty"`
	Score       *int             `json:"score,omitempty"`
	Tier        *string          `json:"tier,omitempty"`
	IPHash      string           `json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// IsCompleted returns true once a result has been recorded.
func (a *AssessmentSession) IsCompleted() bool {
	return a.Status == AssessmentCompleted
}

// Complete records answers and the computed result.
func (a *AssessmentSession) Complete(answers, result json.RawMessage, score int, tier string, now time.Time) error {
	if a.IsCompleted() {
		return ErrAssessmentCompleted
	}
	a.Status = AssessmentCompleted
	a.Answers = answers
	a.Result = result
	a.Score = &score
	a.Tier = &tier
	a.CompletedAt = &now
	return nil
}
