// Package calculator implements the business calculators offered on the site.
// Every calculator is a pure function: the same input always yields the same
// result and nothing is read from or written to the outside world.
package calculator

import (
	"errors"
	"math"
)

// Tool identifies a calculator by its public slug.
type Tool string

const (
	ToolROI                Tool = "roi"
	ToolBreakEven          Tool = "break-even"
	ToolBurnoutRisk        Tool = "burnout-risk"
	ToolCostLeakage        Tool = "cost-leakage"
	ToolBottleneck         Tool = "bottleneck"
	ToolFranchiseReadiness Tool = "franchise-readiness"
	ToolFundraiseReadiness Tool = "fundraise-readiness"
)

// Tools lists every calculator slug in display order.
var Tools = []Tool{
	ToolROI,
	ToolBreakEven,
	ToolBurnoutRisk,
	ToolCostLeakage,
	ToolBottleneck,
	ToolFranchiseReadiness,
	ToolFundraiseReadiness,
}

// IsValid reports whether t names a known calculator.
func (t Tool) IsValid() bool {
	for _, known := range Tools {
		if t == known {
			return true
		}
	}
	return false
}

// Calculator errors.
var (
	ErrInvalidInput         = errors.New("invalid calculator input")
	ErrNoContributionMargin = errors.New("price per unit must exceed variable cost per unit")
	ErrNoStages             = errors.New("at least one stage is required")
	ErrOutOfRange           = errors.New("input values are too large to produce a result")
)

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clamp01 limits v to the closed interval [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ratingFactor maps a 1..5 rating onto [0, 1].
func ratingFactor(rating int) float64 {
	return clamp01(float64(rating-1) / 4)
}

// scoreFromWeights turns weighted factors into a 0..100 integer score.
func scoreFromWeights(factors []weighted) int {
	var sum float64
	for _, f := range factors {
		sum += f.weight * clamp01(f.value)
	}
	score := int(math.Round(sum * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

type weighted struct {
	key    string
	weight float64
	value  float64
}

func isFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
