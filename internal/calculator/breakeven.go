package calculator

import "math"

// BreakEvenInput describes a unit-based cost structure.
type BreakEvenInput struct {
	FixedCosts          float64 `json:"fixed_costs" validate:"gte=0"`
	PricePerUnit        float64 `json:"price_per_unit" validate:"gt=0"`
	VariableCostPerUnit float64 `json:"variable_cost_per_unit" validate:"gte=0"`
	ExpectedUnits       float64 `json:"expected_units" validate:"gte=0"`
}

// BreakEvenResult is the outcome of a break-even calculation.
type BreakEvenResult struct {
	ContributionMargin             float64  `json:"contribution_margin"`
	ContributionMarginRatioPercent float64  `json:"contribution_margin_ratio_percent"`
	BreakEvenUnits                 int64    `json:"break_even_units"`
	BreakEvenRevenue               float64  `json:"break_even_revenue"`
	ProjectedProfit                *float64 `json:"projected_profit,omitempty"`
	MarginOfSafetyPercent          *float64 `json:"margin_of_safety_percent,omitempty"`
}

// BreakEven computes how many units must be sold to cover fixed costs.
func BreakEven(in BreakEvenInput) (BreakEvenResult, error) {
	if in.FixedCosts < 0 || in.PricePerUnit <= 0 || in.VariableCostPerUnit < 0 || in.ExpectedUnits < 0 {
		return BreakEvenResult{}, ErrInvalidInput
	}
	if !isFinite(in.FixedCosts, in.PricePerUnit, in.VariableCostPerUnit, in.ExpectedUnits) {
		return BreakEvenResult{}, ErrInvalidInput
	}

	margin := in.PricePerUnit - in.VariableCostPerUnit
	if margin <= 0 {
		return BreakEvenResult{}, ErrNoContributionMargin
	}

	q := math.Ceil(in.FixedCosts / margin)
	if q >= math.MaxInt64 {
		return BreakEvenResult{}, ErrOutOfRange
	}
	units := int64(q)

	result := BreakEvenResult{
		ContributionMargin:             round2(margin),
		ContributionMarginRatioPercent: round2(margin / in.PricePerUnit * 100),
		BreakEvenUnits:                 units,
		BreakEvenRevenue:               round2(float64(units) * in.PricePerUnit),
	}

	if in.ExpectedUnits > 0 {
		profit := round2(in.ExpectedUnits*margin - in.FixedCosts)
		safety := round2((in.ExpectedUnits - float64(units)) / in.ExpectedUnits * 100)
		result.ProjectedProfit = &profit
		result.MarginOfSafetyPercent = &safety
		if !isFinite(profit, safety) {
			return BreakEvenResult{}, ErrOutOfRange
		}
	}
	if !isFinite(result.ContributionMargin, result.ContributionMarginRatioPercent, result.BreakEvenRevenue) {
		return BreakEvenResult{}, ErrOutOfRange
	}

	return result, nil
}
