package calculator

import "sort"

// Readiness tiers shared by the readiness calculators.
const (
	TierNotReady    = "not_ready"
	TierDeveloping  = "developing"
	TierAlmostReady = "almost_ready"
	TierReady       = "ready"
)

// minOperatingYears is the track record franchisors are expected to show.
const minOperatingYears = 2

// FranchiseInput holds 1..5 self-ratings for each franchise readiness area.
type FranchiseInput struct {
	Profitability     int `json:"profitability" validate:"min=1,max=5"`
	UnitEconomics     int `json:"unit_economics" validate:"min=1,max=5"`
	DocumentedSystems int `json:"documented_systems" validate:"min=1,max=5"`
	Replicability     int `json:"replicability" validate:"min=1,max=5"`
	BrandStrength     int `json:"brand_strength" validate:"min=1,max=5"`
	TrainingProgram   int `json:"training_program" validate:"min=1,max=5"`
	LegalProtection   int `json:"legal_protection" validate:"min=1,max=5"`
	CapitalReserves   int `json:"capital_reserves" validate:"min=1,max=5"`
	YearsInOperation  int `json:"years_in_operation" validate:"gte=0,lte=200"`
}

// ReadinessResult is shared by the franchise and fundraise calculators.
type ReadinessResult struct {
	Score          int      `json:"score"`
	Tier           string   `json:"tier"`
	Gaps           []string `json:"gaps"`
	SuggestedRound string   `json:"suggested_round,omitempty"`
}

// FranchiseReadiness scores how prepared a business is to franchise.
func FranchiseReadiness(in FranchiseInput) (ReadinessResult, error) {
	ratings := []struct {
		key    string
		weight float64
		rating int
	}{
		{"profitability", 0.20, in.Profitability},
		{"unit_economics", 0.15, in.UnitEconomics},
		{"documented_systems", 0.15, in.DocumentedSystems},
		{"replicability", 0.15, in.Replicability},
		{"brand_strength", 0.10, in.BrandStrength},
		{"training_program", 0.10, in.TrainingProgram},
		{"legal_protection", 0.10, in.LegalProtection},
		{"capital_reserves", 0.05, in.CapitalReserves},
	}

	factors := make([]weighted, 0, len(ratings))
	for _, r := range ratings {
		if r.rating < 1 || r.rating > 5 {
			return ReadinessResult{}, ErrInvalidInput
		}
		factors = append(factors, weighted{key: r.key, weight: r.weight, value: ratingFactor(r.rating)})
	}
	if in.YearsInOperation < 0 {
		return ReadinessResult{}, ErrInvalidInput
	}

	score := scoreFromWeights(factors)

	gapRatings := make([]weighted, 0, len(ratings))
	for i, r := range ratings {
		if r.rating <= 2 {
			gapRatings = append(gapRatings, factors[i])
		}
	}
	sort.SliceStable(gapRatings, func(i, j int) bool {
		return gapRatings[i].weight > gapRatings[j].weight
	})

	result := ReadinessResult{
		Score: score,
		Tier:  franchiseTier(score),
		Gaps:  make([]string, 0, len(gapRatings)+1),
	}
	for _, g := range gapRatings {
		result.Gaps = append(result.Gaps, g.key)
	}

	if in.YearsInOperation < minOperatingYears {
		result.Gaps = append(result.Gaps, "operating_history")
		if result.Tier == TierReady {
			result.Tier = TierDeveloping
		}
	}

	return result, nil
}

func franchiseTier(score int) string {
	switch {
	case score < 40:
		return TierNotReady
	case score < 70:
		return TierDeveloping
	default:
		return TierReady
	}
}
