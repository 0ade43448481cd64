package calculator

// Product stages accepted by FundraiseReadiness.
const (
	StageIdea     = "idea"
	StageMVP      = "mvp"
	StageLaunched = "launched"
	StageScaling  = "scaling"
)

// Suggested funding rounds.
const (
	RoundPreSeed = "pre_seed"
	RoundSeed    = "seed"
	RoundSeriesA = "series_a"
)

var productStageValue = map[string]float64{
	StageIdea:     0,
	StageMVP:      0.33,
	StageLaunched: 0.66,
	StageScaling:  1,
}

// FundraiseInput describes a company's traction and preparation.
type FundraiseInput struct {
	MonthlyRevenue       float64 `json:"monthly_revenue" validate:"gte=0"`
	MonthlyGrowthPercent float64 `json:"monthly_growth_percent" validate:"gte=-100,lte=1000"`
	RunwayMonths         float64 `json:"runway_months" validate:"gte=0,lte=240"`
	TeamCompleteness     int     `json:"team_completeness" validate:"min=1,max=5"`
	ProductStage         string  `json:"product_stage" validate:"required,oneof=idea mvp launched scaling"`
	CustomerCount        int     `json:"customer_count" validate:"gte=0"`
	PitchDeckReady       bool    `json:"pitch_deck_ready"`
	FinancialModelReady  bool    `json:"financial_model_ready"`
}

// FundraiseReadiness scores how prepared a company is to raise capital.
func FundraiseReadiness(in FundraiseInput) (ReadinessResult, error) {
	stage, ok := productStageValue[in.ProductStage]
	if !ok {
		return ReadinessResult{}, ErrInvalidInput
	}
	if in.MonthlyRevenue < 0 || in.RunwayMonths < 0 || in.CustomerCount < 0 {
		return ReadinessResult{}, ErrInvalidInput
	}
	if in.MonthlyGrowthPercent < -100 || in.TeamCompleteness < 1 || in.TeamCompleteness > 5 {
		return ReadinessResult{}, ErrInvalidInput
	}
	if !isFinite(in.MonthlyRevenue, in.MonthlyGrowthPercent, in.RunwayMonths) {
		return ReadinessResult{}, ErrInvalidInput
	}

	materials := 0.0
	if in.PitchDeckReady {
		materials += 0.5
	}
	if in.FinancialModelReady {
		materials += 0.5
	}

	factors := []weighted{
		{key: "traction", weight: 0.20, value: clamp01(in.MonthlyRevenue / 100000)},
		{key: "growth", weight: 0.20, value: clamp01(in.MonthlyGrowthPercent / 20)},
		{key: "runway", weight: 0.10, value: clamp01(in.RunwayMonths / 18)},
		{key: "team", weight: 0.15, value: ratingFactor(in.TeamCompleteness)},
		{key: "product", weight: 0.15, value: stage},
		{key: "customers", weight: 0.10, value: clamp01(float64(in.CustomerCount) / 100)},
		{key: "materials", weight: 0.10, value: materials},
	}

	score := scoreFromWeights(factors)

	result := ReadinessResult{
		Score:          score,
		Tier:           fundraiseTier(score),
		Gaps:           []string{},
		SuggestedRound: suggestedRound(in.ProductStage, in.MonthlyRevenue),
	}
	for _, f := range factors {
		if clamp01(f.value) < 0.5 {
			result.Gaps = append(result.Gaps, f.key)
		}
	}

	return result, nil
}

func fundraiseTier(score int) string {
	switch {
	case score < 40:
		return TierNotReady
	case score < 70:
		return TierAlmostReady
	default:
		return TierReady
	}
}

func suggestedRound(stage string, monthlyRevenue float64) string {
	switch {
	case stage == StageIdea || stage == StageMVP || monthlyRevenue < 10000:
		return RoundPreSeed
	case monthlyRevenue < 100000:
		return RoundSeed
	default:
		return RoundSeriesA
	}
}
