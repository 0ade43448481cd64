package calculator

import "sort"

// Risk levels for the burnout calculator.
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// BurnoutInput captures a founder's or manager's working pattern.
type BurnoutInput struct {
	HoursPerWeek        float64 `json:"hours_per_week" validate:"gte=0,lte=120"`
	SleepHours          float64 `json:"sleep_hours" validate:"gte=0,lte=24"`
	VacationDaysPerYear int     `json:"vacation_days_per_year" validate:"gte=0,lte=365"`
	DaysOffPerWeek      int     `json:"days_off_per_week" validate:"gte=0,lte=7"`
	StressLevel         int     `json:"stress_level" validate:"min=1,max=10"`
	DelegationLevel     int     `json:"delegation_level" validate:"min=1,max=5"`
}

// BurnoutFactor is one weighted contributor to the burnout score.
type BurnoutFactor struct {
	Key          string  `json:"key"`
	Value        float64 `json:"value"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// BurnoutResult is the outcome of the burnout risk assessment.
type BurnoutResult struct {
	Score           int             `json:"score"`
	Level           string          `json:"level"`
	Factors         []BurnoutFactor `json:"factors"`
	Recommendations []string        `json:"recommendations"`
}

var burnoutRecommendations = map[string]string{
	"workload":   "reduce_weekly_hours",
	"sleep":      "protect_sleep",
	"recovery":   "schedule_time_off",
	"stress":     "address_stressors",
	"delegation": "delegate_more",
}

// BurnoutRisk scores burnout risk on a 0..100 scale.
func BurnoutRisk(in BurnoutInput) (BurnoutResult, error) {
	if in.HoursPerWeek < 0 || in.HoursPerWeek > 120 || in.SleepHours < 0 || in.SleepHours > 24 {
		return BurnoutResult{}, ErrInvalidInput
	}
	if in.StressLevel < 1 || in.StressLevel > 10 || in.DelegationLevel < 1 || in.DelegationLevel > 5 {
		return BurnoutResult{}, ErrInvalidInput
	}
	if in.VacationDaysPerYear < 0 || in.DaysOffPerWeek < 0 || in.DaysOffPerWeek > 7 {
		return BurnoutResult{}, ErrInvalidInput
	}
	if !isFinite(in.HoursPerWeek, in.SleepHours) {
		return BurnoutResult{}, ErrInvalidInput
	}

	recovery := clamp01(float64(20-in.VacationDaysPerYear)/20)*0.5 +
		clamp01(float64(2-in.DaysOffPerWeek)/2)*0.5

	factors := []weighted{
		{key: "workload", weight: 0.25, value: clamp01((in.HoursPerWeek - 40) / 40)},
		{key: "sleep", weight: 0.20, value: clamp01((8 - in.SleepHours) / 4)},
		{key: "recovery", weight: 0.15, value: recovery},
		{key: "stress", weight: 0.25, value: clamp01(float64(in.StressLevel-1) / 9)},
		{key: "delegation", weight: 0.15, value: clamp01(float64(5-in.DelegationLevel) / 4)},
	}

	score := scoreFromWeights(factors)

	result := BurnoutResult{
		Score:           score,
		Level:           burnoutLevel(score),
		Factors:         make([]BurnoutFactor, 0, len(factors)),
		Recommendations: []string{},
	}

	for _, f := range factors {
		result.Factors = append(result.Factors, BurnoutFactor{
			Key:          f.key,
			Value:        round2(f.value),
			Weight:       f.weight,
			Contribution: round2(f.weight * f.value * 100),
		})
	}

	flagged := make([]weighted, 0, len(factors))
	for _, f := range factors {
		if f.value >= 0.5 {
			flagged = append(flagged, f)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].weight*flagged[i].value > flagged[j].weight*flagged[j].value
	})
	for _, f := range flagged {
		result.Recommendations = append(result.Recommendations, burnoutRecommendations[f.key])
	}

	return result, nil
}

func burnoutLevel(score int) string {
	switch {
	case score < 25:
		return RiskLow
	case score < 50:
		return RiskModerate
	case score < 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}
