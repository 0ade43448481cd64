package calculator

// MaxPaybackMonths bounds the payback search.
const MaxPaybackMonths = 60

// DefaultHorizonMonths is used when ROIInput.HorizonMonths is zero.
const DefaultHorizonMonths = 12

// ROIInput describes an investment and the monthly benefit it produces.
type ROIInput struct {
	InvestmentCost float64 `json:"investment_cost" validate:"gt=0"`
	MonthlyBenefit float64 `json:"monthly_benefit" validate:"gte=0"`
	MonthlyCost    float64 `json:"monthly_cost" validate:"gte=0"`
	HorizonMonths  int     `json:"horizon_months" validate:"omitempty,min=1,max=60"`
}

// ROIResult is the outcome of an ROI calculation.
type ROIResult struct {
	NetMonthlyBenefit float64 `json:"net_monthly_benefit"`
	AnnualBenefit     float64 `json:"annual_benefit"`
	ROIPercent        float64 `json:"roi_percent"`
	HorizonMonths     int     `json:"horizon_months"`
	HorizonNetReturn  float64 `json:"horizon_net_return"`
	HorizonROIPercent float64 `json:"horizon_roi_percent"`
	PaysBack          bool    `json:"pays_back"`
	PaybackMonths     *int    `json:"payback_months"`
}

// ROI computes first-year return on investment and the payback period.
//
// ROI = (annual benefit - investment) / investment. The payback period is the
// first month whose cumulative net benefit covers the investment, searched up
// to MaxPaybackMonths.
func ROI(in ROIInput) (ROIResult, error) {
	if in.InvestmentCost <= 0 || in.MonthlyBenefit < 0 || in.MonthlyCost < 0 {
		return ROIResult{}, ErrInvalidInput
	}
	if !isFinite(in.InvestmentCost, in.MonthlyBenefit, in.MonthlyCost) {
		return ROIResult{}, ErrInvalidInput
	}

	horizon := in.HorizonMonths
	if horizon == 0 {
		horizon = DefaultHorizonMonths
	}
	if horizon < 1 || horizon > MaxPaybackMonths {
		return ROIResult{}, ErrInvalidInput
	}

	netMonthly := in.MonthlyBenefit - in.MonthlyCost
	annual := netMonthly * 12
	horizonNet := netMonthly*float64(horizon) - in.InvestmentCost

	result := ROIResult{
		NetMonthlyBenefit: round2(netMonthly),
		AnnualBenefit:     round2(annual),
		ROIPercent:        round2((annual - in.InvestmentCost) / in.InvestmentCost * 100),
		HorizonMonths:     horizon,
		HorizonNetReturn:  round2(horizonNet),
		HorizonROIPercent: round2(horizonNet / in.InvestmentCost * 100),
	}
	if !isFinite(result.NetMonthlyBenefit, result.AnnualBenefit, result.ROIPercent,
		result.HorizonNetReturn, result.HorizonROIPercent) {
		return ROIResult{}, ErrOutOfRange
	}

	if months, ok := paybackMonths(in.InvestmentCost, netMonthly); ok {
		result.PaysBack = true
		result.PaybackMonths = &months
	}

	return result, nil
}

// paybackMonths scans month by month until the investment is recovered.
func paybackMonths(investment, netMonthly float64) (int, bool) {
	if netMonthly <= 0 {
		return 0, false
	}
	cumulative := 0.0
	for month := 1; month <= MaxPaybackMonths; month++ {
		cumulative += netMonthly
		if cumulative >= investment {
			return month, true
		}
	}
	return 0, false
}
