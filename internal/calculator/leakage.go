package calculator

import "sort"

// weeksPerMonth converts weekly figures to monthly ones.
const weeksPerMonth = 52.0 / 12.0

// CostLeakageInput lists the usual places where money quietly leaves a business.
type CostLeakageInput struct {
	MonthlyRevenue          float64 `json:"monthly_revenue" validate:"gte=0"`
	UnusedSoftwareMonthly   float64 `json:"unused_software_monthly" validate:"gte=0"`
	ManualHoursPerWeek      float64 `json:"manual_hours_per_week" validate:"gte=0,lte=1000"`
	HourlyRate              float64 `json:"hourly_rate" validate:"gte=0"`
	ReworkPercent           float64 `json:"rework_percent" validate:"gte=0,lte=100"`
	ChurnedCustomersMonthly float64 `json:"churned_customers_monthly" validate:"gte=0"`
	AvgCustomerValueMonthly float64 `json:"avg_customer_value_monthly" validate:"gte=0"`
	LateFeesMonthly         float64 `json:"late_fees_monthly" validate:"gte=0"`
}

// LeakageCategory is one source of leakage and its monthly cost.
type LeakageCategory struct {
	Key     string  `json:"key"`
	Monthly float64 `json:"monthly"`
	Annual  float64 `json:"annual"`
}

// CostLeakageResult is the outcome of the cost leakage calculation.
type CostLeakageResult struct {
	Categories       []LeakageCategory `json:"categories"`
	TotalMonthly     float64           `json:"total_monthly"`
	TotalAnnual      float64           `json:"total_annual"`
	PercentOfRevenue *float64          `json:"percent_of_revenue"`
	TopLeak          string            `json:"top_leak,omitempty"`
}

// CostLeakage estimates monthly and annual losses per category.
func CostLeakage(in CostLeakageInput) (CostLeakageResult, error) {
	values := []float64{
		in.MonthlyRevenue, in.UnusedSoftwareMonthly, in.ManualHoursPerWeek, in.HourlyRate,
		in.ReworkPercent, in.ChurnedCustomersMonthly, in.AvgCustomerValueMonthly, in.LateFeesMonthly,
	}
	if !isFinite(values...) {
		return CostLeakageResult{}, ErrInvalidInput
	}
	for _, v := range values {
		if v < 0 {
			return CostLeakageResult{}, ErrInvalidInput
		}
	}
	if in.ReworkPercent > 100 {
		return CostLeakageResult{}, ErrInvalidInput
	}

	raw := []struct {
		key     string
		monthly float64
	}{
		{"software", in.UnusedSoftwareMonthly},
		{"manual_work", in.ManualHoursPerWeek * in.HourlyRate * weeksPerMonth},
		{"rework", in.MonthlyRevenue * in.ReworkPercent / 100},
		{"churn", in.ChurnedCustomersMonthly * in.AvgCustomerValueMonthly},
		{"late_payments", in.LateFeesMonthly},
	}

	result := CostLeakageResult{Categories: make([]LeakageCategory, 0, len(raw))}

	var total float64
	for _, c := range raw {
		total += c.monthly
		result.Categories = append(result.Categories, LeakageCategory{
			Key:     c.key,
			Monthly: round2(c.monthly),
			Annual:  round2(c.monthly * 12),
		})
	}

	sort.SliceStable(result.Categories, func(i, j int) bool {
		return result.Categories[i].Monthly > result.Categories[j].Monthly
	})

	result.TotalMonthly = round2(total)
	result.TotalAnnual = round2(total * 12)
	if !isFinite(result.TotalMonthly, result.TotalAnnual) {
		return CostLeakageResult{}, ErrOutOfRange
	}

	if in.MonthlyRevenue > 0 {
		pct := round2(total / in.MonthlyRevenue * 100)
		if !isFinite(pct) {
			return CostLeakageResult{}, ErrOutOfRange
		}
		result.PercentOfRevenue = &pct
	}
	if total > 0 {
		result.TopLeak = result.Categories[0].Key
	}

	return result, nil
}
