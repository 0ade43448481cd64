package calculator

// MaxStages bounds the number of process stages accepted by Bottleneck.
const MaxStages = 20

// Stage is one step of a delivery process.
type Stage struct {
	Name            string  `json:"name" validate:"required,max=80"`
	CapacityPerWeek float64 `json:"capacity_per_week" validate:"gt=0"`
}

// BottleneckInput describes weekly demand and the stages it flows through.
type BottleneckInput struct {
	DemandPerWeek float64 `json:"demand_per_week" validate:"gte=0"`
	Stages        []Stage `json:"stages" validate:"required,min=1,max=20,dive"`
}

// StageLoad reports how busy a stage is at the given demand.
type StageLoad struct {
	Name               string  `json:"name"`
	CapacityPerWeek    float64 `json:"capacity_per_week"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// BottleneckResult is the outcome of the bottleneck finder.
type BottleneckResult struct {
	Bottleneck        string      `json:"bottleneck"`
	ThroughputPerWeek float64     `json:"throughput_per_week"`
	Constrained       bool        `json:"constrained"`
	LostUnitsPerWeek  float64     `json:"lost_units_per_week"`
	HeadroomPercent   float64     `json:"headroom_percent"`
	NextConstraint    string      `json:"next_constraint,omitempty"`
	Stages            []StageLoad `json:"stages"`
}

// Bottleneck finds the stage with the lowest capacity. System throughput is
// capped by that stage; ties go to the earliest stage.
func Bottleneck(in BottleneckInput) (BottleneckResult, error) {
	if len(in.Stages) == 0 {
		return BottleneckResult{}, ErrNoStages
	}
	if len(in.Stages) > MaxStages || in.DemandPerWeek < 0 || !isFinite(in.DemandPerWeek) {
		return BottleneckResult{}, ErrInvalidInput
	}

	first, second := -1, -1
	for i, s := range in.Stages {
		if s.CapacityPerWeek <= 0 || !isFinite(s.CapacityPerWeek) {
			return BottleneckResult{}, ErrInvalidInput
		}
		switch {
		case first == -1 || s.CapacityPerWeek < in.Stages[first].CapacityPerWeek:
			second = first
			first = i
		case second == -1 || s.CapacityPerWeek < in.Stages[second].CapacityPerWeek:
			second = i
		}
	}

	throughput := in.Stages[first].CapacityPerWeek

	result := BottleneckResult{
		Bottleneck:        in.Stages[first].Name,
		ThroughputPerWeek: round2(throughput),
		Constrained:       in.DemandPerWeek > throughput,
		HeadroomPercent:   round2((throughput - in.DemandPerWeek) / throughput * 100),
		Stages:            make([]StageLoad, 0, len(in.Stages)),
	}
	if result.Constrained {
		result.LostUnitsPerWeek = round2(in.DemandPerWeek - throughput)
	}
	if second >= 0 {
		result.NextConstraint = in.Stages[second].Name
	}

	if !isFinite(result.ThroughputPerWeek, result.HeadroomPercent, result.LostUnitsPerWeek) {
		return BottleneckResult{}, ErrOutOfRange
	}

	for _, s := range in.Stages {
		load := StageLoad{
			Name:               s.Name,
			CapacityPerWeek:    round2(s.CapacityPerWeek),
			UtilizationPercent: round2(in.DemandPerWeek / s.CapacityPerWeek * 100),
		}
		if !isFinite(load.CapacityPerWeek, load.UtilizationPercent) {
			return BottleneckResult{}, ErrOutOfRange
		}
		result.Stages = append(result.Stages, load)
	}

	return result, nil
}
