package calculator

import "errors"

// ErrUnknownTool is returned for slugs that do not name a calculator.
var ErrUnknownTool = errors.New("unknown calculator")

type entry struct {
	newInput func() any
	run      func(any) (any, error)
}

func register[I, R any](fn func(I) (R, error)) entry {
	return entry{
		newInput: func() any { return new(I) },
		run: func(in any) (any, error) {
			p, ok := in.(*I)
			if !ok || p == nil {
				return nil, ErrInvalidInput
			}
			return fn(*p)
		},
	}
}

var registry = map[Tool]entry{
	ToolROI:                register(ROI),
	ToolBreakEven:          register(BreakEven),
	ToolBurnoutRisk:        register(BurnoutRisk),
	ToolCostLeakage:        register(CostLeakage),
	ToolBottleneck:         register(Bottleneck),
	ToolFranchiseReadiness: register(FranchiseReadiness),
	ToolFundraiseReadiness: register(FundraiseReadiness),
}

// NewInput returns a pointer to a zero input value for t, ready to be
// decoded into.
func NewInput(t Tool) (any, error) {
	e, ok := registry[t]
	if !ok {
		return nil, ErrUnknownTool
	}
	return e.newInput(), nil
}

// Run computes t for an input previously obtained from NewInput.
func Run(t Tool, input any) (any, error) {
	e, ok := registry[t]
	if !ok {
		return nil, ErrUnknownTool
	}
	return e.run(input)
}
