package strategy

// FixedLot trades the base lot whenever the ratio crosses a static threshold.
// It keeps no statistics and never boosts.
type FixedLot struct {
	thresholds
}

func NewFixedLot(params Params) *FixedLot {
	return &FixedLot{thresholds: newThresholds(params)}
}

func (f *FixedLot) Name() string { return string(VariantFixedLot) }

func (f *FixedLot) Evaluate(ratio float64) Advice {
	return f.thresholds.evaluate(ratio)
}
