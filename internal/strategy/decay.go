package strategy

// DecayingExtremum keeps a running maximum and minimum of the observed ratio.
// A ratio that sets a fresh extremum while an entry threshold is crossed is
// treated as an exceptional opportunity and boosted. Once a register sits
// beyond its entry threshold it relaxes geometrically toward parity on every
// evaluation, so an extremum that is not retriggered stops looking
// exceptional after a while.
type DecayingExtremum struct {
	thresholds
	decay    float64
	maxRatio float64
	minRatio float64
}

func NewDecayingExtremum(params Params) *DecayingExtremum {
	decay := params.Decay
	if decay <= 0 || decay >= 1 {
		decay = 0.98
	}
	return &DecayingExtremum{
		thresholds: newThresholds(params),
		decay:      decay,
		maxRatio:   1,
		minRatio:   1,
	}
}

func (d *DecayingExtremum) Name() string { return string(VariantDecayingExtremum) }

func (d *DecayingExtremum) Evaluate(ratio float64) Advice {
	if d.maxRatio > d.sellRatio {
		d.maxRatio = 1 + (d.maxRatio-1)*d.decay
	}
	if d.minRatio < d.buyRatio {
		d.minRatio = 1 - (1-d.minRatio)*d.decay
	}
	advice := d.thresholds.evaluate(ratio)
	if ratio > d.maxRatio {
		d.maxRatio = ratio
		if advice.Sell {
			advice.SellBoost = true
		}
	}
	if ratio < d.minRatio {
		d.minRatio = ratio
		if advice.Buy {
			advice.BuyBoost = true
		}
	}
	return advice
}
