package strategy

// BollingerBand boosts entries when the ratio leaves a moving band of
// mean +/- width*stddev over the trailing window. Until the window has seen a
// full set of samples only the plain threshold rules apply.
type BollingerBand struct {
	thresholds
	width  float64
	window *ratioWindow
}

func NewBollingerBand(params Params) *BollingerBand {
	size := params.Window
	if size <= 0 {
		size = 20
	}
	width := params.BandWidth
	if width == 0 {
		width = 1
	}
	return &BollingerBand{
		thresholds: newThresholds(params),
		width:      width,
		window:     newRatioWindow(size),
	}
}

func (b *BollingerBand) Name() string { return string(VariantBollingerBand) }

func (b *BollingerBand) Evaluate(ratio float64) Advice {
	b.window.push(ratio)
	advice := b.thresholds.evaluate(ratio)
	mean, stddev, ok := b.window.stats()
	if !ok {
		return advice
	}
	if advice.Buy && ratio < mean-b.width*stddev {
		advice.BuyBoost = true
	}
	if advice.Sell && ratio > mean+b.width*stddev {
		advice.SellBoost = true
	}
	return advice
}
