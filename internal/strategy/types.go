package strategy

import "fmt"

type Variant string

const (
	VariantFixedLot         Variant = "fixed_lot"
	VariantBollingerBand    Variant = "bollinger"
	VariantDecayingExtremum Variant = "decaying_extremum"
)

// Params holds the tunables shared by all signal variants. Zero fields fall
// back to the production defaults in their constructors.
type Params struct {
	BuyRatio  float64 // maximum ratio that still justifies a buy
	SellRatio float64 // minimum ratio that still justifies a sell
	Window    int     // Bollinger sample window
	BandWidth float64 // Bollinger band width in standard deviations
	Decay     float64 // per-evaluation decay of the extremum registers
}

// Advice is the outcome of one ratio evaluation. Cancel and entry flags may
// fire together in the same evaluation. Boost flags mark a statistically
// extreme ratio that justifies a larger entry.
type Advice struct {
	CancelBid bool
	CancelAsk bool
	Buy       bool
	Sell      bool
	BuyBoost  bool
	SellBoost bool
}

// Strategy turns a stream of ETF/future ratio observations into trade advice.
// Evaluate mutates internal statistics and must be called once per ratio.
type Strategy interface {
	Name() string
	Evaluate(ratio float64) Advice
}

// New builds the configured signal variant.
func New(variant Variant, params Params) (Strategy, error) {
	switch variant {
	case VariantFixedLot, "":
		return NewFixedLot(params), nil
	case VariantBollingerBand:
		return NewBollingerBand(params), nil
	case VariantDecayingExtremum:
		return NewDecayingExtremum(params), nil
	}
	return nil, fmt.Errorf("unknown strategy variant %q", variant)
}

// thresholds implements the entry and cancel rules common to every variant.
type thresholds struct {
	buyRatio  float64
	sellRatio float64
}

func newThresholds(params Params) thresholds {
	t := thresholds{buyRatio: params.BuyRatio, sellRatio: params.SellRatio}
	if t.buyRatio == 0 {
		t.buyRatio = 0.995
	}
	if t.sellRatio == 0 {
		t.sellRatio = 1.005
	}
	return t
}

func (t thresholds) evaluate(ratio float64) Advice {
	return Advice{
		// The pair edge has closed once the ratio crosses parity.
		CancelAsk: ratio <= 1,
		CancelBid: ratio >= 1,
		Buy:       ratio < t.buyRatio,
		Sell:      ratio > t.sellRatio,
	}
}
