package strategy

import "testing"

func TestFixedLotThresholds(t *testing.T) {
	s := NewFixedLot(Params{})
	advice := s.Evaluate(0.994)
	if !advice.Buy || advice.Sell {
		t.Fatalf("expected buy advice, got %+v", advice)
	}
	if advice.BuyBoost || advice.SellBoost {
		t.Fatalf("fixed lot must never boost, got %+v", advice)
	}
	advice = s.Evaluate(1.006)
	if !advice.Sell || advice.Buy {
		t.Fatalf("expected sell advice, got %+v", advice)
	}
}

func TestThresholdComparisonsAreStrict(t *testing.T) {
	s := NewFixedLot(Params{})
	if advice := s.Evaluate(0.995); advice.Buy {
		t.Fatalf("ratio equal to buy threshold must not trigger a buy")
	}
	if advice := s.Evaluate(1.005); advice.Sell {
		t.Fatalf("ratio equal to sell threshold must not trigger a sell")
	}
}

func TestCancelAdviceAtParity(t *testing.T) {
	s := NewFixedLot(Params{})
	advice := s.Evaluate(1.0)
	if !advice.CancelAsk || !advice.CancelBid {
		t.Fatalf("parity must cancel both sides, got %+v", advice)
	}
	advice = s.Evaluate(0.999)
	if !advice.CancelAsk || advice.CancelBid {
		t.Fatalf("ratio below parity must cancel only the ask, got %+v", advice)
	}
	advice = s.Evaluate(1.001)
	if advice.CancelAsk || !advice.CancelBid {
		t.Fatalf("ratio above parity must cancel only the bid, got %+v", advice)
	}
}

func TestBollingerNoBoostBeforeWindowFills(t *testing.T) {
	s := NewBollingerBand(Params{Window: 5})
	for i := 0; i < 4; i++ {
		advice := s.Evaluate(0.90)
		if !advice.Buy {
			t.Fatalf("expected buy advice on sample %d", i)
		}
		if advice.BuyBoost {
			t.Fatalf("boost before the window filled on sample %d", i)
		}
	}
}

func TestBollingerBoostsBeyondBand(t *testing.T) {
	s := NewBollingerBand(Params{Window: 4, BandWidth: 1})
	for _, r := range []float64{1.000, 1.001, 0.999, 1.000} {
		s.Evaluate(r)
	}
	advice := s.Evaluate(0.90)
	if !advice.Buy || !advice.BuyBoost {
		t.Fatalf("expected boosted buy on band breakout, got %+v", advice)
	}
	advice = s.Evaluate(1.10)
	if !advice.Sell || !advice.SellBoost {
		t.Fatalf("expected boosted sell on band breakout, got %+v", advice)
	}
}

func TestBollingerNoBoostInsideBand(t *testing.T) {
	s := NewBollingerBand(Params{Window: 4, BandWidth: 2})
	for _, r := range []float64{0.95, 1.05, 0.95, 1.05} {
		s.Evaluate(r)
	}
	advice := s.Evaluate(0.994)
	if !advice.Buy {
		t.Fatalf("expected buy advice, got %+v", advice)
	}
	if advice.BuyBoost {
		t.Fatalf("ratio inside the band must not boost, got %+v", advice)
	}
}

func TestDecayingExtremumBoostsOnFreshExtremum(t *testing.T) {
	s := NewDecayingExtremum(Params{Decay: 0.9})
	advice := s.Evaluate(0.990)
	if !advice.Buy || !advice.BuyBoost {
		t.Fatalf("fresh minimum below threshold must boost, got %+v", advice)
	}
	// The register decays 0.990 -> 0.991 before the second evaluation;
	// 0.992 sits above it and is not a fresh extremum.
	advice = s.Evaluate(0.992)
	if !advice.Buy {
		t.Fatalf("expected buy advice, got %+v", advice)
	}
	if advice.BuyBoost {
		t.Fatalf("ratio above the decayed minimum must not boost, got %+v", advice)
	}
}

func TestDecayingExtremumRelaxesTowardParity(t *testing.T) {
	s := NewDecayingExtremum(Params{Decay: 0.5})
	s.Evaluate(1.020)
	// 1.020 decays to 1.010, then to 1.005; by the third evaluation the
	// same ratio counts as a fresh extremum again.
	s.Evaluate(1.006)
	s.Evaluate(1.006)
	advice := s.Evaluate(1.006)
	if !advice.Sell || !advice.SellBoost {
		t.Fatalf("decayed register must allow retrigger, got %+v", advice)
	}
}

func TestNewVariantSelection(t *testing.T) {
	cases := []struct {
		variant Variant
		name    string
	}{
		{VariantFixedLot, "fixed_lot"},
		{VariantBollingerBand, "bollinger"},
		{VariantDecayingExtremum, "decaying_extremum"},
		{"", "fixed_lot"},
	}
	for _, tc := range cases {
		s, err := New(tc.variant, Params{})
		if err != nil {
			t.Fatalf("New(%q) failed: %v", tc.variant, err)
		}
		if s.Name() != tc.name {
			t.Fatalf("New(%q) built %s", tc.variant, s.Name())
		}
	}
	if _, err := New("martingale", Params{}); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}
