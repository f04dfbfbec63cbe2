package market

// Tracker keeps the last known tick-aligned mid-price per instrument.
//
// A quote with an empty side (zero bid or ask) carries no usable mid, so the
// previous value is retained rather than overwritten.
type Tracker struct {
	tick int64
	mids [instrumentCount]int64
}

func NewTracker(tickSize int64) *Tracker {
	if tickSize <= 0 {
		tickSize = 1
	}
	return &Tracker{tick: tickSize}
}

// Update recomputes the stored midpoint for inst from top-of-book prices.
// Raw midpoints that fall between ticks are rounded up by half a tick.
func (t *Tracker) Update(inst Instrument, bestBid, bestAsk int64) {
	if !inst.Valid() || bestBid == 0 || bestAsk == 0 {
		return
	}
	mid := (bestBid + bestAsk) / 2
	if mid%t.tick != 0 {
		mid += t.tick / 2
	}
	t.mids[inst] = mid
}

// Mid returns the last computed midpoint for inst, zero before the first
// valid quote.
func (t *Tracker) Mid(inst Instrument) int64 {
	if !inst.Valid() {
		return 0
	}
	return t.mids[inst]
}

// Ratio returns the ETF midpoint divided by the future midpoint. It reports
// false until both legs have produced a midpoint.
func (t *Tracker) Ratio() (float64, bool) {
	etf := t.mids[ETF]
	future := t.mids[Future]
	if etf == 0 || future == 0 {
		return 0, false
	}
	return float64(etf) / float64(future), true
}

// TickSize returns the configured minimum price increment.
func (t *Tracker) TickSize() int64 { return t.tick }

// AlignDown rounds price down to the nearest tick boundary.
func (t *Tracker) AlignDown(price int64) int64 {
	return price / t.tick * t.tick
}
