package market

// Instrument identifies one leg of the traded pair.
type Instrument int

const (
	Future Instrument = iota
	ETF
	instrumentCount
)

func (i Instrument) String() string {
	switch i {
	case Future:
		return "FUTURE"
	case ETF:
		return "ETF"
	}
	return "UNKNOWN"
}

// Valid reports whether i is one of the two pair legs.
func (i Instrument) Valid() bool {
	return i >= Future && i < instrumentCount
}

type Side int

const (
	Sell Side = iota
	Buy
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Lifespan controls how long a resting order stays on the book.
type Lifespan int

const (
	// FillAndKill orders trade immediately and the remainder is cancelled.
	FillAndKill Lifespan = iota
	// GoodForDay orders rest until filled, cancelled or end of day.
	GoodForDay
)

func (l Lifespan) String() string {
	if l == GoodForDay {
		return "GFD"
	}
	return "FAK"
}

// Depth is the number of price levels carried by book and tick events.
const Depth = 5

const (
	// MinBidPrice is the lowest tradable price in minor currency units.
	MinBidPrice = 1
	// MaxAskPrice is the highest tradable price in minor currency units.
	MaxAskPrice = 1<<31 - 1
)

// BookUpdate is one top-of-book snapshot for a single instrument.
type BookUpdate struct {
	Instrument Instrument
	Sequence   uint64
	AskPrices  [Depth]int64
	AskVolumes [Depth]int64
	BidPrices  [Depth]int64
	BidVolumes [Depth]int64
}

// BestAsk returns the top ask price, zero when that side is empty.
func (b BookUpdate) BestAsk() int64 { return b.AskPrices[0] }

// BestBid returns the top bid price, zero when that side is empty.
func (b BookUpdate) BestBid() int64 { return b.BidPrices[0] }
