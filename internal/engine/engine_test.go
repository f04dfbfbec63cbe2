package engine

import (
	"errors"
	"testing"

	"etf-arb-bot/internal/market"
	"etf-arb-bot/internal/strategy"
)

type busCall struct {
	op       string
	id       int64
	side     market.Side
	price    int64
	volume   int64
	lifespan market.Lifespan
}

type fakeBus struct {
	calls     []busCall
	insertErr error
}

func (b *fakeBus) InsertOrder(id int64, side market.Side, price, volume int64, lifespan market.Lifespan) error {
	if b.insertErr != nil {
		return b.insertErr
	}
	b.calls = append(b.calls, busCall{op: "insert", id: id, side: side, price: price, volume: volume, lifespan: lifespan})
	return nil
}

func (b *fakeBus) CancelOrder(id int64) error {
	b.calls = append(b.calls, busCall{op: "cancel", id: id})
	return nil
}

func (b *fakeBus) HedgeOrder(id int64, side market.Side, price, volume int64) error {
	b.calls = append(b.calls, busCall{op: "hedge", id: id, side: side, price: price, volume: volume})
	return nil
}

func (b *fakeBus) last() busCall {
	if len(b.calls) == 0 {
		return busCall{}
	}
	return b.calls[len(b.calls)-1]
}

func newTestEngine(t *testing.T, bus Bus) *Engine {
	t.Helper()
	strat, err := strategy.New(strategy.VariantFixedLot, strategy.Params{})
	if err != nil {
		t.Fatalf("strategy: %v", err)
	}
	cfg := Config{LotSize: 20, PositionLimit: 100, BoostMultiplier: 3, Lifespan: market.GoodForDay}
	return New(cfg, strat, market.NewTracker(100), bus, nil, nil, nil)
}

func bookUpdate(inst market.Instrument, bid, ask int64) market.BookUpdate {
	update := market.BookUpdate{Instrument: inst}
	update.BidPrices[0] = bid
	update.AskPrices[0] = ask
	return update
}

func TestBuySignalInsertsBid(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)

	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19800, 20000))

	// etf mid 19900, future mid 20000, ratio 0.995... not strictly below
	// threshold. Push one tick lower.
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	call := bus.last()
	if call.op != "insert" || call.side != market.Buy {
		t.Fatalf("expected buy insert, got %+v", call)
	}
	if call.volume != 20 {
		t.Fatalf("expected lot volume 20, got %d", call.volume)
	}
	if call.price != 19900 {
		t.Fatalf("expected insert at best ask 19900, got %d", call.price)
	}
	if call.lifespan != market.GoodForDay {
		t.Fatalf("expected GFD order, got %s", call.lifespan)
	}
	if e.BidID() != call.id || call.id == 0 {
		t.Fatalf("bid slot %d does not match inserted id %d", e.BidID(), call.id)
	}
}

func TestNoSecondBidWhileSlotOccupied(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	inserts := len(bus.calls)
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	if len(bus.calls) != inserts {
		t.Fatalf("expected no new commands while bid slot occupied, got %+v", bus.calls[inserts:])
	}
}

func TestVolumeClampedAgainstPositionLimit(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.position = 90

	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	call := bus.last()
	if call.op != "insert" {
		t.Fatalf("expected insert, got %+v", call)
	}
	if call.volume != 10 {
		t.Fatalf("expected clamped volume 10, got %d", call.volume)
	}
}

func TestNoBuyAtPositionLimit(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.position = 100
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	if len(bus.calls) != 0 {
		t.Fatalf("expected no commands at the position limit, got %+v", bus.calls)
	}
}

func TestSellSignalInsertsAsk(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 20100, 20300))
	call := bus.last()
	if call.op != "insert" || call.side != market.Sell {
		t.Fatalf("expected sell insert, got %+v", call)
	}
	if call.price != 20100 {
		t.Fatalf("expected insert at best bid 20100, got %d", call.price)
	}
	if e.AskID() != call.id {
		t.Fatalf("ask slot %d does not match inserted id %d", e.AskID(), call.id)
	}
}

func TestCancelWhenEdgeCloses(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 20100, 20300))
	askID := e.AskID()
	if askID == 0 {
		t.Fatalf("expected resting ask")
	}

	// Ratio back below parity: cancel goes out but the slot stays until
	// the confirming status update.
	e.OnOrderBook(bookUpdate(market.ETF, 19800, 20000))
	call := bus.last()
	if call.op != "cancel" || call.id != askID {
		t.Fatalf("expected cancel for %d, got %+v", askID, call)
	}
	if e.AskID() != askID {
		t.Fatalf("ask slot must survive until remaining=0, got %d", e.AskID())
	}

	// Repeated evaluations must not re-send the cancel.
	sent := len(bus.calls)
	e.OnOrderBook(bookUpdate(market.ETF, 19800, 20000))
	if len(bus.calls) != sent {
		t.Fatalf("cancel re-sent: %+v", bus.calls[sent:])
	}

	e.OnOrderStatus(askID, 0, 0, 0)
	if e.AskID() != 0 {
		t.Fatalf("ask slot not cleared after status, got %d", e.AskID())
	}
}

func TestAskFillHedgesWithBuyAtCeiling(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 20100, 20300))
	askID := e.AskID()

	e.OnOrderFilled(askID, 20100, 20)
	if e.Position() != -20 {
		t.Fatalf("expected position -20, got %d", e.Position())
	}
	call := bus.last()
	if call.op != "hedge" || call.side != market.Buy {
		t.Fatalf("expected buy hedge, got %+v", call)
	}
	if call.price != market.MaxAskPrice/100*100 {
		t.Fatalf("expected tick-aligned ceiling price, got %d", call.price)
	}
	if call.volume != 20 {
		t.Fatalf("expected hedge volume 20, got %d", call.volume)
	}
	if call.id == askID {
		t.Fatalf("hedge must use a fresh order id")
	}
}

func TestBidFillHedgesWithSellAtFloor(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	bidID := e.BidID()

	e.OnOrderFilled(bidID, 19900, 20)
	if e.Position() != 20 {
		t.Fatalf("expected position 20, got %d", e.Position())
	}
	call := bus.last()
	if call.op != "hedge" || call.side != market.Sell {
		t.Fatalf("expected sell hedge, got %+v", call)
	}
	if call.price != market.MinBidPrice {
		t.Fatalf("expected floor price, got %d", call.price)
	}
}

func TestPartialFillKeepsSlot(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	bidID := e.BidID()

	e.OnOrderFilled(bidID, 19900, 5)
	e.OnOrderStatus(bidID, 5, 15, 0)
	if e.BidID() != bidID {
		t.Fatalf("partial fill must keep the slot, got %d", e.BidID())
	}
	e.OnOrderFilled(bidID, 19900, 15)
	e.OnOrderStatus(bidID, 20, 0, 0)
	if e.BidID() != 0 {
		t.Fatalf("full fill must clear the slot, got %d", e.BidID())
	}
	if e.Position() != 20 {
		t.Fatalf("expected position 20, got %d", e.Position())
	}
}

func TestStatusForUntrackedIDIsNoop(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderStatus(42, 0, 0, 0)
	if len(bus.calls) != 0 || e.Position() != 0 {
		t.Fatalf("untracked status must not change state")
	}
}

func TestFillForUntrackedIDIsNoop(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderFilled(42, 20000, 10)
	if e.Position() != 0 || len(bus.calls) != 0 {
		t.Fatalf("untracked fill must not change position or hedge")
	}
}

func TestErrorForcesSlotEmpty(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	bidID := e.BidID()

	e.OnError(bidID, "order rejected")
	if e.BidID() != 0 {
		t.Fatalf("error must force the slot empty, got %d", e.BidID())
	}
	// Trading resumes on the next opportunity.
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	if e.BidID() == 0 {
		t.Fatalf("expected a fresh bid after the errored order cleared")
	}
}

func TestErrorWithZeroIDLeavesSlots(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	bidID := e.BidID()
	e.OnError(0, "malformed command")
	if e.BidID() != bidID {
		t.Fatalf("error without an order id must not touch slots")
	}
}

func TestInsertFailureLeavesSlotEmpty(t *testing.T) {
	bus := &fakeBus{insertErr: errors.New("session closed")}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	if e.BidID() != 0 {
		t.Fatalf("failed insert must not occupy the slot, got %d", e.BidID())
	}
}

func TestNoInsertWhenPlacementSideEmpty(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	bidID := e.BidID()
	e.OnOrderFilled(bidID, 19900, 20)
	e.OnOrderStatus(bidID, 20, 0, 0)

	// The ask side dries up. Midpoints are retained from the last full
	// snapshot, so the ratio still signals a buy, but there is no price
	// to place against.
	sent := len(bus.calls)
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 0))
	if len(bus.calls) != sent {
		t.Fatalf("expected no commands against an empty ask side, got %+v", bus.calls[sent:])
	}
	if e.BidID() != 0 {
		t.Fatalf("bid slot must stay empty, got %d", e.BidID())
	}
}

func TestOrderIDsMonotonic(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	first := e.BidID()
	e.OnOrderFilled(first, 19900, 20)
	e.OnOrderStatus(first, 20, 0, 0)
	e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
	second := e.BidID()
	if second <= first {
		t.Fatalf("order ids must increase: %d then %d", first, second)
	}
}

func TestPositionBoundedAcrossFillSequences(t *testing.T) {
	bus := &fakeBus{}
	e := newTestEngine(t, bus)
	e.OnOrderBook(bookUpdate(market.Future, 19900, 20100))
	for i := 0; i < 20; i++ {
		e.OnOrderBook(bookUpdate(market.ETF, 19700, 19900))
		bidID := e.BidID()
		if bidID == 0 {
			break
		}
		var volume int64
		for _, call := range bus.calls {
			if call.op == "insert" && call.id == bidID {
				volume = call.volume
			}
		}
		e.OnOrderFilled(bidID, 19900, volume)
		e.OnOrderStatus(bidID, volume, 0, 0)
		if pos := e.Position(); pos > 100 || pos < -100 {
			t.Fatalf("position %d breached the limit", pos)
		}
	}
	if e.Position() != 100 {
		t.Fatalf("expected position pinned at the limit, got %d", e.Position())
	}
}
