package engine

import (
	"etf-arb-bot/internal/market"
	"etf-arb-bot/internal/metrics"
	"etf-arb-bot/internal/strategy"

	"go.uber.org/zap"
)

// Bus is the outbound command surface of the execution session.
type Bus interface {
	InsertOrder(id int64, side market.Side, price, volume int64, lifespan market.Lifespan) error
	CancelOrder(id int64) error
	HedgeOrder(id int64, side market.Side, price, volume int64) error
}

type Config struct {
	LotSize         int64
	PositionLimit   int64
	BoostMultiplier int64
	Lifespan        market.Lifespan
}

// Engine converts market events into order commands and tracks the lifecycle
// of at most one resting bid and one resting ask plus their hedges.
//
// All handlers must be invoked from a single goroutine; the gateway read loop
// guarantees sequential delivery, so the engine holds no locks.
type Engine struct {
	cfg   Config
	log   *zap.Logger
	bus   Bus
	strat strategy.Strategy
	book  *market.Tracker
	met   *metrics.Metrics
	rec   Recorder

	nextID int64
	bidID  int64
	askID  int64

	// cancel already sent for the current slot occupant; reset when the
	// slot clears so a fresh order can be cancelled again.
	bidCancelSent bool
	askCancelSent bool

	bids     map[int64]struct{}
	asks     map[int64]struct{}
	position int64
}

func New(cfg Config, strat strategy.Strategy, book *market.Tracker, bus Bus, met *metrics.Metrics, rec Recorder, log *zap.Logger) *Engine {
	if cfg.LotSize <= 0 {
		cfg.LotSize = 10
	}
	if cfg.PositionLimit <= 0 {
		cfg.PositionLimit = 100
	}
	if cfg.BoostMultiplier <= 0 {
		cfg.BoostMultiplier = 1
	}
	if met == nil {
		met = metrics.NewNoop()
	}
	if rec == nil {
		rec = NopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		log:    log,
		bus:    bus,
		strat:  strat,
		book:   book,
		met:    met,
		rec:    rec,
		nextID: 1,
		bids:   make(map[int64]struct{}),
		asks:   make(map[int64]struct{}),
	}
}

// Position returns the current signed net exposure.
func (e *Engine) Position() int64 { return e.position }

// BidID returns the client id of the resting bid, zero when the slot is empty.
func (e *Engine) BidID() int64 { return e.bidID }

// AskID returns the client id of the resting ask, zero when the slot is empty.
func (e *Engine) AskID() int64 { return e.askID }

// OnOrderBook updates midpoints and, for ETF snapshots, evaluates the ratio
// signal and issues resulting cancels and inserts.
func (e *Engine) OnOrderBook(update market.BookUpdate) {
	e.log.Debug("order book received",
		zap.Stringer("instrument", update.Instrument),
		zap.Uint64("sequence", update.Sequence),
		zap.Int64("best_bid", update.BestBid()),
		zap.Int64("best_ask", update.BestAsk()),
	)
	e.book.Update(update.Instrument, update.BestBid(), update.BestAsk())
	if update.Instrument != market.ETF {
		return
	}
	ratio, ok := e.book.Ratio()
	if !ok {
		return
	}
	advice := e.strat.Evaluate(ratio)
	e.log.Debug("ratio evaluated", zap.Float64("ratio", ratio))
	e.rec.RecordEvaluation(Evaluation{
		Sequence:  update.Sequence,
		Ratio:     ratio,
		EtfMid:    e.book.Mid(market.ETF),
		FutureMid: e.book.Mid(market.Future),
		Position:  e.position,
		Advice:    advice,
	})

	if e.askID != 0 && advice.CancelAsk && !e.askCancelSent {
		e.cancel(e.askID, market.Sell)
		e.askCancelSent = true
	}
	if e.bidID != 0 && advice.CancelBid && !e.bidCancelSent {
		e.cancel(e.bidID, market.Buy)
		e.bidCancelSent = true
	}

	if advice.Buy && e.bidID == 0 && e.position < e.cfg.PositionLimit {
		volume := e.cfg.LotSize
		if advice.BuyBoost {
			volume *= e.cfg.BoostMultiplier
		}
		if e.position+volume >= e.cfg.PositionLimit {
			volume = e.cfg.PositionLimit - abs(e.position)
		}
		if price := update.BestAsk(); volume > 0 && price != 0 {
			e.insert(market.Buy, price, volume)
		}
	}
	if advice.Sell && e.askID == 0 && e.position > -e.cfg.PositionLimit {
		volume := e.cfg.LotSize
		if advice.SellBoost {
			volume *= e.cfg.BoostMultiplier
		}
		if e.position-volume <= -e.cfg.PositionLimit {
			volume = e.cfg.PositionLimit - abs(e.position)
		}
		if price := update.BestBid(); volume > 0 && price != 0 {
			e.insert(market.Sell, price, volume)
		}
	}
}

// OnTradeTicks records public trades for observability; ticks never mutate
// trading state.
func (e *Engine) OnTradeTicks(update market.BookUpdate) {
	e.log.Debug("trade ticks received",
		zap.Stringer("instrument", update.Instrument),
		zap.Uint64("sequence", update.Sequence),
		zap.Int64("ask_price", update.BestAsk()),
		zap.Int64("bid_price", update.BestBid()),
	)
	e.rec.RecordTick(update)
}

// OnOrderFilled classifies the fill by its membership set, updates the
// position and issues an aggressive offsetting hedge. The slot itself is
// cleared by the subsequent status update.
func (e *Engine) OnOrderFilled(id, price, volume int64) {
	if _, ok := e.asks[id]; ok {
		e.position -= volume
		e.met.Fills.Inc()
		hedgeID := e.assignID()
		hedgePrice := e.book.AlignDown(market.MaxAskPrice)
		e.hedge(hedgeID, market.Buy, hedgePrice, volume)
		e.recordFill(id, market.Sell, price, volume)
		return
	}
	if _, ok := e.bids[id]; ok {
		e.position += volume
		e.met.Fills.Inc()
		hedgeID := e.assignID()
		e.hedge(hedgeID, market.Sell, market.MinBidPrice, volume)
		e.recordFill(id, market.Buy, price, volume)
		return
	}
	e.log.Debug("fill for untracked order", zap.Int64("order_id", id))
}

// OnOrderStatus clears the slot and membership of id once its remaining
// volume reaches zero. Status updates for untracked ids are no-ops.
func (e *Engine) OnOrderStatus(id, fillVolume, remainingVolume, fees int64) {
	e.log.Debug("order status",
		zap.Int64("order_id", id),
		zap.Int64("filled", fillVolume),
		zap.Int64("remaining", remainingVolume),
		zap.Int64("fees", fees),
	)
	if remainingVolume != 0 {
		return
	}
	if id == e.askID {
		e.askID = 0
		e.askCancelSent = false
	}
	if id == e.bidID {
		e.bidID = 0
		e.bidCancelSent = false
	}
	delete(e.asks, id)
	delete(e.bids, id)
}

// OnHedgeFilled is log-only; hedge fills carry no resting state.
func (e *Engine) OnHedgeFilled(id, price, volume int64) {
	e.log.Info("hedge order filled",
		zap.Int64("order_id", id),
		zap.Int64("avg_price", price),
		zap.Int64("volume", volume),
	)
}

// OnError treats a rejected order as a completed zero-fill order so the
// affected slot cannot stay stuck.
func (e *Engine) OnError(id int64, message string) {
	e.log.Warn("order error", zap.Int64("order_id", id), zap.String("message", message))
	e.met.OrdersRejected.Inc()
	if id != 0 {
		e.OnOrderStatus(id, 0, 0, 0)
	}
}

// OnDisconnect is terminal for the session; shutdown is driven by the caller.
func (e *Engine) OnDisconnect() {
	e.log.Warn("execution connection lost")
	e.met.Disconnects.Inc()
}

func (e *Engine) insert(side market.Side, price, volume int64) {
	id := e.assignID()
	if err := e.bus.InsertOrder(id, side, price, volume, e.cfg.Lifespan); err != nil {
		e.log.Warn("order insert failed", zap.Int64("order_id", id), zap.Error(err))
		e.met.OrdersRejected.Inc()
		return
	}
	e.met.OrdersInserted.Inc()
	e.log.Info("order inserted",
		zap.Int64("order_id", id),
		zap.Stringer("side", side),
		zap.Int64("price", price),
		zap.Int64("volume", volume),
	)
	if side == market.Buy {
		e.bidID = id
		e.bids[id] = struct{}{}
	} else {
		e.askID = id
		e.asks[id] = struct{}{}
	}
}

func (e *Engine) cancel(id int64, side market.Side) {
	if err := e.bus.CancelOrder(id); err != nil {
		e.log.Warn("order cancel failed", zap.Int64("order_id", id), zap.Error(err))
		return
	}
	e.met.OrdersCancelled.Inc()
	e.log.Info("order cancelled", zap.Int64("order_id", id), zap.Stringer("side", side))
}

func (e *Engine) hedge(id int64, side market.Side, price, volume int64) {
	if err := e.bus.HedgeOrder(id, side, price, volume); err != nil {
		e.log.Warn("hedge order failed", zap.Int64("order_id", id), zap.Error(err))
		return
	}
	e.met.Hedges.Inc()
	e.log.Info("hedge order sent",
		zap.Int64("order_id", id),
		zap.Stringer("side", side),
		zap.Int64("price", price),
		zap.Int64("volume", volume),
	)
	e.rec.RecordHedge(Fill{
		OrderID:  id,
		Side:     side,
		Price:    price,
		Volume:   volume,
		Position: e.position,
	})
}

func (e *Engine) assignID() int64 {
	id := e.nextID
	e.nextID++
	return id
}

func (e *Engine) recordFill(id int64, side market.Side, price, volume int64) {
	e.rec.RecordFill(Fill{
		OrderID:  id,
		Side:     side,
		Price:    price,
		Volume:   volume,
		Position: e.position,
	})
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
