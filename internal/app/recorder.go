package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"etf-arb-bot/internal/blotter"
	"etf-arb-bot/internal/engine"
	"etf-arb-bot/internal/market"
	"etf-arb-bot/internal/timescale"
)

const blotterWriteTimeout = 2 * time.Second

// recorder fans engine telemetry out to the blotter journal and, when
// enabled, the timescale writer. Both sinks are best-effort.
type recorder struct {
	store     *blotter.Store
	timescale *timescale.Writer
	log       *zap.Logger
}

func (r *recorder) RecordEvaluation(eval engine.Evaluation) {
	if r.timescale == nil {
		return
	}
	r.timescale.EnqueueRatio(timescale.RatioSnapshot{
		Time:      time.Now().UTC(),
		Sequence:  eval.Sequence,
		Ratio:     eval.Ratio,
		EtfMid:    eval.EtfMid,
		FutureMid: eval.FutureMid,
		Position:  eval.Position,
		Buy:       eval.Advice.Buy,
		Sell:      eval.Advice.Sell,
		CancelBid: eval.Advice.CancelBid,
		CancelAsk: eval.Advice.CancelAsk,
		Boosted:   eval.Advice.BuyBoost || eval.Advice.SellBoost,
	})
}

func (r *recorder) RecordTick(update market.BookUpdate) {
	if r.timescale == nil {
		return
	}
	r.timescale.EnqueueTick(timescale.TradeTick{
		Time:       time.Now().UTC(),
		Instrument: update.Instrument.String(),
		Sequence:   update.Sequence,
		AskPrice:   update.AskPrices[0],
		AskVolume:  update.AskVolumes[0],
		BidPrice:   update.BidPrices[0],
		BidVolume:  update.BidVolumes[0],
	})
}

func (r *recorder) RecordFill(fill engine.Fill) {
	r.journal(blotter.KindFill, fill)
}

func (r *recorder) RecordHedge(fill engine.Fill) {
	r.journal(blotter.KindHedge, fill)
}

func (r *recorder) journal(kind string, fill engine.Fill) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), blotterWriteTimeout)
	defer cancel()
	entry := blotter.Entry{
		OrderID:  fill.OrderID,
		Kind:     kind,
		Side:     fill.Side.String(),
		Price:    fill.Price,
		Volume:   fill.Volume,
		Position: fill.Position,
	}
	if err := r.store.Append(ctx, entry); err != nil && r.log != nil {
		r.log.Warn("blotter append failed", zap.Error(err))
	}
}
