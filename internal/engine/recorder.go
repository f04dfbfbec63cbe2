package engine

import (
	"etf-arb-bot/internal/market"
	"etf-arb-bot/internal/strategy"
)

// Evaluation is one ratio decision, captured for observability.
type Evaluation struct {
	Sequence  uint64
	Ratio     float64
	EtfMid    int64
	FutureMid int64
	Position  int64
	Advice    strategy.Advice
}

// Fill is one execution against a resting order, captured after the position
// has been updated.
type Fill struct {
	OrderID  int64
	Side     market.Side
	Price    int64
	Volume   int64
	Position int64
}

// Recorder receives engine telemetry. Implementations must not block: the
// engine calls them from the event-handling goroutine.
type Recorder interface {
	RecordEvaluation(Evaluation)
	RecordTick(market.BookUpdate)
	RecordFill(Fill)
	RecordHedge(Fill)
}

type NopRecorder struct{}

func (NopRecorder) RecordEvaluation(Evaluation)  {}
func (NopRecorder) RecordTick(market.BookUpdate) {}
func (NopRecorder) RecordFill(Fill)              {}
func (NopRecorder) RecordHedge(Fill)             {}
