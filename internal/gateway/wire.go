package gateway

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"etf-arb-bot/internal/market"
)

// Frame types carried by the execution channel. Inbound and outbound frames
// share one envelope: a type tag plus a msgpack-encoded body.
const (
	frameOrderBook   = "order_book"
	frameTradeTicks  = "trade_ticks"
	frameOrderFilled = "order_filled"
	frameOrderStatus = "order_status"
	frameHedgeFilled = "hedge_filled"
	frameError       = "error"

	frameInsertOrder = "insert_order"
	frameCancelOrder = "cancel_order"
	frameHedgeOrder  = "hedge_order"
)

type envelope struct {
	Type string             `msgpack:"type"`
	Body msgpack.RawMessage `msgpack:"body"`
}

type bookBody struct {
	Instrument int                 `msgpack:"instrument"`
	Sequence   uint64              `msgpack:"sequence"`
	AskPrices  [market.Depth]int64 `msgpack:"ask_prices"`
	AskVolumes [market.Depth]int64 `msgpack:"ask_volumes"`
	BidPrices  [market.Depth]int64 `msgpack:"bid_prices"`
	BidVolumes [market.Depth]int64 `msgpack:"bid_volumes"`
}

type orderFilledBody struct {
	OrderID int64 `msgpack:"order_id"`
	Price   int64 `msgpack:"price"`
	Volume  int64 `msgpack:"volume"`
}

type orderStatusBody struct {
	OrderID         int64 `msgpack:"order_id"`
	FillVolume      int64 `msgpack:"fill_volume"`
	RemainingVolume int64 `msgpack:"remaining_volume"`
	Fees            int64 `msgpack:"fees"`
}

type errorBody struct {
	OrderID int64  `msgpack:"order_id"`
	Message string `msgpack:"message"`
}

type insertOrderBody struct {
	OrderID  int64  `msgpack:"order_id"`
	Side     string `msgpack:"side"`
	Price    int64  `msgpack:"price"`
	Volume   int64  `msgpack:"volume"`
	Lifespan string `msgpack:"lifespan"`
}

type cancelOrderBody struct {
	OrderID int64 `msgpack:"order_id"`
}

type hedgeOrderBody struct {
	OrderID int64  `msgpack:"order_id"`
	Side    string `msgpack:"side"`
	Price   int64  `msgpack:"price"`
	Volume  int64  `msgpack:"volume"`
}

func encodeFrame(frameType string, body any) ([]byte, error) {
	raw, err := msgpack.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", frameType, err)
	}
	data, err := msgpack.Marshal(envelope{Type: frameType, Body: raw})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", frameType, err)
	}
	return data, nil
}

func decodeEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return envelope{}, fmt.Errorf("envelope missing type")
	}
	return env, nil
}

func (b bookBody) update() (market.BookUpdate, error) {
	inst := market.Instrument(b.Instrument)
	if !inst.Valid() {
		return market.BookUpdate{}, fmt.Errorf("unknown instrument %d", b.Instrument)
	}
	return market.BookUpdate{
		Instrument: inst,
		Sequence:   b.Sequence,
		AskPrices:  b.AskPrices,
		AskVolumes: b.AskVolumes,
		BidPrices:  b.BidPrices,
		BidVolumes: b.BidVolumes,
	}, nil
}
