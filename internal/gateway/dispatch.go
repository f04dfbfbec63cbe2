package gateway

import (
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// dispatch decodes one inbound frame and routes it to the handler. Malformed
// frames are logged and dropped; they never tear down the session.
func (c *Client) dispatch(data []byte, handler Handler) {
	env, err := decodeEnvelope(data)
	if err != nil {
		c.log.Warn("gateway frame dropped", zap.Error(err))
		return
	}
	switch env.Type {
	case frameOrderBook, frameTradeTicks:
		var body bookBody
		if err := msgpack.Unmarshal(env.Body, &body); err != nil {
			c.log.Warn("gateway frame dropped", zap.String("type", env.Type), zap.Error(err))
			return
		}
		update, err := body.update()
		if err != nil {
			c.log.Warn("gateway frame dropped", zap.String("type", env.Type), zap.Error(err))
			return
		}
		if env.Type == frameOrderBook {
			handler.OnOrderBook(update)
		} else {
			handler.OnTradeTicks(update)
		}
	case frameOrderFilled, frameHedgeFilled:
		var body orderFilledBody
		if err := msgpack.Unmarshal(env.Body, &body); err != nil {
			c.log.Warn("gateway frame dropped", zap.String("type", env.Type), zap.Error(err))
			return
		}
		if env.Type == frameOrderFilled {
			handler.OnOrderFilled(body.OrderID, body.Price, body.Volume)
		} else {
			handler.OnHedgeFilled(body.OrderID, body.Price, body.Volume)
		}
	case frameOrderStatus:
		var body orderStatusBody
		if err := msgpack.Unmarshal(env.Body, &body); err != nil {
			c.log.Warn("gateway frame dropped", zap.String("type", env.Type), zap.Error(err))
			return
		}
		handler.OnOrderStatus(body.OrderID, body.FillVolume, body.RemainingVolume, body.Fees)
	case frameError:
		var body errorBody
		if err := msgpack.Unmarshal(env.Body, &body); err != nil {
			c.log.Warn("gateway frame dropped", zap.String("type", env.Type), zap.Error(err))
			return
		}
		handler.OnError(body.OrderID, body.Message)
	default:
		c.log.Debug("gateway frame ignored", zap.String("type", env.Type))
	}
}
