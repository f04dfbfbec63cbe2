package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"etf-arb-bot/internal/market"
)

const sendTimeout = 5 * time.Second

// Handler is the inbound callback contract of the execution bus. The client
// invokes handlers sequentially from its read loop, one event at a time.
type Handler interface {
	OnOrderBook(update market.BookUpdate)
	OnTradeTicks(update market.BookUpdate)
	OnOrderFilled(id, price, volume int64)
	OnOrderStatus(id, fillVolume, remainingVolume, fees int64)
	OnHedgeFilled(id, price, volume int64)
	OnError(id int64, message string)
	OnDisconnect()
}

// Client is a websocket session to the exchange bus. It also implements the
// engine's outbound Bus interface.
type Client struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(url string, reconnectDelay, pingInterval time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{url: url, reconnectDelay: reconnectDelay, pingInterval: pingInterval, log: log}
}

// Connect dials the bus, retrying on the reconnect delay until the context is
// cancelled.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	for {
		conn, _, err := websocket.Dial(ctx, c.url, nil)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("gateway dial failed", zap.String("url", c.url), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

// Run reads frames and dispatches them to handler until the session drops.
// A broken session is terminal: the handler's OnDisconnect fires once and Run
// returns the read error.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	pingCtx, cancel := context.WithCancel(ctx)
	pingDone := make(chan struct{})
	go func() {
		defer close(pingDone)
		c.pingLoop(pingCtx)
	}()
	err := c.readLoop(ctx, handler)
	cancel()
	<-pingDone
	c.close()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.log.Warn("gateway read loop ended", zap.Error(err))
	handler.OnDisconnect()
	return err
}

func (c *Client) readLoop(ctx context.Context, handler Handler) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("gateway not connected")
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		c.dispatch(data, handler)
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	interval := c.pingInterval
	c.mu.Unlock()
	if conn == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

func (c *Client) send(data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("gateway not connected")
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageBinary, data)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "session ended")
		c.conn = nil
	}
}

// InsertOrder sends an insert command for a new resting order.
func (c *Client) InsertOrder(id int64, side market.Side, price, volume int64, lifespan market.Lifespan) error {
	data, err := encodeFrame(frameInsertOrder, insertOrderBody{
		OrderID:  id,
		Side:     side.String(),
		Price:    price,
		Volume:   volume,
		Lifespan: lifespan.String(),
	})
	if err != nil {
		return err
	}
	return c.send(data)
}

// CancelOrder sends a cancel command for a resting order.
func (c *Client) CancelOrder(id int64) error {
	data, err := encodeFrame(frameCancelOrder, cancelOrderBody{OrderID: id})
	if err != nil {
		return err
	}
	return c.send(data)
}

// HedgeOrder sends a liquidity-taking hedge command.
func (c *Client) HedgeOrder(id int64, side market.Side, price, volume int64) error {
	data, err := encodeFrame(frameHedgeOrder, hedgeOrderBody{
		OrderID: id,
		Side:    side.String(),
		Price:   price,
		Volume:  volume,
	})
	if err != nil {
		return err
	}
	return c.send(data)
}
