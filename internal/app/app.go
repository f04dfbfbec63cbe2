package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"etf-arb-bot/internal/alerts"
	"etf-arb-bot/internal/blotter"
	"etf-arb-bot/internal/config"
	"etf-arb-bot/internal/engine"
	"etf-arb-bot/internal/gateway"
	"etf-arb-bot/internal/market"
	"etf-arb-bot/internal/metrics"
	"etf-arb-bot/internal/strategy"
	"etf-arb-bot/internal/timescale"
)

type App struct {
	cfg       *config.Config
	log       *zap.Logger
	store     *blotter.Store
	timescale *timescale.Writer
	gateway   *gateway.Client
	engine    *engine.Engine
	prom      *metrics.Prometheus
	alerts    *alerts.Telegram
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	store, err := blotter.Open(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}
	writer, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	strat, err := strategy.New(strategy.Variant(cfg.Strategy.Variant), strategy.Params{
		BuyRatio:  cfg.Strategy.BuyRatio,
		SellRatio: cfg.Strategy.SellRatio,
		Window:    cfg.Strategy.Window,
		BandWidth: cfg.Strategy.BandWidth,
		Decay:     cfg.Strategy.Decay,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	met := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheus()
		met = prom.Metrics
	}

	gw := gateway.New(cfg.WS.URL, cfg.WS.ReconnectDelay, cfg.WS.PingInterval, log)
	rec := &recorder{store: store, timescale: writer, log: log}
	eng := engine.New(engine.Config{
		LotSize:         cfg.Strategy.LotSize,
		PositionLimit:   cfg.Strategy.PositionLimit,
		BoostMultiplier: cfg.Strategy.BoostMultiplier,
		Lifespan:        market.GoodForDay,
	}, strat, market.NewTracker(cfg.Strategy.TickSize), gw, met, rec, log)

	return &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		timescale: writer,
		gateway:   gw,
		engine:    eng,
		prom:      prom,
		alerts:    alerts.NewTelegram(cfg.Telegram, log),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()
	if a.timescale != nil {
		a.timescale.Start(ctx)
		defer a.timescale.Close()
	}
	if a.prom != nil {
		go a.serveMetrics(ctx)
	}
	a.log.Info("trading session starting",
		zap.String("gateway", a.cfg.WS.URL),
		zap.String("variant", a.cfg.Strategy.Variant),
		zap.Int64("lot_size", a.cfg.Strategy.LotSize),
		zap.Int64("position_limit", a.cfg.Strategy.PositionLimit),
	)

	err := a.gateway.Run(ctx, &alertingHandler{Engine: a.engine, alerts: a.alerts, log: a.log})
	if errors.Is(err, context.Canceled) {
		a.log.Info("trading session stopped", zap.Int64("position", a.engine.Position()))
		return err
	}
	a.log.Error("trading session lost", zap.Int64("position", a.engine.Position()), zap.Error(err))
	return err
}

func (a *App) serveMetrics(ctx context.Context) {
	server := &http.Server{Addr: a.cfg.Metrics.Listen, Handler: a.prom.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Warn("metrics server failed", zap.Error(err))
	}
}

// alertingHandler forwards bus events to the engine and pushes operator
// alerts for the conditions worth waking someone for.
type alertingHandler struct {
	*engine.Engine
	alerts *alerts.Telegram
	log    *zap.Logger
}

func (h *alertingHandler) OnError(id int64, message string) {
	h.Engine.OnError(id, message)
	h.notify("order %d rejected: %s", id, message)
}

func (h *alertingHandler) OnDisconnect() {
	h.Engine.OnDisconnect()
	h.notify("execution connection lost, shutting down")
}

func (h *alertingHandler) notify(format string, args ...any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.alerts.Sendf(ctx, format, args...); err != nil {
		h.log.Warn("alert send failed", zap.Error(err))
	}
}
