package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"etf-arb-bot/internal/config"
)

const writeTimeout = 3 * time.Second

// RatioSnapshot is one signal evaluation: the pair ratio, the midpoints it
// was derived from and the decision taken.
type RatioSnapshot struct {
	Time      time.Time
	Sequence  uint64
	Ratio     float64
	EtfMid    int64
	FutureMid int64
	Position  int64
	Buy       bool
	Sell      bool
	CancelBid bool
	CancelAsk bool
	Boosted   bool
}

// TradeTick is one public trade report, stored for market replay queries.
type TradeTick struct {
	Time       time.Time
	Instrument string
	Sequence   uint64
	AskPrice   int64
	AskVolume  int64
	BidPrice   int64
	BidVolume  int64
}

// Writer records engine telemetry into TimescaleDB. Writes are queued and
// flushed from a single goroutine; a full queue drops rather than blocks the
// event path.
type Writer struct {
	db        *sql.DB
	log       *zap.Logger
	schema    string
	ratios    chan RatioSnapshot
	ticks     chan TradeTick
	started   atomic.Bool
	dropRatio atomic.Uint64
	dropTick  atomic.Uint64
}

func New(cfg config.TimescaleConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:     db,
		log:    log,
		schema: schema,
		ratios: make(chan RatioSnapshot, queueSize),
		ticks:  make(chan TradeTick, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) EnqueueRatio(snapshot RatioSnapshot) {
	if w == nil {
		return
	}
	select {
	case w.ratios <- snapshot:
		return
	default:
		if w.dropRatio.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale ratio queue full")
		}
	}
}

func (w *Writer) EnqueueTick(tick TradeTick) {
	if w == nil {
		return
	}
	select {
	case w.ticks <- tick:
		return
	default:
		if w.dropTick.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale tick queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-w.ratios:
			w.writeRatio(ctx, snap)
		case tick := <-w.ticks:
			w.writeTick(ctx, tick)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("timescale db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		sequence BIGINT NOT NULL,
		ratio DOUBLE PRECISION NOT NULL,
		etf_mid BIGINT NOT NULL,
		future_mid BIGINT NOT NULL,
		position BIGINT NOT NULL,
		buy BOOLEAN NOT NULL,
		sell BOOLEAN NOT NULL,
		cancel_bid BOOLEAN NOT NULL,
		cancel_ask BOOLEAN NOT NULL,
		boosted BOOLEAN NOT NULL
	)`, w.table("ratio_snapshots"))); err != nil {
		return err
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		instrument TEXT NOT NULL,
		sequence BIGINT NOT NULL,
		ask_price BIGINT NOT NULL,
		ask_volume BIGINT NOT NULL,
		bid_price BIGINT NOT NULL,
		bid_volume BIGINT NOT NULL
	)`, w.table("trade_ticks"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("ratio_snapshots"))); err != nil && w.log != nil {
		w.log.Warn("timescale ratio_snapshots hypertable create failed", zap.Error(err))
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("trade_ticks"))); err != nil && w.log != nil {
		w.log.Warn("timescale trade_ticks hypertable create failed", zap.Error(err))
	}
	return nil
}

func (w *Writer) writeRatio(ctx context.Context, snap RatioSnapshot) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, sequence, ratio, etf_mid, future_mid, position, buy, sell, cancel_bid, cancel_ask, boosted
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
	)`, w.table("ratio_snapshots"))
	if _, err := w.db.ExecContext(ctx, query,
		snap.Time,
		int64(snap.Sequence),
		snap.Ratio,
		snap.EtfMid,
		snap.FutureMid,
		snap.Position,
		snap.Buy,
		snap.Sell,
		snap.CancelBid,
		snap.CancelAsk,
		snap.Boosted,
	); err != nil && w.log != nil {
		w.log.Warn("timescale ratio insert failed", zap.Error(err))
	}
}

func (w *Writer) writeTick(ctx context.Context, tick TradeTick) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, instrument, sequence, ask_price, ask_volume, bid_price, bid_volume
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7
	)`, w.table("trade_ticks"))
	if _, err := w.db.ExecContext(ctx, query,
		tick.Time,
		tick.Instrument,
		int64(tick.Sequence),
		tick.AskPrice,
		tick.AskVolume,
		tick.BidPrice,
		tick.BidVolume,
	); err != nil && w.log != nil {
		w.log.Warn("timescale tick insert failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
