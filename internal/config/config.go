package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LoggingConfig   `yaml:"log"`
	WS        WSConfig        `yaml:"ws"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	State     StateConfig     `yaml:"state"`
	Timescale TimescaleConfig `yaml:"timescale"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Telegram  TelegramConfig  `yaml:"telegram"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WSConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type TimescaleConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	Schema          string        `yaml:"schema"`
	QueueSize       int           `yaml:"queue_size"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type StrategyConfig struct {
	Variant         string  `yaml:"variant"`
	LotSize         int64   `yaml:"lot_size"`
	PositionLimit   int64   `yaml:"position_limit"`
	TickSize        int64   `yaml:"tick_size"`
	BuyRatio        float64 `yaml:"buy_ratio"`
	SellRatio       float64 `yaml:"sell_ratio"`
	Window          int     `yaml:"window"`
	BandWidth       float64 `yaml:"band_width"`
	BoostMultiplier int64   `yaml:"boost_multiplier"`
	Decay           float64 `yaml:"decay"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.WS.ReconnectDelay == 0 {
		cfg.WS.ReconnectDelay = 3 * time.Second
	}
	if cfg.WS.PingInterval == 0 {
		cfg.WS.PingInterval = 30 * time.Second
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9090"
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/etf-arb-bot.db"
	}
	if cfg.Timescale.Schema == "" {
		cfg.Timescale.Schema = "public"
	}
	if cfg.Strategy.Variant == "" {
		cfg.Strategy.Variant = "bollinger"
	}
	if cfg.Strategy.LotSize == 0 {
		cfg.Strategy.LotSize = 10
	}
	if cfg.Strategy.PositionLimit == 0 {
		cfg.Strategy.PositionLimit = 100
	}
	if cfg.Strategy.TickSize == 0 {
		cfg.Strategy.TickSize = 100
	}
	if cfg.Strategy.BuyRatio == 0 {
		cfg.Strategy.BuyRatio = 0.995
	}
	if cfg.Strategy.SellRatio == 0 {
		cfg.Strategy.SellRatio = 1.005
	}
	if cfg.Strategy.Window == 0 {
		cfg.Strategy.Window = 20
	}
	if cfg.Strategy.BandWidth == 0 {
		cfg.Strategy.BandWidth = 1
	}
	if cfg.Strategy.BoostMultiplier == 0 {
		cfg.Strategy.BoostMultiplier = 3
	}
	if cfg.Strategy.Decay == 0 {
		cfg.Strategy.Decay = 0.98
	}
}

func validate(cfg *Config) error {
	if cfg.WS.URL == "" {
		return errors.New("ws.url is required")
	}
	if cfg.Strategy.LotSize <= 0 {
		return errors.New("strategy.lot_size must be > 0")
	}
	if cfg.Strategy.PositionLimit <= 0 {
		return errors.New("strategy.position_limit must be > 0")
	}
	if cfg.Strategy.LotSize > cfg.Strategy.PositionLimit {
		return errors.New("strategy.lot_size exceeds strategy.position_limit")
	}
	if cfg.Strategy.BuyRatio >= cfg.Strategy.SellRatio {
		return errors.New("strategy.buy_ratio must be below strategy.sell_ratio")
	}
	if cfg.Strategy.Decay < 0 || cfg.Strategy.Decay >= 1 {
		return errors.New("strategy.decay must be in [0, 1)")
	}
	if cfg.Timescale.Enabled && cfg.Timescale.DSN == "" {
		return errors.New("timescale.dsn is required when timescale is enabled")
	}
	return nil
}
