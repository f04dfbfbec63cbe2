package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"etf-arb-bot/internal/blotter"
	"etf-arb-bot/internal/config"
	"etf-arb-bot/internal/strategy"
)

// verify loads a config, builds the configured signal variant and replays a
// short synthetic ratio path through it so operators can sanity-check the
// thresholds before pointing the bot at a live session. With -blotter it
// prints the newest entries of the trade journal instead.
func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	showBlotter := flag.Int("blotter", 0, "print the N newest trade journal entries and exit")
	flag.Parse()

	if err := config.LoadEnv(".env"); err != nil {
		fatal(err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	if *showBlotter > 0 {
		printBlotter(cfg.State.SQLitePath, *showBlotter)
		return
	}

	strat, err := strategy.New(strategy.Variant(cfg.Strategy.Variant), strategy.Params{
		BuyRatio:  cfg.Strategy.BuyRatio,
		SellRatio: cfg.Strategy.SellRatio,
		Window:    cfg.Strategy.Window,
		BandWidth: cfg.Strategy.BandWidth,
		Decay:     cfg.Strategy.Decay,
	})
	if err != nil {
		fatal(err)
	}

	fmt.Printf("variant=%s lot=%d limit=%d buy<%.4f sell>%.4f\n",
		strat.Name(), cfg.Strategy.LotSize, cfg.Strategy.PositionLimit,
		cfg.Strategy.BuyRatio, cfg.Strategy.SellRatio)

	// A ratio path that drifts out to both thresholds and back to parity.
	path := []float64{
		1.000, 1.001, 0.999, 0.998, 0.996, 0.994, 0.992, 0.990,
		0.994, 0.998, 1.000, 1.002, 1.004, 1.006, 1.008, 1.010,
		1.006, 1.002, 1.000,
	}
	for i, ratio := range path {
		advice := strat.Evaluate(ratio)
		fmt.Printf("step=%-2d ratio=%.4f buy=%-5t sell=%-5t boost=%-5t cancel_bid=%-5t cancel_ask=%t\n",
			i, ratio, advice.Buy, advice.Sell, advice.BuyBoost || advice.SellBoost,
			advice.CancelBid, advice.CancelAsk)
	}
}

func printBlotter(path string, limit int) {
	store, err := blotter.Open(path)
	if err != nil {
		fatal(err)
	}
	defer store.Close()
	entries, err := store.Recent(context.Background(), limit)
	if err != nil {
		fatal(err)
	}
	if len(entries) == 0 {
		fmt.Println("trade journal is empty")
		return
	}
	for _, entry := range entries {
		fmt.Printf("%s %-5s order=%d side=%-4s price=%d volume=%d position=%d\n",
			entry.Time.Format("2006-01-02T15:04:05.000Z"), entry.Kind,
			entry.OrderID, entry.Side, entry.Price, entry.Volume, entry.Position)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "verify: %v\n", err)
	os.Exit(1)
}
