package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/boryxf/ag-kernel/backtest"
	"github.com/boryxf/ag-kernel/internal/feed"
	"github.com/boryxf/ag-kernel/internal/infra"
	"github.com/boryxf/ag-kernel/internal/storage"
	"github.com/boryxf/ag-kernel/internal/strategy"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file")
		mode       = flag.String("mode", "replay", "replay|record")
		smaShort   = flag.Int("sma-short", 0, "short SMA period (0 disables the strategy)")
		smaLong    = flag.Int("sma-long", 0, "long SMA period")
		orderQty   = flag.Float64("order-qty", 0.01, "strategy order quantity")
	)
	flag.Parse()

	// .env is optional: absent file is fine, present file feeds the env
	// overrides in LoadConfig.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Configuration failed", slog.Any("error", err))
		os.Exit(1)
	}
	infra.SetupLogger(cfg.Logging.Level)
	infra.PrintBanner(cfg, *mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewRunStore(cfg.Storage.Path)
	if err != nil {
		slog.Error("Failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	switch *mode {
	case "record":
		runRecord(ctx, cfg, store)
	case "replay":
		runReplay(ctx, cfg, store, *smaShort, *smaLong, *orderQty)
	default:
		slog.Error("Unknown mode", slog.String("mode", *mode))
		os.Exit(1)
	}
}

// runRecord captures the live feed into the configured stream until
// interrupted.
func runRecord(ctx context.Context, cfg *infra.Config, store *storage.RunStore) {
	if cfg.Feed.WSURL == "" {
		slog.Error("record mode requires feed.ws_url")
		os.Exit(1)
	}

	rec, err := feed.NewRecorder(ctx, feed.Config{
		URL:      cfg.Feed.WSURL,
		Symbol:   cfg.Feed.Symbol,
		Stream:   cfg.Storage.Stream,
		TickSize: cfg.Engine.TickSize,
	}, store)
	if err != nil {
		slog.Error("Failed to create recorder", slog.Any("error", err))
		os.Exit(1)
	}

	rec.Start(ctx)
	slog.Info("Recording... press Ctrl+C to stop",
		slog.String("stream", cfg.Storage.Stream))
	<-ctx.Done()
	rec.Stop()

	slog.Info("Recording stopped", slog.Uint64("dropped", rec.Dropped()))
}

// runReplay drives one backtest over the stored stream and prints a
// summary table.
func runReplay(ctx context.Context, cfg *infra.Config, store *storage.RunStore, smaShort, smaLong int, orderQty float64) {
	var strat strategy.Strategy
	if smaShort > 0 && smaLong > 0 {
		strat = strategy.NewSMACross(smaShort, smaLong, orderQty)
	}

	r := backtest.NewReplayer(store, cfg.Engine)
	runID, err := r.Run(ctx, cfg.Storage.Stream, strat)
	if err != nil {
		slog.Error("Replay failed", slog.Any("error", err))
		os.Exit(1)
	}

	run, err := store.LoadRun(ctx, runID)
	if err != nil {
		slog.Error("Failed to load run", slog.Any("error", err))
		os.Exit(1)
	}
	fills, err := store.LoadFills(ctx, runID)
	if err != nil {
		slog.Error("Failed to load fills", slog.Any("error", err))
		os.Exit(1)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Run", "Stream", "Arithmetic", "Fills", "Realized PnL", "Final Equity", "Precision Loss")
	table.Append(
		run.ID,
		run.Stream,
		run.Arithmetic,
		fmt.Sprintf("%d", len(fills)),
		fmt.Sprintf("%.6f", run.RealizedPnL),
		fmt.Sprintf("%.6f", run.FinalEquity),
		fmt.Sprintf("%d", run.PrecisionLoss),
	)
	table.Render()
}
