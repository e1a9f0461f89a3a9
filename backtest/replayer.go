// Package backtest replays persisted tick streams through the execution
// kernel and records the results as runs.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/boryxf/ag-kernel/internal/domain"
	"github.com/boryxf/ag-kernel/internal/engine"
	"github.com/boryxf/ag-kernel/internal/storage"
	"github.com/boryxf/ag-kernel/internal/strategy"
	"github.com/boryxf/ag-kernel/pkg/quant"
)

// Replayer drives one engine over a stored tick stream.
type Replayer struct {
	store *storage.RunStore
	cfg   engine.Config
}

// NewReplayer creates a replayer over the given store.
func NewReplayer(store *storage.RunStore, cfg engine.Config) *Replayer {
	return &Replayer{store: store, cfg: cfg}
}

// Run replays the named stream through a fresh engine, feeding each tick
// to the strategy (when provided) and placing the orders it emits. The
// finished run is persisted under a fresh run id, which is returned.
//
// Replay is synchronous and single-threaded: rerunning the same stream
// with the same configuration reproduces the same run, fill for fill.
func (r *Replayer) Run(ctx context.Context, stream string, strat strategy.Strategy) (string, error) {
	ticks, err := r.store.LoadTicks(ctx, stream)
	if err != nil {
		return "", fmt.Errorf("failed to load stream %s: %w", stream, err)
	}
	if len(ticks) == 0 {
		return "", fmt.Errorf("stream %s is empty", stream)
	}

	eng, err := engine.New(r.cfg)
	if err != nil {
		return "", err
	}

	runID := uuid.NewString()
	startedAt := time.Now().UnixMilli()
	slog.Info("REPLAY_START",
		slog.String("run_id", runID),
		slog.String("stream", stream),
		slog.Int("ticks", len(ticks)))

	tickSizeMicros := int64(quant.ToPriceMicros(r.cfg.TickSize))
	seenFills := 0
	for _, t := range ticks {
		if err := eng.StepTick(t); err != nil {
			return "", fmt.Errorf("replay of %s stopped at ts=%d: %w", stream, t.TsMs, err)
		}
		if strat == nil {
			continue
		}

		fills := eng.Trades()
		for _, f := range fills[seenFills:] {
			strat.OnFill(f)
		}
		seenFills = len(fills)

		for _, o := range strat.OnTick(t.TsMs, t.PriceTick*tickSizeMicros) {
			if _, err := eng.PlaceOrder(o); err != nil {
				return "", fmt.Errorf("strategy order rejected at ts=%d: %w", t.TsMs, err)
			}
		}
	}

	final := eng.Snapshot()
	result := storage.RunResult{
		ID:            runID,
		Stream:        stream,
		StartedAtMs:   startedAt,
		Arithmetic:    string(r.arithmetic()),
		FinalEquity:   final.Equity,
		RealizedPnL:   final.RealizedPnL,
		PrecisionLoss: eng.PrecisionLossCount(),
		Fills:         eng.Trades(),
		History:       eng.History(),
	}
	if err := r.store.SaveRun(ctx, result); err != nil {
		return "", fmt.Errorf("failed to persist run %s: %w", runID, err)
	}

	slog.Info("REPLAY_DONE",
		slog.String("run_id", runID),
		slog.Int("fills", len(result.Fills)),
		slog.Float64("final_equity", final.Equity),
		slog.Uint64("precision_loss", result.PrecisionLoss))
	return runID, nil
}

func (r *Replayer) arithmetic() engine.Arithmetic {
	if r.cfg.Arithmetic == "" {
		return engine.ArithmeticFixed
	}
	return r.cfg.Arithmetic
}

// Fills loads the fill records of a finished run.
func (r *Replayer) Fills(ctx context.Context, runID string) ([]domain.FillRecord, error) {
	return r.store.LoadFills(ctx, runID)
}
