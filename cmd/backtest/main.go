// Command backtest drives a single historical replay: it loads a
// container from the columnar sources named in a YAML config, merges
// them through the producer core, and reports summary statistics.
// Strategy evaluation and order routing are out of scope for the
// core, so this driver turns each instrument's trade ticks into a
// simple alternating buy/sell fill sequence purely to exercise the
// position engine and give the closed-position store a live writer;
// it is not a trading strategy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/quantlab/backtestcore/internal/config"
	"github.com/quantlab/backtestcore/internal/data"
	"github.com/quantlab/backtestcore/internal/domain"
	"github.com/quantlab/backtestcore/internal/producer"
	"github.com/quantlab/backtestcore/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to backtest config")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	setLogLevel(level, cfg.Logging.Level)

	container, err := buildContainer(cfg)
	if err != nil {
		slog.Error("failed to build container", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		slog.Error("failed to open storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if err := runReplay(ctx, container, cfg, store, logger); err != nil {
		slog.Error("replay failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func setLogLevel(level *slog.LevelVar, name string) {
	switch name {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

func buildContainer(cfg *config.BacktestConfig) (*data.Container, error) {
	quotes := make(map[domain.InstrumentId]data.QuoteColumns)
	trades := make(map[domain.InstrumentId]data.TradeColumns)

	for _, src := range cfg.Container.QuoteSources {
		qc, err := data.LoadQuoteCSV(src.Path)
		if err != nil {
			return nil, err
		}
		quotes[domain.InstrumentId{Symbol: src.Symbol, Venue: src.Venue}] = qc
	}
	for _, src := range cfg.Container.TradeSources {
		tc, err := data.LoadTradeCSV(src.Path)
		if err != nil {
			return nil, err
		}
		trades[domain.InstrumentId{Symbol: src.Symbol, Venue: src.Venue}] = tc
	}

	return data.NewContainer(quotes, trades, nil), nil
}

// replaySource is satisfied by both producer.Producer and
// producer.CachedProducer, letting runReplay stay agnostic to
// cfg.Run.Cached.
type replaySource interface {
	Setup(startNs, stopNs int64) error
	Next() (domain.Tick, bool)
}

func runReplay(ctx context.Context, container *data.Container, cfg *config.BacktestConfig, store *storage.Store, logger *slog.Logger) error {
	var src replaySource
	if cfg.Run.Cached {
		src = producer.NewCachedProducer(container, logger)
	} else {
		src = producer.New(container, logger)
	}

	if err := src.Setup(cfg.Run.StartNs, cfg.Run.StopNs); err != nil {
		return err
	}

	quoteCurrency := domain.NewCurrency(cfg.Run.QuoteCurrency, 2)
	tracker := newPositionTracker(quoteCurrency, logger)

	quoteCount, tradeCount := 0, 0
	for {
		tick, ok := src.Next()
		if !ok {
			break
		}
		switch t := tick.(type) {
		case domain.QuoteTick:
			quoteCount++
		case domain.TradeTick:
			tradeCount++
			if err := tracker.onTrade(ctx, store, t); err != nil {
				return err
			}
		}
	}

	closedCount, err := store.ClosedPositionCount(ctx)
	if err != nil {
		return err
	}

	logger.Info("replay complete",
		slog.Int("quotes", quoteCount),
		slog.Int("trades", tradeCount),
		slog.Int("closed_positions_on_record", closedCount),
	)
	return nil
}

// positionTracker turns each instrument's trade ticks into an
// alternating buy/sell fill sequence, one open position per
// instrument at a time, and persists each position once it flattens.
// This is demo wiring for the position engine and the closed-position
// store, not a trading strategy.
type positionTracker struct {
	quoteCurrency domain.Currency
	logger        *slog.Logger
	open          map[domain.InstrumentId]*domain.Position
	nextSide      map[domain.InstrumentId]domain.OrderSide
	fillSeq       map[domain.InstrumentId]int
}

func newPositionTracker(quoteCurrency domain.Currency, logger *slog.Logger) *positionTracker {
	return &positionTracker{
		quoteCurrency: quoteCurrency,
		logger:        logger,
		open:          make(map[domain.InstrumentId]*domain.Position),
		nextSide:      make(map[domain.InstrumentId]domain.OrderSide),
		fillSeq:       make(map[domain.InstrumentId]int),
	}
}

func (t *positionTracker) onTrade(ctx context.Context, store *storage.Store, tick domain.TradeTick) error {
	id := tick.InstrumentId
	side, ok := t.nextSide[id]
	if !ok {
		side = domain.OrderSideBuy
	}

	seq := t.fillSeq[id]
	t.fillSeq[id] = seq + 1

	fill := domain.OrderFilled{
		ClientOrderId: domain.ClientOrderId(fmt.Sprintf("C-%s-%d", id, seq)),
		OrderId:       domain.OrderId(fmt.Sprintf("O-%s-%d", id, seq)),
		ExecutionId:   domain.ExecutionId(fmt.Sprintf("E-%s-%d", id, seq)),
		PositionId:    domain.PositionId(fmt.Sprintf("P-%s", id)),
		StrategyId:    "demo-alternating",
		AccountId:     "demo-account",
		InstrumentId:  id,
		OrderSide:     side,
		FillPrice:     tick.Price,
		FillQty:       tick.Size,
		Currency:      t.quoteCurrency,
		Commission:    domain.ZeroMoney(t.quoteCurrency),
		ExecutionNs:   tick.TsNanos,
	}

	pos, open := t.open[id]
	var err error
	if !open {
		pos, err = domain.NewPosition(fill, t.logger)
	} else {
		err = pos.Apply(fill)
	}
	if err != nil {
		return fmt.Errorf("position tracker: %s: %w", id, err)
	}
	t.open[id] = pos

	if side == domain.OrderSideBuy {
		t.nextSide[id] = domain.OrderSideSell
	} else {
		t.nextSide[id] = domain.OrderSideBuy
	}

	if pos.IsClosed() {
		if err := store.SaveClosedPosition(ctx, pos); err != nil {
			return fmt.Errorf("position tracker: save %s: %w", id, err)
		}
		delete(t.open, id)
	}
	return nil
}
