// Package producer merges a data.Container's per-instrument columnar
// quote and trade ticks into a single deterministic, time-ordered
// stream bounded by a replay window.
package producer

import (
	"fmt"
	"log/slog"

	"github.com/quantlab/backtestcore/internal/data"
	"github.com/quantlab/backtestcore/internal/domain"
)

// Producer is the single-threaded, non-suspending producer core. It is not safe for concurrent mutation.
type Producer struct {
	container   *data.Container
	instruments []domain.InstrumentId
	logger      *slog.Logger

	quotes mergedQuotes
	trades mergedTrades

	quoteStart, quoteEnd int
	tradeStart, tradeEnd int

	quoteCursor, tradeCursor int

	nextQuote *domain.QuoteTick
	nextTrade *domain.TradeTick

	hasData bool
}

// New constructs a producer over a container. No merging happens until
// Setup is called.
func New(container *data.Container, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		container:   container,
		instruments: container.Instruments(),
		logger:      logger,
	}
}

// Setup binds a replay window [startNs, stopNs]. It merges
// all instruments' quote and trade columns into single time-sorted
// runs, restricts each run to the requested window, and pre-stages the
// first quote and first trade (if any) into look-ahead slots.
func (p *Producer) Setup(startNs, stopNs int64) error {
	if startNs > stopNs || startNs < p.container.MinTsNs() || stopNs > p.container.MaxTsNs() {
		return fmt.Errorf("producer: setup(%d, %d) outside [%d, %d]: %w",
			startNs, stopNs, p.container.MinTsNs(), p.container.MaxTsNs(), ErrWindowInvalid)
	}

	quotes, err := buildMergedQuotes(p.container)
	if err != nil {
		return err
	}
	trades, err := buildMergedTrades(p.container)
	if err != nil {
		return err
	}
	p.quotes = quotes
	p.trades = trades

	p.quoteStart, p.quoteEnd = boundsFor(p.quotes.tsNs, startNs, stopNs)
	p.tradeStart, p.tradeEnd = boundsFor(p.trades.tsNs, startNs, stopNs)

	p.reposition()

	p.logger.Debug("producer setup",
		slog.Int64("start_ns", startNs),
		slog.Int64("stop_ns", stopNs),
		slog.Int("quote_count", p.quoteEnd-p.quoteStart),
		slog.Int("trade_count", p.tradeEnd-p.tradeStart),
	)
	return nil
}

// Reset re-positions both cursors to the start of the current window
// without rebuilding the merged runs.
func (p *Producer) Reset() {
	p.reposition()
}

func (p *Producer) reposition() {
	p.quoteCursor = p.quoteStart
	p.tradeCursor = p.tradeStart
	p.nextQuote = p.stageQuote(p.quoteCursor)
	p.nextTrade = p.stageTrade(p.tradeCursor)
	p.hasData = p.nextQuote != nil || p.nextTrade != nil
}

func (p *Producer) stageQuote(i int) *domain.QuoteTick {
	if i >= p.quoteEnd {
		return nil
	}
	tick, err := materializeQuote(p.quotes, i, p.instruments)
	if err != nil {
		p.logger.Warn("producer: failed to materialize quote", slog.Any("error", err))
		return nil
	}
	return &tick
}

func (p *Producer) stageTrade(i int) *domain.TradeTick {
	if i >= p.tradeEnd {
		return nil
	}
	tick, err := materializeTrade(p.trades, i, p.instruments)
	if err != nil {
		p.logger.Warn("producer: failed to materialize trade", slog.Any("error", err))
		return nil
	}
	return &tick
}

// HasData reports whether the current window still has ticks left to
// emit.
func (p *Producer) HasData() bool { return p.hasData }

// Next returns the next tick in non-decreasing global timestamp order,
// or (nil, false) once both cursors are exhausted. At equal
// timestamps the quote is emitted before the trade.
func (p *Producer) Next() (domain.Tick, bool) {
	if p.nextQuote == nil && p.nextTrade == nil {
		p.hasData = false
		return nil, false
	}

	var emitted domain.Tick
	switch {
	case p.nextTrade == nil, p.nextQuote != nil && p.nextQuote.TsNanos <= p.nextTrade.TsNanos:
		emitted = *p.nextQuote
		p.quoteCursor++
		p.nextQuote = p.stageQuote(p.quoteCursor)
	default:
		emitted = *p.nextTrade
		p.tradeCursor++
		p.nextTrade = p.stageTrade(p.tradeCursor)
	}

	p.hasData = p.nextQuote != nil || p.nextTrade != nil
	return emitted, true
}

// Clear drops the merged buffers and look-ahead, releasing memory.
func (p *Producer) Clear() {
	p.quotes = mergedQuotes{}
	p.trades = mergedTrades{}
	p.quoteStart, p.quoteEnd = 0, 0
	p.tradeStart, p.tradeEnd = 0, 0
	p.quoteCursor, p.tradeCursor = 0, 0
	p.nextQuote = nil
	p.nextTrade = nil
	p.hasData = false
}
