package producer

import (
	"fmt"
	"sort"

	"github.com/quantlab/backtestcore/internal/data"
	"github.com/quantlab/backtestcore/internal/domain"
)

// mergedQuotes holds the ascending-by-timestamp concatenation of every
// instrument's quote columns. The merge is precomputed once per
// Setup, not a live k-way merge, because the container is finite and
// immutable and look-ahead/rewind must be O(1).
type mergedQuotes struct {
	instrumentIdx []int32
	bid           []string
	ask           []string
	bidSize       []string
	askSize       []string
	tsNs          []int64
}

func (m mergedQuotes) Len() int { return len(m.tsNs) }

type mergedTrades struct {
	instrumentIdx []int32
	price         []string
	size          []string
	matchId       []string
	aggressor     []string
	tsNs          []int64
}

func (m mergedTrades) Len() int { return len(m.tsNs) }

type quoteRow struct {
	instrumentIdx int32
	bid, ask      string
	bidSize       string
	askSize       string
	tsNs          int64
}

type tradeRow struct {
	instrumentIdx int32
	price, size   string
	matchId       string
	aggressor     string
	tsNs          int64
}

// buildMergedQuotes concatenates every instrument's quote columns and
// sorts the result ascending by timestamp. Returns ErrContainerMalformed
// if any instrument's columns are unequal length or not sorted
// ascending by timestamp.
func buildMergedQuotes(c *data.Container) (mergedQuotes, error) {
	var rows []quoteRow
	for _, id := range c.Instruments() {
		qc, ok := c.QuoteColumns(id)
		if !ok {
			continue
		}
		n := qc.Len()
		if n < 0 {
			return mergedQuotes{}, fmt.Errorf("producer: quote columns for %s have mismatched lengths: %w", id, ErrContainerMalformed)
		}
		if !tsAscending(qc.TsNs) {
			return mergedQuotes{}, fmt.Errorf("producer: quote columns for %s are not sorted ascending: %w", id, ErrContainerMalformed)
		}
		idx, _ := c.InstrumentIndex(id)
		for i := 0; i < n; i++ {
			rows = append(rows, quoteRow{
				instrumentIdx: int32(idx),
				bid:           qc.Bid[i],
				ask:           qc.Ask[i],
				bidSize:       qc.BidSize[i],
				askSize:       qc.AskSize[i],
				tsNs:          qc.TsNs[i],
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].tsNs < rows[j].tsNs })

	out := mergedQuotes{
		instrumentIdx: make([]int32, len(rows)),
		bid:           make([]string, len(rows)),
		ask:           make([]string, len(rows)),
		bidSize:       make([]string, len(rows)),
		askSize:       make([]string, len(rows)),
		tsNs:          make([]int64, len(rows)),
	}
	for i, r := range rows {
		out.instrumentIdx[i] = r.instrumentIdx
		out.bid[i] = r.bid
		out.ask[i] = r.ask
		out.bidSize[i] = r.bidSize
		out.askSize[i] = r.askSize
		out.tsNs[i] = r.tsNs
	}
	return out, nil
}

// buildMergedTrades is the trade-side analog of buildMergedQuotes.
func buildMergedTrades(c *data.Container) (mergedTrades, error) {
	var rows []tradeRow
	for _, id := range c.Instruments() {
		tc, ok := c.TradeColumns(id)
		if !ok {
			continue
		}
		n := tc.Len()
		if n < 0 {
			return mergedTrades{}, fmt.Errorf("producer: trade columns for %s have mismatched lengths: %w", id, ErrContainerMalformed)
		}
		if !tsAscending(tc.TsNs) {
			return mergedTrades{}, fmt.Errorf("producer: trade columns for %s are not sorted ascending: %w", id, ErrContainerMalformed)
		}
		idx, _ := c.InstrumentIndex(id)
		for i := 0; i < n; i++ {
			rows = append(rows, tradeRow{
				instrumentIdx: int32(idx),
				price:         tc.Price[i],
				size:          tc.Size[i],
				matchId:       tc.MatchId[i],
				aggressor:     tc.AggressorSide[i],
				tsNs:          tc.TsNs[i],
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].tsNs < rows[j].tsNs })

	out := mergedTrades{
		instrumentIdx: make([]int32, len(rows)),
		price:         make([]string, len(rows)),
		size:          make([]string, len(rows)),
		matchId:       make([]string, len(rows)),
		aggressor:     make([]string, len(rows)),
		tsNs:          make([]int64, len(rows)),
	}
	for i, r := range rows {
		out.instrumentIdx[i] = r.instrumentIdx
		out.price[i] = r.price
		out.size[i] = r.size
		out.matchId[i] = r.matchId
		out.aggressor[i] = r.aggressor
		out.tsNs[i] = r.tsNs
	}
	return out, nil
}

func tsAscending(ts []int64) bool {
	for i := 1; i < len(ts); i++ {
		if ts[i] < ts[i-1] {
			return false
		}
	}
	return true
}

// boundsFor returns the half-open index range [start, end) of ts
// values within [fromNs, toNs] inclusive, via binary search.
func boundsFor(ts []int64, fromNs, toNs int64) (int, int) {
	start := sort.Search(len(ts), func(i int) bool { return ts[i] >= fromNs })
	end := sort.Search(len(ts), func(i int) bool { return ts[i] > toNs })
	return start, end
}

// materializeQuote parses a merged-quote row into a QuoteTick.
func materializeQuote(m mergedQuotes, i int, instruments []domain.InstrumentId) (domain.QuoteTick, error) {
	bid, err := domain.NewDecimalFromString(m.bid[i])
	if err != nil {
		return domain.QuoteTick{}, err
	}
	ask, err := domain.NewDecimalFromString(m.ask[i])
	if err != nil {
		return domain.QuoteTick{}, err
	}
	bidSize, err := domain.NewDecimalFromString(m.bidSize[i])
	if err != nil {
		return domain.QuoteTick{}, err
	}
	askSize, err := domain.NewDecimalFromString(m.askSize[i])
	if err != nil {
		return domain.QuoteTick{}, err
	}
	return domain.QuoteTick{
		InstrumentId: instruments[m.instrumentIdx[i]],
		BidPrice:     domain.NewPrice(bid),
		AskPrice:     domain.NewPrice(ask),
		BidSize:      domain.NewQuantity(bidSize),
		AskSize:      domain.NewQuantity(askSize),
		TsNanos:      m.tsNs[i],
	}, nil
}

// materializeTrade parses a merged-trade row into a TradeTick.
func materializeTrade(m mergedTrades, i int, instruments []domain.InstrumentId) (domain.TradeTick, error) {
	price, err := domain.NewDecimalFromString(m.price[i])
	if err != nil {
		return domain.TradeTick{}, err
	}
	size, err := domain.NewDecimalFromString(m.size[i])
	if err != nil {
		return domain.TradeTick{}, err
	}
	return domain.TradeTick{
		InstrumentId:  instruments[m.instrumentIdx[i]],
		Price:         domain.NewPrice(price),
		Size:          domain.NewQuantity(size),
		MatchId:       m.matchId[i],
		AggressorSide: domain.ParseAggressorSide(m.aggressor[i]),
		TsNanos:       m.tsNs[i],
	}, nil
}
