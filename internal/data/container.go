// Package data holds the read-only columnar provider the producer
// core merges into a single time-ordered tick stream.
package data

import (
	"sort"

	"github.com/quantlab/backtestcore/internal/domain"
)

// QuoteColumns is one instrument's quote-tick columns, co-indexed and
// sorted by TsNs ascending. Values are stored as compact
// strings and parsed into decimals only when a tick is materialized.
type QuoteColumns struct {
	Bid     []string
	Ask     []string
	BidSize []string
	AskSize []string
	TsNs    []int64
}

// Len returns the column length, or -1 if the columns are not equal
// length (the container does not validate this itself, the producer
// validates at setup time).
func (q QuoteColumns) Len() int {
	n := len(q.TsNs)
	if len(q.Bid) != n || len(q.Ask) != n || len(q.BidSize) != n || len(q.AskSize) != n {
		return -1
	}
	return n
}

// TradeColumns is one instrument's trade-tick columns, co-indexed and
// sorted by TsNs ascending.
type TradeColumns struct {
	Price         []string
	Size          []string
	MatchId       []string
	AggressorSide []string
	TsNs          []int64
}

// Len returns the column length, or -1 if the columns are not equal
// length.
func (t TradeColumns) Len() int {
	n := len(t.TsNs)
	if len(t.Price) != n || len(t.Size) != n || len(t.MatchId) != n || len(t.AggressorSide) != n {
		return -1
	}
	return n
}

// Container is the read-only, fully in-memory provider of
// per-instrument columnar quote/trade ticks. It is
// immutable once built; the producer never mutates it.
type Container struct {
	instruments          []domain.InstrumentId
	index                map[domain.InstrumentId]int
	quotes               map[domain.InstrumentId]QuoteColumns
	trades               map[domain.InstrumentId]TradeColumns
	minTsNs              int64
	maxTsNs              int64
	executionResolutions []string
}

// NewContainer builds a Container from per-instrument quote and trade
// column groups. Instruments are assigned dense indices with quote
// instruments first, sorted by id string, then any trade-only
// instruments, sorted the same way. Shape and sort-order validation is deferred
// to the producer's setup.
func NewContainer(
	quotes map[domain.InstrumentId]QuoteColumns,
	trades map[domain.InstrumentId]TradeColumns,
	executionResolutions []string,
) *Container {
	c := &Container{
		index:                make(map[domain.InstrumentId]int),
		quotes:               quotes,
		trades:               trades,
		executionResolutions: executionResolutions,
	}

	seen := make(map[domain.InstrumentId]struct{})
	addInstrument := func(id domain.InstrumentId) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		c.index[id] = len(c.instruments)
		c.instruments = append(c.instruments, id)
	}

	// Deterministic ordering: sort instrument ids before indexing so
	// the dense index assignment does not depend on Go's randomized
	// map iteration order.
	quoteIds := instrumentKeys(quotes)
	tradeIds := instrumentKeys(trades)
	for _, id := range quoteIds {
		addInstrument(id)
	}
	for _, id := range tradeIds {
		addInstrument(id)
	}

	first := true
	for _, qc := range quotes {
		for _, ts := range qc.TsNs {
			if first || ts < c.minTsNs {
				c.minTsNs = ts
			}
			if first || ts > c.maxTsNs {
				c.maxTsNs = ts
			}
			first = false
		}
	}
	for _, tc := range trades {
		for _, ts := range tc.TsNs {
			if first || ts < c.minTsNs {
				c.minTsNs = ts
			}
			if first || ts > c.maxTsNs {
				c.maxTsNs = ts
			}
			first = false
		}
	}

	return c
}

func instrumentKeys[T any](m map[domain.InstrumentId]T) []domain.InstrumentId {
	out := make([]domain.InstrumentId, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Instruments returns the container's instrument catalog in dense
// index order.
func (c *Container) Instruments() []domain.InstrumentId {
	out := make([]domain.InstrumentId, len(c.instruments))
	copy(out, c.instruments)
	return out
}

// InstrumentIndex returns the dense small integer index assigned to
// an instrument, and whether it is known to this container.
func (c *Container) InstrumentIndex(id domain.InstrumentId) (int, bool) {
	idx, ok := c.index[id]
	return idx, ok
}

// QuoteColumns returns an instrument's quote column group.
func (c *Container) QuoteColumns(id domain.InstrumentId) (QuoteColumns, bool) {
	qc, ok := c.quotes[id]
	return qc, ok
}

// TradeColumns returns an instrument's trade column group.
func (c *Container) TradeColumns(id domain.InstrumentId) (TradeColumns, bool) {
	tc, ok := c.trades[id]
	return tc, ok
}

// MinTsNs returns the earliest timestamp across all quote and trade
// columns.
func (c *Container) MinTsNs() int64 { return c.minTsNs }

// MaxTsNs returns the latest timestamp across all quote and trade
// columns.
func (c *Container) MaxTsNs() int64 { return c.maxTsNs }

// ExecutionResolutions returns the descriptive list of resolutions per
// instrument.
func (c *Container) ExecutionResolutions() []string {
	out := make([]string, len(c.executionResolutions))
	copy(out, c.executionResolutions)
	return out
}
