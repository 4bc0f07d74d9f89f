package producer

import (
	"errors"
	"testing"

	"github.com/quantlab/backtestcore/internal/data"
	"github.com/quantlab/backtestcore/internal/domain"
)

func oneInstrumentContainer(quoteTs, tradeTs []int64) *data.Container {
	id := domain.InstrumentId{Symbol: "EURUSD", Venue: "SIM"}
	quotes := map[domain.InstrumentId]data.QuoteColumns{}
	trades := map[domain.InstrumentId]data.TradeColumns{}

	if len(quoteTs) > 0 {
		qc := data.QuoteColumns{TsNs: quoteTs}
		for range quoteTs {
			qc.Bid = append(qc.Bid, "1.0")
			qc.Ask = append(qc.Ask, "1.1")
			qc.BidSize = append(qc.BidSize, "100")
			qc.AskSize = append(qc.AskSize, "100")
		}
		quotes[id] = qc
	}
	if len(tradeTs) > 0 {
		tc := data.TradeColumns{TsNs: tradeTs}
		for range tradeTs {
			tc.Price = append(tc.Price, "1.05")
			tc.Size = append(tc.Size, "10")
			tc.MatchId = append(tc.MatchId, "m1")
			tc.AggressorSide = append(tc.AggressorSide, "BUYER")
		}
		trades[id] = tc
	}
	return data.NewContainer(quotes, trades, nil)
}

// Scenario 5: tie-break, quote before trade at equal ts_ns.
func TestProducer_TieBreakQuoteBeforeTrade(t *testing.T) {
	c := oneInstrumentContainer([]int64{1000}, []int64{1000})
	p := New(c, nil)
	if err := p.Setup(1000, 1000); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	first, ok := p.Next()
	if !ok {
		t.Fatal("expected first tick")
	}
	if _, isQuote := first.(domain.QuoteTick); !isQuote {
		t.Fatalf("first tick = %T, want QuoteTick", first)
	}

	second, ok := p.Next()
	if !ok {
		t.Fatal("expected second tick")
	}
	if _, isTrade := second.(domain.TradeTick); !isTrade {
		t.Fatalf("second tick = %T, want TradeTick", second)
	}

	_, ok = p.Next()
	if ok {
		t.Fatal("expected exhaustion after two ticks")
	}
	if p.HasData() {
		t.Error("HasData() should be false once exhausted")
	}
}

func TestProducer_MergeOrdersAcrossInstruments(t *testing.T) {
	a := domain.InstrumentId{Symbol: "A", Venue: "SIM"}
	b := domain.InstrumentId{Symbol: "B", Venue: "SIM"}
	quotes := map[domain.InstrumentId]data.QuoteColumns{
		a: {TsNs: []int64{100, 300}, Bid: []string{"1", "1"}, Ask: []string{"2", "2"}, BidSize: []string{"1", "1"}, AskSize: []string{"1", "1"}},
		b: {TsNs: []int64{200}, Bid: []string{"1"}, Ask: []string{"2"}, BidSize: []string{"1"}, AskSize: []string{"1"}},
	}
	c := data.NewContainer(quotes, nil, nil)
	p := New(c, nil)
	if err := p.Setup(c.MinTsNs(), c.MaxTsNs()); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	var order []int64
	for {
		tick, ok := p.Next()
		if !ok {
			break
		}
		order = append(order, tick.TsNs())
	}
	want := []int64{100, 200, 300}
	if len(order) != len(want) {
		t.Fatalf("got %d ticks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %d, want %d", i, order[i], want[i])
		}
	}
}

func TestProducer_WindowBounds(t *testing.T) {
	c := oneInstrumentContainer([]int64{100, 200, 300, 400}, nil)
	p := New(c, nil)
	if err := p.Setup(200, 300); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	var got []int64
	for {
		tick, ok := p.Next()
		if !ok {
			break
		}
		got = append(got, tick.TsNs())
	}
	if len(got) != 2 || got[0] != 200 || got[1] != 300 {
		t.Fatalf("window [200,300] ticks = %v, want [200 300]", got)
	}
}

func TestProducer_SetupWindowInvalid(t *testing.T) {
	c := oneInstrumentContainer([]int64{100, 200}, nil)
	p := New(c, nil)

	if err := p.Setup(200, 100); !errors.Is(err, ErrWindowInvalid) {
		t.Errorf("reversed window: got %v, want ErrWindowInvalid", err)
	}
	if err := p.Setup(0, 200); !errors.Is(err, ErrWindowInvalid) {
		t.Errorf("start below container min: got %v, want ErrWindowInvalid", err)
	}
	if err := p.Setup(100, 9999); !errors.Is(err, ErrWindowInvalid) {
		t.Errorf("stop above container max: got %v, want ErrWindowInvalid", err)
	}
}

func TestProducer_SetupContainerMalformedUnsorted(t *testing.T) {
	c := oneInstrumentContainer([]int64{200, 100}, nil)
	p := New(c, nil)

	if err := p.Setup(100, 200); !errors.Is(err, ErrContainerMalformed) {
		t.Errorf("unsorted quote column: got %v, want ErrContainerMalformed", err)
	}
}

func TestProducer_ResetReplaysSameWindow(t *testing.T) {
	c := oneInstrumentContainer([]int64{100, 200, 300}, nil)
	p := New(c, nil)
	if err := p.Setup(100, 300); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	var first []int64
	for {
		tick, ok := p.Next()
		if !ok {
			break
		}
		first = append(first, tick.TsNs())
	}

	p.Reset()
	var second []int64
	for {
		tick, ok := p.Next()
		if !ok {
			break
		}
		second = append(second, tick.TsNs())
	}

	if len(first) != len(second) {
		t.Fatalf("replay lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("replay[%d] = %d, want %d", i, second[i], first[i])
		}
	}
}

func TestProducer_ClearDropsData(t *testing.T) {
	c := oneInstrumentContainer([]int64{100}, nil)
	p := New(c, nil)
	if err := p.Setup(100, 100); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	p.Clear()
	if p.HasData() {
		t.Error("HasData() should be false after Clear")
	}
	if _, ok := p.Next(); ok {
		t.Error("Next() should report exhausted after Clear")
	}
}
