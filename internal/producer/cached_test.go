package producer

import (
	"testing"

	"github.com/quantlab/backtestcore/internal/data"
	"github.com/quantlab/backtestcore/internal/domain"
)

// Scenario 6: cached replay idempotence.
func TestCachedProducer_ReplayIdempotence(t *testing.T) {
	c := oneInstrumentContainer([]int64{100, 200, 300, 400, 500}, []int64{150, 350})
	cp := NewCachedProducer(c, nil)

	drain := func() []int64 {
		var out []int64
		for {
			tick, ok := cp.Next()
			if !ok {
				break
			}
			out = append(out, tick.TsNs())
		}
		return out
	}

	if err := cp.Setup(100, 400); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	l1 := drain()

	cp.Reset()
	l2 := drain()

	if err := cp.Setup(100, 400); err != nil {
		t.Fatalf("Setup (again): %v", err)
	}
	l3 := drain()

	if len(l1) == 0 {
		t.Fatal("expected at least one tick in the window")
	}
	if !equalInt64(l1, l2) {
		t.Fatalf("L1 != L2: %v vs %v", l1, l2)
	}
	if !equalInt64(l1, l3) {
		t.Fatalf("L1 != L3: %v vs %v", l1, l3)
	}
}

func equalInt64(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCachedProducer_DrainsOnceAcrossSetupCalls(t *testing.T) {
	c := oneInstrumentContainer([]int64{100, 200, 300}, nil)
	cp := NewCachedProducer(c, nil)

	if err := cp.Setup(100, 300); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	for {
		if _, ok := cp.Next(); !ok {
			break
		}
	}
	firstDrainSize := len(cp.dataCache)

	if err := cp.Setup(100, 200); err != nil {
		t.Fatalf("second Setup: %v", err)
	}
	if len(cp.dataCache) != firstDrainSize {
		t.Errorf("cache was rebuilt on second Setup: had %d entries, now %d", firstDrainSize, len(cp.dataCache))
	}

	var got []int64
	for {
		tick, ok := cp.Next()
		if !ok {
			break
		}
		got = append(got, tick.TsNs())
	}
	if len(got) != 2 || got[0] != 100 || got[1] != 200 {
		t.Fatalf("narrowed window ticks = %v, want [100 200]", got)
	}
}

func TestCachedProducer_WindowInvalid(t *testing.T) {
	c := oneInstrumentContainer([]int64{100, 200}, nil)
	cp := NewCachedProducer(c, nil)

	if err := cp.Setup(200, 100); err == nil {
		t.Error("expected error for reversed window")
	}
}

func TestCachedProducer_HasDataFalseAfterDrainingSingleTick(t *testing.T) {
	id := domain.InstrumentId{Symbol: "X", Venue: "SIM"}
	quotes := map[domain.InstrumentId]data.QuoteColumns{
		id: {TsNs: []int64{1}, Bid: []string{"1"}, Ask: []string{"1"}, BidSize: []string{"1"}, AskSize: []string{"1"}},
	}
	c := data.NewContainer(quotes, nil, nil)
	cp := NewCachedProducer(c, nil)

	if err := cp.Setup(1, 1); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !cp.HasData() {
		t.Error("expected HasData true for the single tick")
	}
	if _, ok := cp.Next(); !ok {
		t.Fatal("expected one tick")
	}
	if cp.HasData() {
		t.Error("expected HasData false after draining the only tick")
	}
}
