package domain

// AggressorSide identifies which side of a trade crossed the spread.
type AggressorSide uint8

const (
	AggressorSideNoAggressor AggressorSide = iota
	AggressorSideBuyer
	AggressorSideSeller
)

func (a AggressorSide) String() string {
	switch a {
	case AggressorSideBuyer:
		return "BUYER"
	case AggressorSideSeller:
		return "SELLER"
	default:
		return "NO_AGGRESSOR"
	}
}

// ParseAggressorSide parses the canonical string form of AggressorSide.
func ParseAggressorSide(s string) AggressorSide {
	switch s {
	case "BUYER":
		return AggressorSideBuyer
	case "SELLER":
		return AggressorSideSeller
	default:
		return AggressorSideNoAggressor
	}
}

// Tick is the common supertype of market observations.
type Tick interface {
	Instrument() InstrumentId
	TsNs() int64
}

// QuoteTick is a top-of-book bid/ask pair with sizes.
type QuoteTick struct {
	InstrumentId InstrumentId
	BidPrice     Price
	AskPrice     Price
	BidSize      Quantity
	AskSize      Quantity
	TsNanos      int64
}

func (q QuoteTick) Instrument() InstrumentId { return q.InstrumentId }
func (q QuoteTick) TsNs() int64              { return q.TsNanos }

// TradeTick is a last-traded price and size with aggressor side.
type TradeTick struct {
	InstrumentId  InstrumentId
	Price         Price
	Size          Quantity
	MatchId       string
	AggressorSide AggressorSide
	TsNanos       int64
}

func (t TradeTick) Instrument() InstrumentId { return t.InstrumentId }
func (t TradeTick) TsNs() int64              { return t.TsNanos }
