package domain

// OrderFilled is the event consumed by the position engine.
// execution_ns is assumed monotonically non-decreasing across fills
// applied to a single position; this is a caller-side precondition,
// not enforced here.
type OrderFilled struct {
	ClientOrderId ClientOrderId
	OrderId       OrderId
	ExecutionId   ExecutionId
	PositionId    PositionId
	StrategyId    StrategyId
	AccountId     AccountId
	InstrumentId  InstrumentId
	OrderSide     OrderSide
	FillPrice     Price
	FillQty       Quantity
	Currency      Currency // quote currency
	IsInverse     bool
	Commission    Money
	ExecutionNs   int64
}
