package domain

import (
	"fmt"
	"log/slog"
	"sort"
)

// Position evolves a directional exposure in one instrument as
// OrderFilled events are folded into it. A Position
// is not safe for concurrent mutation; distinct instances share no
// mutable state.
type Position struct {
	PositionId   PositionId
	AccountId    AccountId
	StrategyId   StrategyId
	InstrumentId InstrumentId
	FromOrder    OrderId

	EntrySide   OrderSide
	Side        PositionSide
	RelativeQty Decimal
	Quantity    Quantity
	PeakQty     Quantity

	AvgPxOpen  *Decimal
	AvgPxClose *Decimal

	OpenedTsNs     int64
	ClosedTsNs     int64
	OpenDurationNs int64

	QuoteCurrency         Currency
	IsInverse             bool
	RealizedPoints        Decimal
	RealizedReturn        Decimal
	RealizedPnl           Money
	Commission            Money
	CommissionsByCurrency map[string]Money

	buyQty  Decimal
	sellQty Decimal

	events     []OrderFilled
	executions map[ExecutionId]struct{}

	logger *slog.Logger
}

// NewPosition constructs an open position from its first OrderFilled.
// Fails with ErrNullIdentifier if position_id or strategy_id is the
// null sentinel.
func NewPosition(event OrderFilled, logger *slog.Logger) (*Position, error) {
	if !event.PositionId.NotNull() || !event.StrategyId.NotNull() {
		return nil, fmt.Errorf("domain: new position: %w", ErrNullIdentifier)
	}
	_, err := SideFromOrderSide(event.OrderSide)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Position{
		PositionId:            event.PositionId,
		AccountId:             event.AccountId,
		StrategyId:            event.StrategyId,
		InstrumentId:          event.InstrumentId,
		FromOrder:             event.OrderId,
		EntrySide:             event.OrderSide,
		Side:                  PositionSideFlat,
		RelativeQty:           ZeroDecimal(),
		Quantity:              NewQuantity(ZeroDecimal()),
		PeakQty:               NewQuantity(ZeroDecimal()),
		OpenedTsNs:            event.ExecutionNs,
		QuoteCurrency:         event.Currency,
		IsInverse:             event.IsInverse,
		RealizedPoints:        ZeroDecimal(),
		RealizedReturn:        ZeroDecimal(),
		RealizedPnl:           ZeroMoney(event.Currency),
		Commission:            ZeroMoney(event.Currency),
		CommissionsByCurrency: make(map[string]Money),
		buyQty:                ZeroDecimal(),
		sellQty:               ZeroDecimal(),
		executions:            make(map[ExecutionId]struct{}),
		logger:                logger,
	}

	if err := p.Apply(event); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply folds a new fill into the position. Fails with
// ErrDuplicateExecution if event.ExecutionId has already been applied,
// or ErrInvalidOrderSide if the order side is UNDEFINED; apply is
// all-or-nothing, both checks run before any mutation.
func (p *Position) Apply(event OrderFilled) error {
	if _, seen := p.executions[event.ExecutionId]; seen {
		return fmt.Errorf("domain: apply %s: %w", event.ExecutionId, ErrDuplicateExecution)
	}
	if event.OrderSide != OrderSideBuy && event.OrderSide != OrderSideSell {
		return fmt.Errorf("domain: apply: %w", ErrInvalidOrderSide)
	}

	p.events = append(p.events, event)
	p.executions[event.ExecutionId] = struct{}{}

	p.applyCommission(event)

	preQty := p.RelativeQty
	deltaPnl := p.openingCommissionPnl(event)

	switch event.OrderSide {
	case OrderSideBuy:
		if preQty.Sign() >= 0 {
			p.updateAvgPxOpen(preQty, event.FillPrice.Decimal, event.FillQty.Decimal)
		} else {
			priorCloseQty := p.buyQty
			p.updateAvgPxClose(priorCloseQty, event.FillPrice.Decimal, event.FillQty.Decimal)
			p.recomputeRealized(PositionSideShort)
			deltaPnl, _ = deltaPnl.Add(p.calculatePnl(PositionSideShort, event.FillPrice.Decimal, event.FillQty.Decimal))
		}
		p.buyQty = p.buyQty.Add(event.FillQty.Decimal)
		p.RelativeQty = p.RelativeQty.Add(event.FillQty.Decimal)

	case OrderSideSell:
		if preQty.Sign() <= 0 {
			p.updateAvgPxOpen(preQty, event.FillPrice.Decimal, event.FillQty.Decimal)
		} else {
			priorCloseQty := p.sellQty
			p.updateAvgPxClose(priorCloseQty, event.FillPrice.Decimal, event.FillQty.Decimal)
			p.recomputeRealized(PositionSideLong)
			deltaPnl, _ = deltaPnl.Add(p.calculatePnl(PositionSideLong, event.FillPrice.Decimal, event.FillQty.Decimal))
		}
		p.sellQty = p.sellQty.Add(event.FillQty.Decimal)
		p.RelativeQty = p.RelativeQty.Sub(event.FillQty.Decimal)

	default:
		return fmt.Errorf("domain: apply: %w", ErrInvalidOrderSide)
	}

	p.RealizedPnl, _ = p.RealizedPnl.Add(deltaPnl)

	absQty := p.RelativeQty
	if absQty.Sign() < 0 {
		absQty = absQty.Neg()
	}
	p.Quantity = NewQuantity(absQty)
	if p.Quantity.GreaterThan(p.PeakQty.Decimal) {
		p.PeakQty = p.Quantity
	}

	switch {
	case p.RelativeQty.Sign() > 0:
		p.Side = PositionSideLong
	case p.RelativeQty.Sign() < 0:
		p.Side = PositionSideShort
	default:
		p.Side = PositionSideFlat
		p.ClosedTsNs = event.ExecutionNs
		p.OpenDurationNs = p.ClosedTsNs - p.OpenedTsNs
	}

	p.logger.Debug("position applied fill",
		slog.String("position_id", string(p.PositionId)),
		slog.String("execution_id", string(event.ExecutionId)),
		slog.String("side", p.Side.String()),
		slog.String("quantity", p.Quantity.String()),
	)
	return nil
}

// applyCommission accumulates the fill's commission per-currency and
// mirrors it into the quote-currency running total.
func (p *Position) applyCommission(event OrderFilled) {
	code := event.Commission.Currency.Code
	cur, ok := p.CommissionsByCurrency[code]
	if !ok {
		cur = ZeroMoney(event.Commission.Currency)
	}
	updated, err := cur.Add(event.Commission)
	if err != nil {
		// Same currency by construction (cur was seeded from the same
		// currency code), so this cannot occur in practice.
		updated = event.Commission
	}
	p.CommissionsByCurrency[code] = updated

	if event.Commission.Currency.Equal(p.QuoteCurrency) {
		p.Commission, _ = p.Commission.Add(event.Commission)
	}
}

// openingCommissionPnl returns the commission leg of delta_pnl. The
// commission is always a realized cost, whether the fill opens or
// closes the position.
func (p *Position) openingCommissionPnl(event OrderFilled) Money {
	if event.Commission.Currency.Equal(p.QuoteCurrency) {
		return event.Commission.Neg()
	}
	return ZeroMoney(p.QuoteCurrency)
}

// updateAvgPxOpen applies the weighted-average rule for fills that
// open or add to the current side.
func (p *Position) updateAvgPxOpen(preQty, fillPrice, fillQty Decimal) {
	if p.AvgPxOpen == nil {
		v := fillPrice
		p.AvgPxOpen = &v
		return
	}
	preAbs := preQty
	if preAbs.Sign() < 0 {
		preAbs = preAbs.Neg()
	}
	numerator := p.AvgPxOpen.Mul(preAbs).Add(fillPrice.Mul(fillQty))
	denominator := preAbs.Add(fillQty)
	v := numerator.Div(denominator)
	p.AvgPxOpen = &v
}

// updateAvgPxClose applies the weighted-average rule for fills that
// reduce the current side.
func (p *Position) updateAvgPxClose(priorCloseQty, fillPrice, fillQty Decimal) {
	if p.AvgPxClose == nil {
		v := fillPrice
		p.AvgPxClose = &v
		return
	}
	numerator := p.AvgPxClose.Mul(priorCloseQty).Add(fillPrice.Mul(fillQty))
	denominator := priorCloseQty.Add(fillQty)
	v := numerator.Div(denominator)
	p.AvgPxClose = &v
}

// recomputeRealized recomputes realized_points and realized_return
// from avg_px_open vs the just-updated avg_px_close.
func (p *Position) recomputeRealized(closingSide PositionSide) {
	points := pointsFor(closingSide, *p.AvgPxOpen, *p.AvgPxClose)
	p.RealizedPoints = points
	p.RealizedReturn = points.Div(*p.AvgPxOpen)
}

// calculatePnl is the per-fill realized P&L contribution of a closing
// fill at fillPrice against avg_px_open. Inverse P&L uses return*qty,
// not the (unused) points-inverse routine, see PointsInverse.
func (p *Position) calculatePnl(closingSide PositionSide, fillPrice, fillQty Decimal) Money {
	points := pointsFor(closingSide, *p.AvgPxOpen, fillPrice)
	if p.IsInverse {
		ret := points.Div(*p.AvgPxOpen)
		return NewMoney(ret.Mul(fillQty), p.QuoteCurrency)
	}
	return NewMoney(points.Mul(fillQty), p.QuoteCurrency)
}

// pointsFor is the non-inverse points formula shared by realized and
// unrealized P&L.
func pointsFor(side PositionSide, open, other Decimal) Decimal {
	switch side {
	case PositionSideLong:
		return other.Sub(open)
	case PositionSideShort:
		return open.Sub(other)
	default:
		return ZeroDecimal()
	}
}

// PointsInverse is the inverse-instrument points formula. It is kept
// available for callers but is never invoked from calculatePnl;
// inverse realized/unrealized P&L uses return*qty instead.
func PointsInverse(side PositionSide, open, close Decimal) Decimal {
	switch side {
	case PositionSideLong:
		return open.Reciprocal().Sub(close.Reciprocal())
	case PositionSideShort:
		return close.Reciprocal().Sub(open.Reciprocal())
	default:
		return ZeroDecimal()
	}
}

// NotionalValue returns quantity if the instrument is inverse, else
// quantity*last_price, tagged with the quote currency.
func (p *Position) NotionalValue(lastPrice Price) Money {
	if p.IsInverse {
		return NewMoney(p.Quantity.Decimal, p.QuoteCurrency)
	}
	return NewMoney(p.Quantity.Mul(lastPrice.Decimal), p.QuoteCurrency)
}

// UnrealizedPnl computes mark-to-market P&L against last_price using
// avg_px_open and the current quantity; zero when FLAT.
func (p *Position) UnrealizedPnl(lastPrice Price) Money {
	if p.Side == PositionSideFlat || p.AvgPxOpen == nil {
		return ZeroMoney(p.QuoteCurrency)
	}
	points := pointsFor(p.Side, *p.AvgPxOpen, lastPrice.Decimal)
	if p.IsInverse {
		ret := points.Div(*p.AvgPxOpen)
		return NewMoney(ret.Mul(p.Quantity.Decimal), p.QuoteCurrency)
	}
	return NewMoney(points.Mul(p.Quantity.Decimal), p.QuoteCurrency)
}

// TotalPnl is realized_pnl + unrealized_pnl(last_price).
func (p *Position) TotalPnl(lastPrice Price) Money {
	total, err := p.RealizedPnl.Add(p.UnrealizedPnl(lastPrice))
	if err != nil {
		// Both operands are always tagged with QuoteCurrency.
		return p.RealizedPnl
	}
	return total
}

// Commissions returns a snapshot of per-currency cumulative
// commissions, ordered by currency code for determinism.
func (p *Position) Commissions() []Money {
	out := make([]Money, 0, len(p.CommissionsByCurrency))
	codes := make([]string, 0, len(p.CommissionsByCurrency))
	for code := range p.CommissionsByCurrency {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		out = append(out, p.CommissionsByCurrency[code])
	}
	return out
}

// IsOpen reports whether the position carries non-zero exposure.
func (p *Position) IsOpen() bool { return p.Side != PositionSideFlat }

// IsClosed reports whether the position is flat.
func (p *Position) IsClosed() bool { return p.Side == PositionSideFlat }

// IsLong reports whether the position is net long.
func (p *Position) IsLong() bool { return p.Side == PositionSideLong }

// IsShort reports whether the position is net short.
func (p *Position) IsShort() bool { return p.Side == PositionSideShort }

// EventCount returns the number of fills applied so far.
func (p *Position) EventCount() int { return len(p.events) }

// Events returns a defensive copy of the applied fill history, in
// application order.
func (p *Position) Events() []OrderFilled {
	out := make([]OrderFilled, len(p.events))
	copy(out, p.events)
	return out
}

// ClientOrderIds returns the deduplicated client order ids referenced
// by applied fills, in first-seen order.
func (p *Position) ClientOrderIds() []ClientOrderId {
	seen := make(map[ClientOrderId]struct{}, len(p.events))
	out := make([]ClientOrderId, 0, len(p.events))
	for _, e := range p.events {
		if _, ok := seen[e.ClientOrderId]; ok {
			continue
		}
		seen[e.ClientOrderId] = struct{}{}
		out = append(out, e.ClientOrderId)
	}
	return out
}

// OrderIds returns the deduplicated order ids referenced by applied
// fills, in first-seen order.
func (p *Position) OrderIds() []OrderId {
	seen := make(map[OrderId]struct{}, len(p.events))
	out := make([]OrderId, 0, len(p.events))
	for _, e := range p.events {
		if _, ok := seen[e.OrderId]; ok {
			continue
		}
		seen[e.OrderId] = struct{}{}
		out = append(out, e.OrderId)
	}
	return out
}

// ExecutionIds returns the execution ids of applied fills in fill
// order (each appears at most once).
func (p *Position) ExecutionIds() []ExecutionId {
	out := make([]ExecutionId, len(p.events))
	for i, e := range p.events {
		out[i] = e.ExecutionId
	}
	return out
}

// String renders the position's human-readable status line.
func (p *Position) String() string {
	qtyPart := " "
	if p.Quantity.GreaterThan(ZeroDecimal()) {
		qtyPart = p.Quantity.String()
	}
	return fmt.Sprintf("%s %s%s", p.Side, qtyPart, p.InstrumentId)
}
