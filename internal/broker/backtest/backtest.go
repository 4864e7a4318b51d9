// FILE: backtest.go
// Package backtest – the simulated fill variant of the Broker Engine:
// randomized-spread market fills, limit/stop-limit fill-probability
// simulation, stop triggering, and the pending/settled register discipline,
// all in memory with no external calls.
package backtest

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/broker"
	"github.com/chidi150c/autotrader/internal/clock"
	"github.com/chidi150c/autotrader/internal/order"
	"github.com/chidi150c/autotrader/internal/position"
	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

// SpreadConfig bounds the randomized half-spread applied to market fills.
type SpreadConfig struct {
	HalfSpreadFloor   decimal.Decimal
	HalfSpreadCeiling decimal.Decimal
}

// DefaultSpreadConfig returns half-spread bounds equivalent to a
// 0.0022-0.0062 full spread.
func DefaultSpreadConfig() SpreadConfig {
	return SpreadConfig{
		HalfSpreadFloor:   decimal.NewFromFloat(0.0011),
		HalfSpreadCeiling: decimal.NewFromFloat(0.0031),
	}
}

// FillPossibility holds the probabilistic fill rates for boundary-price
// limit and stop-limit orders.
type FillPossibility struct {
	Limit     float64 // default 0.85
	StopLimit float64 // default 0.95
}

// DefaultFillPossibility returns the default boundary-price fill rates.
func DefaultFillPossibility() FillPossibility {
	return FillPossibility{Limit: 0.85, StopLimit: 0.95}
}

// Broker is the backtest (back) variant of the Broker Engine.
type Broker struct {
	symbol   string
	currency string
	tickerID string

	pos  *position.Position
	regs *broker.Registers

	commission broker.Commission
	spread     SpreadConfig
	fillProb   FillPossibility

	clock *clock.Backtest
	rnd   *clock.RandSource
}

// New returns a Broker with the given commission, spread and fill-probability configuration.
func New(c *clock.Backtest, r *clock.RandSource, commission broker.Commission, spread SpreadConfig, fillProb FillPossibility) *Broker {
	return &Broker{
		regs:       broker.NewRegisters(),
		commission: commission,
		spread:     spread,
		fillProb:   fillProb,
		clock:      c,
		rnd:        r,
	}
}

// Initialize resolves ticker_id as identity (back variant) and builds an empty Position.
func (b *Broker) Initialize(_ context.Context, symbol, currency string) error {
	b.symbol = symbol
	b.currency = currency
	b.tickerID = symbol
	b.pos = position.New(symbol, symbol, currency)
	return nil
}

func (b *Broker) checkSymbol(sym string) error {
	if sym != "" && sym != b.symbol {
		return &tradeerrors.UnmatchedTickerError{OrderSymbol: sym, BrokerSymbol: b.symbol}
	}
	return nil
}

func (b *Broker) submitRegular(ctx context.Context, o *order.Regular, wantLimit bool) (*order.Regular, error) {
	if err := b.checkSymbol(o.Symbol); err != nil {
		return nil, err
	}
	if o.IsLimit != wantLimit {
		expect, got := "MARKET", "LIMIT"
		if wantLimit {
			expect, got = "LIMIT", "MARKET"
		}
		return nil, &tradeerrors.OrderTypeError{Method: "regular order", Expected: expect, Got: got}
	}
	o.BrokerRefID = newRefID()
	o.CreatedAt = b.clock.Now()
	o.Status = order.StatusSubmitted
	o.TickerID = b.tickerID
	if err := b.regs.InsertPendingRegular(o); err != nil {
		return nil, err
	}
	return o, nil
}

// MarketBuy submits a market buy order.
func (b *Broker) MarketBuy(ctx context.Context, o *order.Regular) (*order.Regular, error) {
	o.IsBuy = true
	return b.submitRegular(ctx, o, false)
}

// MarketSell submits a market sell order.
func (b *Broker) MarketSell(ctx context.Context, o *order.Regular) (*order.Regular, error) {
	o.IsBuy = false
	return b.submitRegular(ctx, o, false)
}

// LimitBuy submits a limit buy order.
func (b *Broker) LimitBuy(ctx context.Context, o *order.Regular) (*order.Regular, error) {
	o.IsBuy = true
	return b.submitRegular(ctx, o, true)
}

// LimitSell submits a limit sell order.
func (b *Broker) LimitSell(ctx context.Context, o *order.Regular) (*order.Regular, error) {
	o.IsBuy = false
	return b.submitRegular(ctx, o, true)
}

func (b *Broker) submitStop(o *order.Stop, wantStopLimit bool) (*order.Stop, error) {
	if err := b.checkSymbol(o.Symbol); err != nil {
		return nil, err
	}
	if o.IsStopLimit != wantStopLimit {
		expect, got := "STOP", "STOP_LIMIT"
		if wantStopLimit {
			expect, got = "STOP_LIMIT", "STOP"
		}
		return nil, &tradeerrors.OrderTypeError{Method: "stop order", Expected: expect, Got: got}
	}
	o.BrokerRefID = newRefID()
	o.CreatedAt = b.clock.Now()
	o.Status = order.StatusSubmitted
	o.TickerID = b.tickerID
	if err := b.regs.InsertPendingStop(o); err != nil {
		return nil, err
	}
	return o, nil
}

// StopLimitBuy submits a buy stop-limit order.
func (b *Broker) StopLimitBuy(ctx context.Context, o *order.Stop) (*order.Stop, error) {
	o.IsBuy = true
	return b.submitStop(o, true)
}

// StopLimitSell submits a sell stop-limit order.
func (b *Broker) StopLimitSell(ctx context.Context, o *order.Stop) (*order.Stop, error) {
	o.IsBuy = false
	return b.submitStop(o, true)
}

// StopLoss submits a non-limit sell stop order (accepts only non-limit stops).
func (b *Broker) StopLoss(ctx context.Context, o *order.Stop) (*order.Stop, error) {
	o.IsBuy = false
	return b.submitStop(o, false)
}

// TakeProfit submits a non-limit sell stop order used as a take-profit trigger.
func (b *Broker) TakeProfit(ctx context.Context, o *order.Stop) (*order.Stop, error) {
	o.IsBuy = false
	return b.submitStop(o, false)
}

// CancelOrder sets status Canceled immediately (back variant has no
// asynchronous broker acknowledgement) and settles it.
func (b *Broker) CancelOrder(ctx context.Context, brokerRefID string) error {
	reg, stp, ok := b.regs.Get(brokerRefID)
	if !ok {
		return &tradeerrors.PendingOrderNotInPendingList{BrokerRefID: brokerRefID}
	}
	if reg != nil {
		reg.Status = order.StatusCanceled
		reg.IsSettled = true
	}
	if stp != nil {
		stp.Status = order.StatusCanceled
		stp.IsSettled = true
	}
	return b.regs.Settle(brokerRefID)
}

// UpdateOrder reconciles one pending order against the market, applying the
// fill simulation.
func (b *Broker) UpdateOrder(ctx context.Context, brokerRefID string, refPrice decimal.Decimal) error {
	reg, stp, ok := b.regs.Get(brokerRefID)
	if !ok {
		return &tradeerrors.PendingOrderNotInPendingList{BrokerRefID: brokerRefID}
	}
	switch {
	case reg != nil:
		return b.reconcileRegular(reg, refPrice)
	case stp != nil:
		return b.reconcileStop(stp, refPrice)
	}
	return nil
}

// UpdatePendingOrders reconciles every pending order. Idempotent when no
// market price changes, since a filled/settled order is removed from the
// pending set and a still-pending order re-evaluates the same conditions.
func (b *Broker) UpdatePendingOrders(ctx context.Context, refPrice decimal.Decimal) error {
	for _, reg := range b.regs.PendingRegulars() {
		if err := b.reconcileRegular(reg, refPrice); err != nil {
			return err
		}
	}
	for _, stp := range b.regs.PendingStops() {
		if err := b.reconcileStop(stp, refPrice); err != nil {
			return err
		}
	}
	return nil
}

func (b *Broker) reconcileRegular(o *order.Regular, refPrice decimal.Decimal) error {
	if o.IsTerminal() {
		return nil
	}
	if !o.IsLimit {
		fillPrice := b.marketFillPrice(refPrice, o.IsBuy)
		b.fillRegular(o, fillPrice)
		return b.regs.Settle(o.BrokerRefID)
	}

	filled, fillPrice := decideIfLimitFilled(refPrice, o.LimitPrice, o.IsBuy, b.fillProb.Limit, b.rnd)
	if !filled {
		return nil
	}
	b.fillRegular(o, fillPrice)
	return b.regs.Settle(o.BrokerRefID)
}

func (b *Broker) reconcileStop(o *order.Stop, refPrice decimal.Decimal) error {
	if o.IsTerminal() {
		return nil
	}
	if !o.IsPossiblyTriggered(refPrice) {
		return nil
	}
	if !o.IsStopLimit {
		fillPrice := b.marketFillPrice(refPrice, o.IsBuy)
		b.fillStop(o, fillPrice)
		return b.regs.Settle(o.BrokerRefID)
	}

	filled, fillPrice := decideIfLimitFilled(refPrice, o.LimitPrice, o.IsBuy, b.fillProb.StopLimit, b.rnd)
	if !filled {
		return nil
	}
	b.fillStop(o, fillPrice)
	return b.regs.Settle(o.BrokerRefID)
}

// decideIfLimitFilled: a sell limit fills outright once ref_price clears
// limit_price, and probabilistically at equality; a buy limit mirrors with
// the comparison reversed.
func decideIfLimitFilled(refPrice, limitPrice decimal.Decimal, isBuy bool, prob float64, rnd *clock.RandSource) (bool, decimal.Decimal) {
	if isBuy {
		if refPrice.LessThan(limitPrice) {
			return true, limitPrice
		}
		if refPrice.Equal(limitPrice) {
			return rnd.Float64() < prob, limitPrice
		}
		return false, decimal.Zero
	}
	if refPrice.GreaterThan(limitPrice) {
		return true, limitPrice
	}
	if refPrice.Equal(limitPrice) {
		return rnd.Float64() < prob, limitPrice
	}
	return false, decimal.Zero
}

// marketFillPrice returns ref_price * (1 +/- U[floor, ceiling]): + for buys
// (ask side), - for sells (bid side).
func (b *Broker) marketFillPrice(refPrice decimal.Decimal, isBuy bool) decimal.Decimal {
	spread := b.spread.HalfSpreadFloor.Add(
		b.spread.HalfSpreadCeiling.Sub(b.spread.HalfSpreadFloor).Mul(decimal.NewFromFloat(b.rnd.Float64())),
	)
	one := decimal.NewFromInt(1)
	if isBuy {
		return refPrice.Mul(one.Add(spread))
	}
	return refPrice.Mul(one.Sub(spread))
}

func (b *Broker) fillRegular(o *order.Regular, fillPrice decimal.Decimal) {
	o.FilledPrice = fillPrice
	o.FillQuantity = o.Size
	o.TxValue = fillPrice.Mul(decimal.NewFromInt(o.Size))
	o.Commission = b.commission.Compute(o.TxValue)
	o.FilledAt = b.clock.Now()
	o.Status = order.StatusFilled
	o.IsSettled = true
	b.pos.Update(o.IsBuy, o.Size, fillPrice)
}

func (b *Broker) fillStop(o *order.Stop, fillPrice decimal.Decimal) {
	o.FilledPrice = fillPrice
	o.FillQuantity = o.Size
	o.TxValue = fillPrice.Mul(decimal.NewFromInt(o.Size))
	o.Commission = b.commission.Compute(o.TxValue)
	o.FilledAt = b.clock.Now()
	o.Status = order.StatusFilled
	o.IsSettled = true
	b.pos.Update(o.IsBuy, o.Size, fillPrice)
}

// GetPosition returns the in-memory position (the back variant ignores
// isLivePosition: there is no external broker to query).
func (b *Broker) GetPosition(_ context.Context, _ bool) (*position.Position, error) {
	return b.pos, nil
}

// RemoveSettled purges settled orders older than hoursAgo.
func (b *Broker) RemoveSettled(hoursAgo int) {
	b.regs.RemoveSettled(b.clock.Now().Unix(), hoursAgo)
}

// PendingRegularCount reports how many regular orders are currently pending,
// letting callers detect a MultiplePendingOrderException.
func (b *Broker) PendingRegularCount() int { return len(b.regs.PendingRegulars()) }

// PendingStopCount reports how many stop orders are currently pending.
func (b *Broker) PendingStopCount() int { return len(b.regs.PendingStops()) }

func newRefID() string {
	return time.Now().UTC().Format("20060102T150405.000000000")
}

var _ broker.Broker = (*Broker)(nil)
