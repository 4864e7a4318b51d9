// FILE: broker.go
// Package broker – the Broker Engine's shared surface: the interface
// implemented by the backtest and live variants, the Commission model, and
// the pending/settled register discipline both variants build on.
package broker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/order"
	"github.com/chidi150c/autotrader/internal/position"
	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

// Broker is the sole owner of order lifecycles after submission, of
// Position, and of the pending/settled order registers. Same signatures for
// live and back variants.
type Broker interface {
	Initialize(ctx context.Context, symbol, currency string) error

	MarketBuy(ctx context.Context, o *order.Regular) (*order.Regular, error)
	MarketSell(ctx context.Context, o *order.Regular) (*order.Regular, error)
	LimitBuy(ctx context.Context, o *order.Regular) (*order.Regular, error)
	LimitSell(ctx context.Context, o *order.Regular) (*order.Regular, error)

	StopLimitBuy(ctx context.Context, o *order.Stop) (*order.Stop, error)
	StopLimitSell(ctx context.Context, o *order.Stop) (*order.Stop, error)
	StopLoss(ctx context.Context, o *order.Stop) (*order.Stop, error)
	TakeProfit(ctx context.Context, o *order.Stop) (*order.Stop, error)

	CancelOrder(ctx context.Context, brokerRefID string) error
	UpdateOrder(ctx context.Context, brokerRefID string, refPrice decimal.Decimal) error
	UpdatePendingOrders(ctx context.Context, refPrice decimal.Decimal) error

	GetPosition(ctx context.Context, isLivePosition bool) (*position.Position, error)
}

// Commission is a two-mode helper: fixed amount, or percent of transaction
// value with optional floor/ceiling clamping.
type Commission struct {
	Fixed   bool
	Amount  decimal.Decimal // used when Fixed
	Percent decimal.Decimal // used when !Fixed
	Floor   decimal.Decimal // zero means unset
	Ceiling decimal.Decimal // zero means unset
}

// Compute returns the commission owed on a transaction of the given value.
func (c Commission) Compute(transactionValue decimal.Decimal) decimal.Decimal {
	if c.Fixed {
		return c.Amount
	}
	fee := transactionValue.Mul(c.Percent)
	if !c.Floor.IsZero() && fee.LessThan(c.Floor) {
		fee = c.Floor
	}
	if !c.Ceiling.IsZero() && fee.GreaterThan(c.Ceiling) {
		fee = c.Ceiling
	}
	return fee
}

// entry is an internal registry record. Orders are arena-like: the registry
// is keyed by BrokerRefID, and each entry holds either a Regular or a Stop
// pointer so both kinds share one map.
type entry struct {
	settled bool
	regular *order.Regular
	stop    *order.Stop
}

// Registers tracks the pending/settled discipline common to both broker
// variants: every order id is in exactly one of {pending, settled}.
type Registers struct {
	byID map[string]*entry
}

// NewRegisters returns empty pending/settled registers.
func NewRegisters() *Registers {
	return &Registers{byID: make(map[string]*entry)}
}

// InsertPendingRegular inserts a non-settled regular order into pending.
// Inserting an already-settled order, or reusing a registered key, is an error.
func (r *Registers) InsertPendingRegular(o *order.Regular) error {
	if o.IsTerminal() {
		return &tradeerrors.OrderAlreadyRegistered{BrokerRefID: o.BrokerRefID, Settled: true}
	}
	if _, exists := r.byID[o.BrokerRefID]; exists {
		return &tradeerrors.OrderAlreadyRegistered{BrokerRefID: o.BrokerRefID}
	}
	r.byID[o.BrokerRefID] = &entry{regular: o}
	return nil
}

// InsertPendingStop inserts a non-settled stop order into pending.
// Inserting an already-settled order, or reusing a registered key, is an error.
func (r *Registers) InsertPendingStop(o *order.Stop) error {
	if o.IsTerminal() {
		return &tradeerrors.OrderAlreadyRegistered{BrokerRefID: o.BrokerRefID, Settled: true}
	}
	if _, exists := r.byID[o.BrokerRefID]; exists {
		return &tradeerrors.OrderAlreadyRegistered{BrokerRefID: o.BrokerRefID}
	}
	r.byID[o.BrokerRefID] = &entry{stop: o}
	return nil
}

// Settle transitions an order to settled, removing it from pending
// atomically. Settling an id not previously pending is an error.
func (r *Registers) Settle(brokerRefID string) error {
	e, ok := r.byID[brokerRefID]
	if !ok || e.settled {
		return &tradeerrors.PendingOrderNotInPendingList{BrokerRefID: brokerRefID}
	}
	e.settled = true
	return nil
}

// Get returns the regular or stop order for an id, or ok=false if unknown.
func (r *Registers) Get(brokerRefID string) (regular *order.Regular, stop *order.Stop, ok bool) {
	e, exists := r.byID[brokerRefID]
	if !exists {
		return nil, nil, false
	}
	return e.regular, e.stop, true
}

// PendingRegulars returns all non-settled regular orders.
func (r *Registers) PendingRegulars() []*order.Regular {
	var out []*order.Regular
	for _, e := range r.byID {
		if !e.settled && e.regular != nil {
			out = append(out, e.regular)
		}
	}
	return out
}

// PendingStops returns all non-settled stop orders.
func (r *Registers) PendingStops() []*order.Stop {
	var out []*order.Stop
	for _, e := range r.byID {
		if !e.settled && e.stop != nil {
			out = append(out, e.stop)
		}
	}
	return out
}

// RemoveSettled purges settled orders whose FilledAt/CreatedAt is older than
// the cutoff implied by hoursAgo relative to now.
func (r *Registers) RemoveSettled(now int64, hoursAgo int) {
	cutoff := now - int64(hoursAgo)*3600
	for id, e := range r.byID {
		if !e.settled {
			continue
		}
		var ts int64
		switch {
		case e.regular != nil:
			ts = e.regular.FilledAt.Unix()
			if e.regular.FilledAt.IsZero() {
				ts = e.regular.CreatedAt.Unix()
			}
		case e.stop != nil:
			ts = e.stop.FilledAt.Unix()
			if e.stop.FilledAt.IsZero() {
				ts = e.stop.CreatedAt.Unix()
			}
		}
		if ts < cutoff {
			delete(r.byID, id)
		}
	}
}
