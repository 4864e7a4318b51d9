// FILE: order.go
// Package order – order value types and the order state machine.
//
// Orders are created by the Strategy and exclusively mutated by the Broker
// after submission. Callers should treat Order as arena-allocated: keep the
// BrokerRefID around as the stable key and let the Broker's registers be the
// source of truth, per the arena-of-ids pattern described for the broader
// engine.
package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusCreated         Status = "CREATED"
	StatusSubmitted       Status = "SUBMITTED"
	StatusAccepted        Status = "ACCEPTED"
	StatusNew             Status = "NEW"
	StatusPartiallyFilled Status = "PARTIALLY_FILLED"
	StatusFilled          Status = "FILLED"
	StatusCanceled        Status = "CANCELED"
	StatusExpired         Status = "EXPIRED"
	StatusRejected        Status = "REJECTED"
	StatusPending         Status = "PENDING"
	StatusOther           Status = "OTHER"
)

// Type distinguishes the order kind.
type Type string

const (
	TypeMarket    Type = "MARKET"
	TypeLimit     Type = "LIMIT"
	TypeStop      Type = "STOP"
	TypeStopLimit Type = "STOP_LIMIT"
)

// settled holds the terminal statuses.
var settled = map[Status]bool{
	StatusFilled:   true,
	StatusCanceled: true,
	StatusRejected: true,
	StatusExpired:  true,
}

// deactivated holds the settled-but-unfilled statuses.
var deactivated = map[Status]bool{
	StatusCanceled: true,
	StatusRejected: true,
	StatusExpired:  true,
}

// Base carries the fields common to Regular and Stop orders.
type Base struct {
	ClientRefID  string
	BrokerRefID  string // empty until accepted
	Symbol       string
	TickerID     string
	Size         int64
	IsBuy        bool
	RefPrice     decimal.Decimal
	Status       Status
	Type         Type
	CreatedAt    time.Time
	FilledAt     time.Time
	FilledPrice  decimal.Decimal
	FillQuantity int64
	TxValue      decimal.Decimal
	Commission   decimal.Decimal
	IsSettled    bool // broker-confirmed terminal, mirrors Status but stamped by reconciliation
}

func newBase(symbol string, size int64, isBuy bool, refPrice decimal.Decimal) Base {
	return Base{
		ClientRefID: uuid.New().String(),
		Symbol:      symbol,
		Size:        size,
		IsBuy:       isBuy,
		RefPrice:    refPrice,
		Status:      StatusCreated,
		CreatedAt:   time.Now().UTC(),
	}
}

// IsTerminal reports whether the order has settled.
func (b *Base) IsTerminal() bool { return settled[b.Status] }

// IsDeactivated reports whether the order settled without filling.
func (b *Base) IsDeactivated() bool { return deactivated[b.Status] }

// BrokerRef returns the broker-assigned id, erroring if not yet submitted.
func (b *Base) BrokerRef() (string, error) {
	if b.BrokerRefID == "" {
		return "", &tradeerrors.MissingOrderAttribute{ClassName: "Order", Attribute: "broker_ref_id"}
	}
	return b.BrokerRefID, nil
}

// Regular is a market or limit order.
type Regular struct {
	Base
	IsLimit    bool
	LimitPrice decimal.Decimal
}

// NewMarket builds a market order in state Created.
func NewMarket(symbol string, size int64, isBuy bool, refPrice decimal.Decimal) *Regular {
	r := &Regular{Base: newBase(symbol, size, isBuy, refPrice)}
	r.Type = TypeMarket
	return r
}

// NewLimit builds a limit order in state Created.
func NewLimit(symbol string, size int64, isBuy bool, refPrice, limitPrice decimal.Decimal) *Regular {
	r := &Regular{Base: newBase(symbol, size, isBuy, refPrice), IsLimit: true, LimitPrice: limitPrice}
	r.Type = TypeLimit
	return r
}

// Stop is a stop or stop-limit order.
type Stop struct {
	Base
	IsStopLimit bool
	StopPrice   decimal.Decimal
	LimitPrice  decimal.Decimal
}

// NewStop builds a plain stop (market-on-trigger) order.
func NewStop(symbol string, size int64, isBuy bool, refPrice, stopPrice decimal.Decimal) *Stop {
	s := &Stop{Base: newBase(symbol, size, isBuy, refPrice), StopPrice: stopPrice}
	s.Type = TypeStop
	return s
}

// NewStopLimit builds a stop-limit order.
func NewStopLimit(symbol string, size int64, isBuy bool, refPrice, stopPrice, limitPrice decimal.Decimal) *Stop {
	s := &Stop{Base: newBase(symbol, size, isBuy, refPrice), IsStopLimit: true, StopPrice: stopPrice, LimitPrice: limitPrice}
	s.Type = TypeStopLimit
	return s
}

// StopPriceValue returns the stop trigger price, never the limit price.
func (s *Stop) StopPriceValue() decimal.Decimal { return s.StopPrice }

// IsPossiblyTriggered reports whether ref_price would trigger this stop: for
// a sell stop, ref_price <= stop_price; for a buy stop, ref_price >= stop_price.
func (s *Stop) IsPossiblyTriggered(refPrice decimal.Decimal) bool {
	if s.IsBuy {
		return refPrice.GreaterThanOrEqual(s.StopPrice)
	}
	return refPrice.LessThanOrEqual(s.StopPrice)
}
