// FILE: strategy.go
// Package strategy – the user-overridable decision procedure (template
// method: prepare/print_bar/next, invoked once per bar) and the Sizer that
// turns an intent into a concrete order size. The Driver (internal/trade)
// supplies the TradeContext the strategy operates through.
package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/barfeed"
	"github.com/chidi150c/autotrader/internal/broker"
	"github.com/chidi150c/autotrader/internal/position"
	"github.com/chidi150c/autotrader/internal/stopprice"
)

// TradeContext is the read/intent surface the Driver exposes to a Strategy.
// Implemented by internal/trade.Trade; kept as an interface here so this
// package never imports internal/trade.
type TradeContext interface {
	Bars() *barfeed.BarFeed
	// CurrentBar returns the bar at the Driver's execution cursor — the one
	// pre_next/next/post_next are currently operating on — and false if no
	// bar has been loaded yet.
	CurrentBar() (barfeed.Bar, bool)
	// Window returns up to n bars ending at the current cursor, oldest first
	// — the ascending-time slice indicator math is written against. n <= 0
	// returns every bar up to the cursor.
	Window(n int) []barfeed.Bar
	Position() *position.Position
	Broker() broker.Broker
	GainLoss() *position.GainLossTracker
	StopPricer() *stopprice.StopPricer
	Sizer() Sizer

	Buy(ctx context.Context, isLimit bool, refPrice decimal.Decimal, limitPrice decimal.Decimal) error
	Sell(ctx context.Context, isLimit bool, refPrice decimal.Decimal, limitPrice decimal.Decimal) error
	StopLoss(ctx context.Context, isStopLimit bool, stopPrice, limitPrice decimal.Decimal) error
	TrailStopLoss(ctx context.Context, isStopLimit bool) error
	Cancel(ctx context.Context) error
}

// Strategy is the user-overridable per-bar decision procedure.
type Strategy interface {
	// Prepare runs once before the execution loop starts (e.g. install
	// indicator columns on the BarFeed).
	Prepare(tc TradeContext)
	// PrintBar runs once per bar for diagnostics, after pre_next and before next.
	PrintBar(tc TradeContext)
	// Next is the per-bar decision: inspect bars/position/signals and emit intents.
	Next(ctx context.Context, tc TradeContext)
}

// Mode selects how Sizer resolves an order size.
type Mode int

const (
	BySize Mode = iota
	ByAmount
)

// Sizer resolves an intent's share count, either as a fixed size or as a
// notional amount converted at the current reference price.
type Sizer struct {
	Mode          Mode
	FixedSize     int64
	Amount        decimal.Decimal
	BuyPowerRatio decimal.Decimal
}

// Resolve returns the order size for a buy/sell intent at refPrice. By-size
// returns the configured fixed size; by-amount returns
// floor(amount * buy_power_ratio / ref_price).
func (s Sizer) Resolve(refPrice decimal.Decimal) int64 {
	if s.Mode == BySize {
		return s.FixedSize
	}
	if refPrice.IsZero() {
		return 0
	}
	notional := s.Amount.Mul(s.BuyPowerRatio)
	return notional.Div(refPrice).IntPart()
}
