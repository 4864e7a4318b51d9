// FILE: position.go
// Package position – holdings and realized/unrealized P&L tracking, one
// instance per traded symbol, owned by the Broker.
package position

import (
	"github.com/shopspring/decimal"
)

// Position tracks a single symbol's open size and weighted-average cost.
type Position struct {
	Symbol          string
	TickerID        string
	Currency        string
	Size            int64
	AverageBuyPrice decimal.Decimal
}

// New returns a flat (no holdings) Position.
func New(symbol, tickerID, currency string) *Position {
	return &Position{Symbol: symbol, TickerID: tickerID, Currency: currency}
}

// Open sets the initial holding. Requires the position be flat.
func (p *Position) Open(qty int64, price decimal.Decimal) {
	if p.Size != 0 {
		return
	}
	p.Size = qty
	p.AverageBuyPrice = price
}

// Update applies a buy (increasing weighted-average cost) or a sell
// (reducing size, average unchanged). Sell quantity exceeding the current
// size is clamped so the position never goes negative.
func (p *Position) Update(isBuy bool, qty int64, price decimal.Decimal) {
	if isBuy {
		p.add(qty, price)
	} else {
		p.remove(qty)
	}
}

func (p *Position) add(qty int64, price decimal.Decimal) {
	if qty <= 0 {
		return
	}
	oldSize := decimal.NewFromInt(p.Size)
	newQty := decimal.NewFromInt(qty)
	totalCost := p.AverageBuyPrice.Mul(oldSize).Add(price.Mul(newQty))
	p.Size += qty
	if p.Size > 0 {
		p.AverageBuyPrice = totalCost.Div(decimal.NewFromInt(p.Size))
	}
}

func (p *Position) remove(qty int64) {
	if qty <= 0 {
		return
	}
	if qty > p.Size {
		qty = p.Size
	}
	p.Size -= qty
	if p.Size == 0 {
		p.AverageBuyPrice = decimal.Zero
	}
}

// Close zeroes the position (used when the Broker observes the full size sold).
func (p *Position) Close() {
	p.Size = 0
	p.AverageBuyPrice = decimal.Zero
}
