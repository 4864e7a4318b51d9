// FILE: gainloss.go
// Package position – GainLossTracker: running realized/unrealized P&L with
// weighted-average cost-of-sale accounting. holding_value is the cost basis
// of current holdings; a sale removes a proportional chunk of that cost
// basis (sale_volume * avg_unit_cost) rather than a FIFO/LIFO lot.
package position

import "github.com/shopspring/decimal"

// GainLossTracker accumulates purchase/sale activity for one symbol.
type GainLossTracker struct {
	holdingVolume   int64
	totalSaleVolume int64
	holdingValue    decimal.Decimal
	totalCostOfSale decimal.Decimal
	totalCommission decimal.Decimal
	totalSale       decimal.Decimal
	purchaseCount   int
	saleCount       int
}

// NewGainLossTracker returns a tracker with no holdings.
func NewGainLossTracker() *GainLossTracker {
	return &GainLossTracker{}
}

// AddHolding records a buy: purchaseValue is the gross transaction value
// (qty * fill price, pre-commission), purchaseVolume is shares bought.
func (g *GainLossTracker) AddHolding(purchaseValue decimal.Decimal, purchaseVolume int64, commission decimal.Decimal) {
	g.holdingValue = g.holdingValue.Add(purchaseValue)
	g.holdingVolume += purchaseVolume
	g.purchaseCount++
	g.totalCommission = g.totalCommission.Add(commission)
}

// MakeSale records a sell using the current weighted-average cost basis.
func (g *GainLossTracker) MakeSale(saleValue decimal.Decimal, saleVolume int64, commission decimal.Decimal) {
	g.totalSale = g.totalSale.Add(saleValue)

	if g.holdingVolume > 0 {
		avgUnitCost := g.holdingValue.Div(decimal.NewFromInt(g.holdingVolume))
		costOfSaleChunk := decimal.NewFromInt(saleVolume).Mul(avgUnitCost)
		g.totalCostOfSale = g.totalCostOfSale.Add(costOfSaleChunk)
		g.holdingValue = g.holdingValue.Sub(costOfSaleChunk)
	}

	g.totalSaleVolume += saleVolume
	g.holdingVolume -= saleVolume
	if g.holdingVolume < 0 {
		g.holdingVolume = 0
	}

	g.saleCount++
	g.totalCommission = g.totalCommission.Add(commission)
}

// RealizedGainLoss returns total_sale - total_cost_of_sale - total_commission,
// rounded to 2 decimals at the API surface.
func (g *GainLossTracker) RealizedGainLoss() decimal.Decimal {
	return g.totalSale.Sub(g.totalCostOfSale).Sub(g.totalCommission).Round(2)
}

// EstimateUnrealized returns zero with no holdings, else
// holding_volume*market_price - holding_value, rounded to 2 decimals.
func (g *GainLossTracker) EstimateUnrealized(marketPrice decimal.Decimal) decimal.Decimal {
	if g.holdingVolume == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(g.holdingVolume).Mul(marketPrice).Sub(g.holdingValue).Round(2)
}

// HoldingVolume returns the current open share count.
func (g *GainLossTracker) HoldingVolume() int64 { return g.holdingVolume }

// PurchaseCount returns the number of recorded buys.
func (g *GainLossTracker) PurchaseCount() int { return g.purchaseCount }

// SaleCount returns the number of recorded sells.
func (g *GainLossTracker) SaleCount() int { return g.saleCount }
