// FILE: intents.go
// Package trade – the order intents a Strategy emits: buy, sell, stoploss,
// trail_stoploss, cancel. Each is a no-op under its guard conditions rather
// than an error, so a Strategy can emit intents unconditionally each bar.
package trade

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/metrics"
	"github.com/chidi150c/autotrader/internal/notify"
	"github.com/chidi150c/autotrader/internal/order"
	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

const stopCancelRetries = 3

// Buy is a no-op if a pending regular order exists or buy_count >= reps_limit.
func (t *Trade) Buy(ctx context.Context, isLimit bool, refPrice decimal.Decimal, limitPrice decimal.Decimal) error {
	if t.pendingRegular != nil {
		return nil
	}
	if t.buyCount >= t.RepsLimit {
		return nil
	}
	size := t.sizer.Resolve(refPrice)
	if size <= 0 {
		return nil
	}

	var o *order.Regular
	var err error
	if isLimit {
		if limitPrice.IsZero() {
			return &tradeerrors.MissingPrice{ClassName: "Trade.Buy", PriceType: "limit_price"}
		}
		o, err = t.brk.LimitBuy(ctx, order.NewLimit(t.Symbol, size, true, refPrice, limitPrice))
	} else {
		o, err = t.brk.MarketBuy(ctx, order.NewMarket(t.Symbol, size, true, refPrice))
	}
	if err != nil {
		return err
	}
	t.pendingRegular = o
	metrics.IncOrder("buy", "regular")
	t.notifyf(notify.TagOrder, "buy submitted: %s size=%d ref=%s", o.BrokerRefID, size, refPrice)
	return nil
}

// Sell is a no-op if a pending regular order exists or sell_count >=
// reps_limit. It first cancels any pending stop order, since the position
// size the stop protects is about to be consumed.
func (t *Trade) Sell(ctx context.Context, isLimit bool, refPrice decimal.Decimal, limitPrice decimal.Decimal) error {
	if t.pendingRegular != nil {
		return nil
	}
	if t.sellCount >= t.RepsLimit {
		return nil
	}
	if t.pendingStop != nil {
		if err := t.cancelPendingStopWithRetries(ctx); err != nil {
			return err
		}
	}

	size := t.sizer.Resolve(refPrice)
	if t.position != nil && size > t.position.Size {
		size = t.position.Size
	}
	if size <= 0 {
		return nil
	}

	var o *order.Regular
	var err error
	if isLimit {
		if limitPrice.IsZero() {
			return &tradeerrors.MissingPrice{ClassName: "Trade.Sell", PriceType: "limit_price"}
		}
		o, err = t.brk.LimitSell(ctx, order.NewLimit(t.Symbol, size, false, refPrice, limitPrice))
	} else {
		o, err = t.brk.MarketSell(ctx, order.NewMarket(t.Symbol, size, false, refPrice))
	}
	if err != nil {
		return err
	}
	t.pendingRegular = o
	metrics.IncOrder("sell", "regular")
	t.notifyf(notify.TagOrder, "sell submitted: %s size=%d ref=%s", o.BrokerRefID, size, refPrice)
	return nil
}

// StopLoss is a no-op if a pending stop already exists or sell_count >=
// reps_limit. It seeds the StopPricer's trailing anchors immediately after
// submission.
func (t *Trade) StopLoss(ctx context.Context, isStopLimit bool, stopPrice, limitPrice decimal.Decimal) error {
	if t.pendingStop != nil {
		return nil
	}
	if t.sellCount >= t.RepsLimit {
		return nil
	}
	if stopPrice.IsZero() {
		return &tradeerrors.MissingPrice{ClassName: "Trade.StopLoss", PriceType: "stop_price"}
	}
	if t.position == nil || t.position.Size <= 0 {
		return nil
	}
	size := t.position.Size
	refPrice := t.refPrice()

	var o *order.Stop
	var err error
	if isStopLimit {
		if limitPrice.IsZero() {
			return &tradeerrors.MissingPrice{ClassName: "Trade.StopLoss", PriceType: "limit_price"}
		}
		o, err = t.brk.StopLimitSell(ctx, order.NewStopLimit(t.Symbol, size, false, refPrice, stopPrice, limitPrice))
	} else {
		o, err = t.brk.StopLoss(ctx, order.NewStop(t.Symbol, size, false, refPrice, stopPrice))
	}
	if err != nil {
		return err
	}
	t.pendingStop = o
	t.stopPricer.SetTrailing(refPrice, stopPrice)
	metrics.IncOrder("sell", "stop")
	metrics.StopPrice.Set(mustFloat(stopPrice))
	t.notifyf(notify.TagOrder, "stoploss submitted: %s stop=%s", o.BrokerRefID, stopPrice)
	return nil
}

// TrailStopLoss requires an existing pending stop. It asks the StopPricer
// for new trailing prices; if none are returned (anchor increment not met,
// or the tightening invariant rejects the candidate), this is a no-op.
// Otherwise it cancels the existing stop and places a new one at the
// updated prices.
func (t *Trade) TrailStopLoss(ctx context.Context, isStopLimit bool) error {
	if t.pendingStop == nil {
		return nil
	}
	refPrice := t.refPrice()
	stop, limit, ok := t.stopPricer.GetStopLimitPrices(refPrice, true)
	if !ok {
		return nil
	}

	old := t.pendingStop
	if err := t.brk.CancelOrder(ctx, old.BrokerRefID); err != nil {
		return err
	}
	metrics.IncCancellation("stop")
	t.pendingStop = nil

	var o *order.Stop
	var err error
	if isStopLimit {
		o, err = t.brk.StopLimitSell(ctx, order.NewStopLimit(t.Symbol, old.Size, false, refPrice, stop, limit))
	} else {
		o, err = t.brk.StopLoss(ctx, order.NewStop(t.Symbol, old.Size, false, refPrice, stop))
	}
	if err != nil {
		return err
	}
	t.pendingStop = o
	metrics.StopPrice.Set(mustFloat(stop))
	t.notifyf(notify.TagOrder, "trailing stop updated: %s stop=%s", o.BrokerRefID, stop)
	return nil
}

// Cancel requests cancellation of the pending regular order, if any.
func (t *Trade) Cancel(ctx context.Context) error {
	if t.pendingRegular == nil {
		return nil
	}
	if err := t.brk.CancelOrder(ctx, t.pendingRegular.BrokerRefID); err != nil {
		return err
	}
	metrics.IncCancellation("regular")
	return nil
}

// mustFloat converts a decimal to float64 for gauge reporting; metrics are a
// lossy, display-only surface, unlike the decimal math driving order state.
func mustFloat(d interface{ InexactFloat64() float64 }) float64 {
	return d.InexactFloat64()
}

// cancelPendingStopWithRetries cancels the pending stop, reconciling between
// attempts, up to stopCancelRetries rounds.
func (t *Trade) cancelPendingStopWithRetries(ctx context.Context) error {
	for i := 0; i < stopCancelRetries; i++ {
		if t.pendingStop == nil {
			return nil
		}
		if err := t.brk.CancelOrder(ctx, t.pendingStop.BrokerRefID); err != nil {
			return err
		}
		if err := t.reconcilePendingStop(ctx); err != nil {
			return err
		}
	}
	return nil
}
