// FILE: execute.go
// Package trade – the per-bar execution loop: pre_next (pending-order
// reconciliation/cancellation), the Strategy's print_bar/next, and post_next
// (fill reconciliation sweeps).
package trade

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/metrics"
	"github.com/chidi150c/autotrader/internal/notify"
	"github.com/chidi150c/autotrader/internal/order"
	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

// statuses lists every Trade.Status value, used to drive metrics.SetStatus's
// one-hot labeled gauge.
var statuses = []string{
	string(StatusActivated), string(StatusCancelled), string(StatusPaused),
	string(StatusResumed), string(StatusClosed),
}

// pendingCounter is implemented by broker variants that expose register
// sizes, letting Execute detect a MultiplePendingOrderException even when
// the extra order was injected behind the Broker's back.
type pendingCounter interface {
	PendingRegularCount() int
	PendingStopCount() int
}

// Execute runs the bar-clock loop. It returns nil
// on a clean stop (Cancelled/Closed/Paused, or backtest bars exhausted) and
// a non-nil error on any invariant violation or propagated broker error,
// which the caller should treat as fatal to this Trade.
func (t *Trade) Execute(ctx context.Context) error {
	if t.Stopped() {
		return nil
	}
	if err := t.validateRequired(); err != nil {
		return err
	}

	for {
		barCount := t.bars.ValidBarCount()
		for t.cursor < barCount {
			if err := t.runBar(ctx); err != nil {
				t.fatal(err)
				return err
			}
			t.cursor++
			if t.Stopped() {
				return nil
			}
			barCount = t.bars.ValidBarCount()
		}

		if !t.shouldRefreshBars() {
			return nil
		}

		t.clk.Sleep(ctx, time.Duration(t.bars.SecondsToNextBar())*time.Second)
		t.clk.Sleep(ctx, time.Duration(t.bars.DataDelaySeconds())*time.Second)

		fresh, err := t.refresh(ctx)
		if err != nil {
			return err
		}
		t.bars.Update(fresh)
		t.purgeAgedSettled()
	}
}

// settledRemover is implemented by broker variants that age out settled
// orders (backtest's in-memory register needs this; a live sidecar prunes
// its own history).
type settledRemover interface {
	RemoveSettled(hoursAgo int)
}

// purgeAgedSettled runs the settled-register purge once per live bar-feed
// refresh, keeping it from growing unbounded across a long-running Trade.
func (t *Trade) purgeAgedSettled() {
	if r, ok := t.brk.(settledRemover); ok {
		r.RemoveSettled(defaultRemoveSettledAge)
	}
}

// shouldRefreshBars reports whether Execute should pull another batch of
// candles rather than stop: live mode, a refresh function configured, the
// session open, and the last loaded bar itself a live bar.
func (t *Trade) shouldRefreshBars() bool {
	if !t.IsLive || t.refresh == nil {
		return false
	}
	n := t.bars.ValidBarCount()
	if n == 0 {
		return false
	}
	if !t.oracle.IsOpenNow() {
		return false
	}
	return t.bars.IsLive(n - 1)
}

func (t *Trade) runBar(ctx context.Context) error {
	if err := t.preNext(ctx); err != nil {
		return err
	}
	t.strat.PrintBar(t)
	t.strat.Next(ctx, t)
	return t.postNext(ctx)
}

// fatal notifies before termination; invariant violations
// (MultiplePendingOrderException, UnsettledOrderPersistError) must surface
// before the Trade goes quiet.
func (t *Trade) fatal(err error) {
	t.setStatus(StatusClosed)
	metrics.IncInvariantViolation(invariantKind(err))
	t.notifyf(notify.TagTrade, "trade %s terminated fatally: %v", t.Codename, err)
}

func invariantKind(err error) string {
	switch err.(type) {
	case *tradeerrors.MultiplePendingOrderException:
		return "multiple_pending_order"
	case *tradeerrors.UnsettledOrderPersistError:
		return "unsettled_order_persist"
	default:
		return "other"
	}
}

// preNext reconciles any pending regular order once; if it's still pending,
// requests cancellation, waits, and reconciles again. A regular order that
// survives cancellation is an UnsettledOrderPersistError.
func (t *Trade) preNext(ctx context.Context) error {
	if err := t.checkMultiplePending(); err != nil {
		return err
	}
	if t.pendingRegular == nil {
		return nil
	}
	if err := t.reconcilePendingRegular(ctx); err != nil {
		return err
	}
	if t.pendingRegular == nil {
		return nil
	}

	if err := t.brk.CancelOrder(ctx, t.pendingRegular.BrokerRefID); err != nil {
		return err
	}
	wait := defaultCancelWait
	if !t.IsLive {
		wait = 0
	}
	t.clk.Sleep(ctx, wait)

	if err := t.reconcilePendingRegular(ctx); err != nil {
		return err
	}
	if t.pendingRegular != nil {
		return &tradeerrors.UnsettledOrderPersistError{BrokerRefID: t.pendingRegular.BrokerRefID}
	}
	return nil
}

// postNext reconciles fills against the bar's reference price. In backtest
// mode this is a single pass; in live mode it sweeps repeatedly until the
// reconciliation window (seconds_to_next_bar minus buffer, minus one second
// per sweep) elapses, sleeping evenly between sweeps.
func (t *Trade) postNext(ctx context.Context) error {
	refPrice := t.refPrice()
	if !t.IsLive {
		return t.reconcileAll(ctx, refPrice)
	}

	totalWait := t.bars.SecondsToNextBar() - defaultPostNextBuffer - defaultPostNextSweeps
	if totalWait < 0 {
		totalWait = 0
	}
	sweepWait := time.Duration(totalWait/defaultPostNextSweeps) * time.Second

	for i := 0; i < defaultPostNextSweeps; i++ {
		if err := t.reconcileAll(ctx, refPrice); err != nil {
			return err
		}
		t.clk.Sleep(ctx, sweepWait)
	}
	return nil
}

func (t *Trade) reconcileAll(ctx context.Context, refPrice decimal.Decimal) error {
	if err := t.brk.UpdatePendingOrders(ctx, refPrice); err != nil {
		return err
	}
	if err := t.checkMultiplePending(); err != nil {
		return err
	}
	return t.afterReconcile(ctx)
}

func (t *Trade) reconcilePendingRegular(ctx context.Context) error {
	if t.pendingRegular == nil {
		return nil
	}
	if err := t.brk.UpdateOrder(ctx, t.pendingRegular.BrokerRefID, t.refPrice()); err != nil {
		return err
	}
	if err := t.checkMultiplePending(); err != nil {
		return err
	}
	return t.afterReconcile(ctx)
}

func (t *Trade) reconcilePendingStop(ctx context.Context) error {
	if t.pendingStop == nil {
		return nil
	}
	if err := t.brk.UpdateOrder(ctx, t.pendingStop.BrokerRefID, t.refPrice()); err != nil {
		return err
	}
	if err := t.checkMultiplePending(); err != nil {
		return err
	}
	return t.afterReconcile(ctx)
}

func (t *Trade) checkMultiplePending() error {
	pc, ok := t.brk.(pendingCounter)
	if !ok {
		return nil
	}
	if pc.PendingRegularCount() > 1 {
		return &tradeerrors.MultiplePendingOrderException{Kind: "regular"}
	}
	if pc.PendingStopCount() > 1 {
		return &tradeerrors.MultiplePendingOrderException{Kind: "stop"}
	}
	return nil
}

// afterReconcile detects a pending order's transition to a terminal status
// and, for fills, pushes the P&L tracker, refreshes Position, checks the
// reps limit, and resets the StopPricer's trailing anchors on a stop fill.
func (t *Trade) afterReconcile(ctx context.Context) error {
	if t.pendingRegular != nil && t.pendingRegular.IsTerminal() {
		o := t.pendingRegular
		t.pendingRegular = nil
		if o.Status == order.StatusFilled {
			t.onFill(ctx, o.IsBuy, o.TxValue, o.FillQuantity, o.Commission, o.BrokerRefID)
		}
	}
	if t.pendingStop != nil && t.pendingStop.IsTerminal() {
		o := t.pendingStop
		t.pendingStop = nil
		if o.Status == order.StatusFilled {
			t.onFill(ctx, o.IsBuy, o.TxValue, o.FillQuantity, o.Commission, o.BrokerRefID)
			t.stopPricer.ResetTrailing()
		}
	}
	return nil
}

func (t *Trade) onFill(ctx context.Context, isBuy bool, txValue decimal.Decimal, qty int64, commission decimal.Decimal, brokerRefID string) {
	side := "sell"
	if isBuy {
		t.gainLoss.AddHolding(txValue, qty, commission)
		t.buyCount++
		side = "buy"
	} else {
		t.gainLoss.MakeSale(txValue, qty, commission)
		t.sellCount++
	}
	t.refreshPosition(ctx)
	metrics.IncFill(side)
	metrics.RealizedPnL.Set(mustFloat(t.gainLoss.RealizedGainLoss()))
	metrics.RepsUsed.WithLabelValues("buy").Set(float64(t.buyCount))
	metrics.RepsUsed.WithLabelValues("sell").Set(float64(t.sellCount))
	if t.position != nil {
		metrics.PositionSize.Set(float64(t.position.Size))
		metrics.UnrealizedPnL.Set(mustFloat(t.gainLoss.EstimateUnrealized(t.refPrice())))
	}
	t.notifyf(notify.TagOrder, "order %s filled qty=%d value=%s realized=%s", brokerRefID, qty, txValue, t.gainLoss.RealizedGainLoss())
	t.checkRepsLimit()
}

func (t *Trade) checkRepsLimit() {
	if t.buyCount >= t.RepsLimit && t.sellCount >= t.RepsLimit {
		t.setStatus(StatusClosed)
		t.notifyf(notify.TagTrade, "trade %s closed: reps limit %d reached on both sides", t.Codename, t.RepsLimit)
	}
}
