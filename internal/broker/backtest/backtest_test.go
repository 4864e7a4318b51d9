package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/autotrader/internal/broker"
	"github.com/chidi150c/autotrader/internal/clock"
	"github.com/chidi150c/autotrader/internal/order"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newBroker(seed int64) *Broker {
	c := clock.NewBacktest(time.Unix(0, 0).UTC())
	r := clock.NewRandSource(seed)
	commission := broker.Commission{Fixed: true, Amount: dec("0")}
	b := New(c, r, commission, DefaultSpreadConfig(), DefaultFillPossibility())
	_ = b.Initialize(context.Background(), "SHOP", "USD")
	return b
}

func TestMarketBuyFillsWithinSpreadBand(t *testing.T) {
	ctx := context.Background()
	b := newBroker(1)

	o := order.NewMarket("SHOP", 10, true, dec("100"))
	placed, err := b.MarketBuy(ctx, o)
	require.NoError(t, err)
	require.Equal(t, order.StatusSubmitted, placed.Status)

	require.NoError(t, b.UpdateOrder(ctx, placed.BrokerRefID, dec("100")))
	require.Equal(t, order.StatusFilled, placed.Status)
	require.True(t, placed.FilledPrice.GreaterThan(dec("100")), "buy fills above ref price (ask side)")
	require.True(t, placed.FilledPrice.LessThanOrEqual(dec("100.31")))

	pos, err := b.GetPosition(ctx, false)
	require.NoError(t, err)
	require.EqualValues(t, 10, pos.Size)
}

func TestMarketSellFillsBelowRefPrice(t *testing.T) {
	ctx := context.Background()
	b := newBroker(2)
	b.pos.Open(10, dec("90"))

	o := order.NewMarket("SHOP", 10, false, dec("100"))
	placed, err := b.MarketSell(ctx, o)
	require.NoError(t, err)

	require.NoError(t, b.UpdateOrder(ctx, placed.BrokerRefID, dec("100")))
	require.Equal(t, order.StatusFilled, placed.Status)
	require.True(t, placed.FilledPrice.LessThan(dec("100")), "sell fills below ref price (bid side)")
}

func TestLimitSellFillsOutrightWhenRefPriceClearsLimit(t *testing.T) {
	ctx := context.Background()
	b := newBroker(3)
	b.pos.Open(10, dec("90"))

	o := order.NewLimit("SHOP", 10, false, dec("100"), dec("105"))
	placed, err := b.LimitSell(ctx, o)
	require.NoError(t, err)

	require.NoError(t, b.UpdateOrder(ctx, placed.BrokerRefID, dec("106")))
	require.Equal(t, order.StatusFilled, placed.Status)
	require.True(t, placed.FilledPrice.Equal(dec("105")))
}

func TestLimitSellDoesNotFillBelowLimit(t *testing.T) {
	ctx := context.Background()
	b := newBroker(4)
	b.pos.Open(10, dec("90"))

	o := order.NewLimit("SHOP", 10, false, dec("100"), dec("105"))
	placed, err := b.LimitSell(ctx, o)
	require.NoError(t, err)

	require.NoError(t, b.UpdateOrder(ctx, placed.BrokerRefID, dec("104")))
	require.Equal(t, order.StatusSubmitted, placed.Status, "still pending, ref price has not reached the limit")
}

func TestStopLossTriggersAndFillsAsMarket(t *testing.T) {
	ctx := context.Background()
	b := newBroker(5)
	b.pos.Open(10, dec("100"))

	o := order.NewStop("SHOP", 10, false, dec("100"), dec("95"))
	placed, err := b.StopLoss(ctx, o)
	require.NoError(t, err)

	require.NoError(t, b.UpdateOrder(ctx, placed.BrokerRefID, dec("94")))
	require.Equal(t, order.StatusFilled, placed.Status)

	pos, err := b.GetPosition(ctx, false)
	require.NoError(t, err)
	require.EqualValues(t, 0, pos.Size)
}

func TestStopLossDoesNotTriggerAboveStopPrice(t *testing.T) {
	ctx := context.Background()
	b := newBroker(6)
	b.pos.Open(10, dec("100"))

	o := order.NewStop("SHOP", 10, false, dec("100"), dec("95"))
	placed, err := b.StopLoss(ctx, o)
	require.NoError(t, err)

	require.NoError(t, b.UpdateOrder(ctx, placed.BrokerRefID, dec("96")))
	require.Equal(t, order.StatusSubmitted, placed.Status)
}

func TestCancelOrderSettlesImmediately(t *testing.T) {
	ctx := context.Background()
	b := newBroker(7)

	o := order.NewMarket("SHOP", 5, true, dec("100"))
	placed, err := b.MarketBuy(ctx, o)
	require.NoError(t, err)

	require.NoError(t, b.CancelOrder(ctx, placed.BrokerRefID))
	require.Equal(t, order.StatusCanceled, placed.Status)
	require.Len(t, b.regs.PendingRegulars(), 0)
}

func TestOrderTypeMismatchRejected(t *testing.T) {
	ctx := context.Background()
	b := newBroker(8)

	o := order.NewLimit("SHOP", 5, true, dec("100"), dec("99"))
	_, err := b.MarketBuy(ctx, o)
	require.Error(t, err)
}

func TestUnmatchedSymbolRejected(t *testing.T) {
	ctx := context.Background()
	b := newBroker(9)

	o := order.NewMarket("OTHER", 5, true, dec("100"))
	_, err := b.MarketBuy(ctx, o)
	require.Error(t, err)
}

func TestLimitFillFrequencyAtBoundaryPrice(t *testing.T) {
	rnd := clock.NewRandSource(99)
	const trials = 5000

	filled := 0
	for i := 0; i < trials; i++ {
		ok, _ := decideIfLimitFilled(dec("105"), dec("105"), false, 0.85, rnd)
		if ok {
			filled++
		}
	}
	freq := float64(filled) / float64(trials)
	require.InDelta(t, 0.85, freq, 0.03, "boundary-price sell limit should fill at about the configured rate")
}

func TestUpdatePendingOrdersReconcilesAll(t *testing.T) {
	ctx := context.Background()
	b := newBroker(10)
	b.pos.Open(20, dec("90"))

	sell := order.NewLimit("SHOP", 10, false, dec("100"), dec("105"))
	placedSell, err := b.LimitSell(ctx, sell)
	require.NoError(t, err)

	stop := order.NewStop("SHOP", 10, false, dec("100"), dec("95"))
	placedStop, err := b.StopLoss(ctx, stop)
	require.NoError(t, err)

	require.NoError(t, b.UpdatePendingOrders(ctx, dec("106")))
	require.Equal(t, order.StatusFilled, placedSell.Status)
	require.Equal(t, order.StatusSubmitted, placedStop.Status, "95 not yet reached: 106 is above the stop trigger")
}
