package trade

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/autotrader/internal/barfeed"
	"github.com/chidi150c/autotrader/internal/broker"
	brokerback "github.com/chidi150c/autotrader/internal/broker/backtest"
	"github.com/chidi150c/autotrader/internal/clock"
	"github.com/chidi150c/autotrader/internal/market"
	"github.com/chidi150c/autotrader/internal/order"
	"github.com/chidi150c/autotrader/internal/position"
	"github.com/chidi150c/autotrader/internal/stopprice"
	"github.com/chidi150c/autotrader/internal/strategy"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func closeBars(symbol string, closes ...string) []barfeed.Bar {
	bars := make([]barfeed.Bar, len(closes))
	for i, c := range closes {
		bars[i] = barfeed.Bar{
			Timestamp: int64(i) * 60,
			Datetime:  time.Unix(int64(i)*60, 0).UTC(),
			Open:      dec(c), High: dec(c), Low: dec(c), Close: dec(c),
			Volume: 100, Symbol: symbol,
		}
	}
	return bars
}

// buyFirstSellLast buys size=10 market on the first bar and sells on the
// last bar.
type buyFirstSellLast struct {
	lastIdx int
	seen    int
}

func (s *buyFirstSellLast) Prepare(strategy.TradeContext)  {}
func (s *buyFirstSellLast) PrintBar(strategy.TradeContext) {}

func (s *buyFirstSellLast) Next(ctx context.Context, tc strategy.TradeContext) {
	bar, ok := tc.CurrentBar()
	if !ok {
		return
	}
	pos := tc.Position()
	if s.seen == 0 && pos.Size == 0 {
		_ = tc.Buy(ctx, false, bar.Close, decimal.Zero)
	}
	if s.seen == s.lastIdx && pos.Size > 0 {
		_ = tc.Sell(ctx, false, bar.Close, decimal.Zero)
	}
	s.seen++
}

func newBacktestTrade(t *testing.T, strat strategy.Strategy, bars []barfeed.Bar, repsLimit int) (*Trade, *brokerback.Broker) {
	t.Helper()

	c := clock.NewBacktest(time.Unix(0, 0).UTC())
	rnd := clock.NewRandSource(42)
	commission := broker.Commission{Fixed: true, Amount: decimal.Zero}
	brk := brokerback.New(c, rnd, commission, brokerback.DefaultSpreadConfig(), brokerback.DefaultFillPossibility())

	oracle := market.AlwaysOpen{IntervalSeconds: 60}
	feed := barfeed.New(oracle, 0)
	feed.Update(bars)

	sp, err := stopprice.New(stopprice.Config{
		TrailByPercent: true, TrailPercent: dec("0.01"),
		AnchorIncreaseByPercent: true, AnchorIncreasePercent: dec("0.005"),
		GapByPercent: true, GapPercent: decimal.Zero,
	})
	require.NoError(t, err)

	tr, err := New(Config{
		Codename: "test", Symbol: "SHOP", Currency: "USD", Exchange: "NASDAQ",
		RepsLimit: repsLimit, IntervalOption: "1m", CandleCount: len(bars), DurationType: DurationDay,
		Broker: brk, Strategy: strat,
		Sizer:      strategy.Sizer{Mode: strategy.BySize, FixedSize: 10},
		StopPricer: sp,
		GainLoss:   position.NewGainLossTracker(),
		Bars:       feed,
		Oracle:     oracle,
		Clock:      c,
	})
	require.NoError(t, err)
	require.NoError(t, tr.Initialize(context.Background()))
	return tr, brk
}

func TestBacktestSingleRepsBuySell(t *testing.T) {
	strat := &buyFirstSellLast{lastIdx: 2}
	tr, _ := newBacktestTrade(t, strat, closeBars("SHOP", "100", "101", "102"), 1)

	require.NoError(t, tr.Execute(context.Background()))

	require.Equal(t, 1, tr.BuyCount())
	require.Equal(t, 1, tr.SellCount())
	require.Equal(t, StatusClosed, tr.Status)
	require.True(t, tr.GainLoss().RealizedGainLoss().GreaterThan(decimal.Zero),
		"realized P&L should be positive: bought near 100, sold near 102")
	require.EqualValues(t, 0, tr.Position().Size)
}

// noopStrategy never emits an intent; used to isolate Execute's
// reconciliation/invariant behavior from decision logic.
type noopStrategy struct{}

func (noopStrategy) Prepare(strategy.TradeContext)              {}
func (noopStrategy) PrintBar(strategy.TradeContext)             {}
func (noopStrategy) Next(context.Context, strategy.TradeContext) {}

func TestMultiplePendingRegularIsFatal(t *testing.T) {
	tr, brk := newBacktestTrade(t, noopStrategy{}, closeBars("SHOP", "100", "101"), 5)

	ctx := context.Background()
	o1 := order.NewMarket("SHOP", 1, true, dec("100"))
	_, err := brk.MarketBuy(ctx, o1)
	require.NoError(t, err)
	o2 := order.NewMarket("SHOP", 1, true, dec("100"))
	_, err = brk.MarketBuy(ctx, o2)
	require.NoError(t, err)

	tr.pendingRegular = o1

	err = tr.Execute(ctx)
	require.Error(t, err)
	require.Equal(t, StatusClosed, tr.Status)
}

func TestStopFillResetsTrailingAndCountsAsSale(t *testing.T) {
	ctx := context.Background()
	tr, brk := newBacktestTrade(t, noopStrategy{}, closeBars("SHOP", "100", "94"), 5)

	pos, err := brk.GetPosition(ctx, false)
	require.NoError(t, err)
	pos.Open(10, dec("100"))
	tr.refreshPosition(ctx)

	require.NoError(t, tr.StopLoss(ctx, false, dec("95"), decimal.Zero))
	require.NotNil(t, tr.pendingStop)

	tr.cursor = 1 // advance to the bar whose close (94) triggers the stop
	require.NoError(t, tr.postNext(ctx))

	require.Equal(t, 1, tr.SellCount())
	require.Nil(t, tr.pendingStop)
	require.True(t, tr.stopPricer.LatestStopPrice().IsZero(), "reset_trailing zeroes the anchors")
}
