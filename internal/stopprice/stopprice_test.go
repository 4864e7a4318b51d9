package stopprice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newSellPricer(t *testing.T) *StopPricer {
	t.Helper()
	p, err := New(Config{
		IsBuy:                   false,
		TrailByPercent:          true,
		TrailPercent:            dec("0.01"),
		AnchorIncreaseByPercent: true,
		AnchorIncreasePercent:   dec("0.005"),
	})
	require.NoError(t, err)
	return p
}

// TestTrailingTighteningScenario walks a 1% trail with a 0.5% anchor
// increment through a rising, chopping price path.
func TestTrailingTighteningScenario(t *testing.T) {
	p := newSellPricer(t)

	stop, limit, ok := p.GetStopLimitPrices(dec("100"), false)
	require.True(t, ok)
	require.True(t, stop.Equal(dec("99.00")), "got %s", stop)
	require.True(t, limit.Equal(dec("99.00")), "got %s", limit)

	p.SetTrailing(dec("100"), dec("99"))

	_, _, ok = p.GetStopLimitPrices(dec("100.4"), true)
	require.False(t, ok, "100.4 should not clear the anchor increment")

	stop, _, ok = p.GetStopLimitPrices(dec("100.5"), true)
	require.True(t, ok)
	require.True(t, stop.Equal(dec("99.495")), "got %s", stop)

	_, _, ok = p.GetStopLimitPrices(dec("100.2"), true)
	require.False(t, ok)

	stop, _, ok = p.GetStopLimitPrices(dec("101.0"), true)
	require.True(t, ok)
	require.True(t, stop.Equal(dec("99.99")), "got %s", stop)
}

func TestMonotonicTighteningInvariant(t *testing.T) {
	p := newSellPricer(t)
	p.SetTrailing(dec("100"), dec("99"))

	prevStop := p.LatestStopPrice()
	for _, ref := range []string{"100.5", "101.0", "102.0", "103.0"} {
		stop, _, ok := p.GetStopLimitPrices(dec(ref), true)
		if ok {
			require.True(t, stop.GreaterThan(prevStop), "new stop %s must exceed old %s", stop, prevStop)
			prevStop = stop
		}
	}
}

func TestMutuallyExclusiveKnobsRejected(t *testing.T) {
	_, err := New(Config{
		TrailByPercent: true,
		TrailPercent:   dec("0.01"),
		TrailAmount:    dec("1.00"),
	})
	require.Error(t, err)
}

func TestResetTrailingZeroesAnchors(t *testing.T) {
	p := newSellPricer(t)
	p.SetTrailing(dec("100"), dec("99"))
	p.ResetTrailing()

	require.True(t, p.LatestRefPrice().IsZero())
	require.True(t, p.LatestStopPrice().IsZero())
}
