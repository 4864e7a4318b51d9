package barfeed

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/autotrader/internal/market"
)

func mkBar(ts int64, close string) Bar {
	c, _ := decimal.NewFromString(close)
	return Bar{Timestamp: ts, Close: c, Symbol: "SHOP"}
}

func TestUpdateDedupsByTimestampAndIsIdempotent(t *testing.T) {
	f := New(market.AlwaysOpen{IntervalSeconds: 60}, 0)
	f.Update([]Bar{mkBar(1, "100"), mkBar(2, "101"), mkBar(3, "102")})
	require.Equal(t, 3, f.ValidBarCount())

	f.Update([]Bar{mkBar(1, "100"), mkBar(2, "101"), mkBar(3, "102")})
	require.Equal(t, 3, f.ValidBarCount(), "re-applying the same frame must not grow it")

	last, ok := f.LastValidBar()
	require.True(t, ok)
	require.EqualValues(t, 3, last.Timestamp)
}

func TestBarsAtDequeOrdering(t *testing.T) {
	f := New(market.AlwaysOpen{IntervalSeconds: 60}, 0)
	f.Update([]Bar{mkBar(1, "100"), mkBar(2, "101"), mkBar(3, "102")})

	bars := f.BarsAt(2)
	require.Len(t, bars, 3)
	require.EqualValues(t, 3, bars[0].Timestamp, "bars[0] is now")
	require.EqualValues(t, 1, bars[len(bars)-1].Timestamp, "bars[-1] is most distant retained")
}
