package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAlwaysOpenIsOpenNow(t *testing.T) {
	a := AlwaysOpen{IntervalSeconds: 60}
	require.True(t, a.IsOpenNow())
}

func TestAlwaysOpenSecondsToNextBar(t *testing.T) {
	fixed := time.Date(2026, 7, 29, 10, 0, 30, 0, time.UTC)
	a := AlwaysOpen{IntervalSeconds: 60, Clock: func() time.Time { return fixed }}
	require.Equal(t, 30, a.SecondsToNextBar())
	require.Equal(t, fixed.Unix()-30, a.BarZeroTimestamp())
}

func TestFixedSessionIsOpenNow(t *testing.T) {
	loc := time.UTC
	open := time.Date(2026, 7, 29, 10, 0, 0, 0, loc)
	f := FixedSession{
		Location: loc, OpenHour: 9, OpenMinute: 30, CloseHour: 16, CloseMinute: 0,
		IntervalSeconds: 60, Clock: func() time.Time { return open },
	}
	require.True(t, f.IsOpenNow())

	before := time.Date(2026, 7, 29, 9, 0, 0, 0, loc)
	f.Clock = func() time.Time { return before }
	require.False(t, f.IsOpenNow())

	after := time.Date(2026, 7, 29, 16, 30, 0, 0, loc)
	f.Clock = func() time.Time { return after }
	require.False(t, f.IsOpenNow())
}

func TestFixedSessionBounds(t *testing.T) {
	loc := time.UTC
	ref := time.Date(2026, 7, 29, 12, 0, 0, 0, loc)
	f := FixedSession{
		Location: loc, OpenHour: 9, OpenMinute: 30, CloseHour: 16, CloseMinute: 0,
		IntervalSeconds: 300, Clock: func() time.Time { return ref },
	}
	require.Equal(t, 9, f.ExchangeOpen().Hour())
	require.Equal(t, 30, f.ExchangeOpen().Minute())
	require.Equal(t, 16, f.ExchangeClose().Hour())
}
