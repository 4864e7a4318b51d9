package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestStopIsPossiblyTriggered(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		isBuy  bool
		stop   string
		ref    string
		expect bool
	}{
		{"sell stop triggers when ref <= stop", false, "95.00", "94.99", true},
		{"sell stop does not trigger above stop", false, "95.00", "95.01", false},
		{"sell stop triggers exactly at stop", false, "95.00", "95.00", true},
		{"buy stop triggers when ref >= stop", true, "100.00", "100.01", true},
		{"buy stop does not trigger below stop", true, "100.00", "99.99", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStop("SHOP", 10, tt.isBuy, dec(tt.ref), dec(tt.stop))
			require.Equal(t, tt.expect, s.IsPossiblyTriggered(dec(tt.ref)))
		})
	}
}

func TestStopPriceValueNeverReturnsLimitPrice(t *testing.T) {
	t.Parallel()

	s := NewStopLimit("SHOP", 10, true, dec("1990.99"), dec("1990.50"), dec("1991.00"))
	require.True(t, s.StopPriceValue().Equal(dec("1990.50")))
	require.False(t, s.StopPriceValue().Equal(s.LimitPrice))
}

func TestBrokerRefMissingBeforeSubmission(t *testing.T) {
	t.Parallel()

	r := NewMarket("SHOP", 10, true, dec("100.00"))
	_, err := r.BrokerRef()
	require.Error(t, err)

	r.BrokerRefID = "abc123"
	ref, err := r.BrokerRef()
	require.NoError(t, err)
	require.Equal(t, "abc123", ref)
}

func TestTerminalAndDeactivatedStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status      Status
		terminal    bool
		deactivated bool
	}{
		{StatusCreated, false, false},
		{StatusSubmitted, false, false},
		{StatusPartiallyFilled, false, false},
		{StatusFilled, true, false},
		{StatusCanceled, true, true},
		{StatusRejected, true, true},
		{StatusExpired, true, true},
	}

	for _, c := range cases {
		b := Base{Status: c.status}
		require.Equal(t, c.terminal, b.IsTerminal(), "status=%s", c.status)
		require.Equal(t, c.deactivated, b.IsDeactivated(), "status=%s", c.status)
	}
}
