package broker

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/autotrader/internal/order"
	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestCommissionFixed(t *testing.T) {
	c := Commission{Fixed: true, Amount: dec("1.50")}
	require.True(t, c.Compute(dec("10000")).Equal(dec("1.50")))
}

func TestCommissionPercentWithFloorAndCeiling(t *testing.T) {
	c := Commission{Percent: dec("0.001"), Floor: dec("1.00"), Ceiling: dec("10.00")}

	require.True(t, c.Compute(dec("100")).Equal(dec("1.00")), "clamped to floor")
	require.True(t, c.Compute(dec("50000")).Equal(dec("10.00")), "clamped to ceiling")
	require.True(t, c.Compute(dec("5000")).Equal(dec("5.00")), "unclamped percent")
}

func TestRegistersEveryOrderInExactlyOneRegister(t *testing.T) {
	r := NewRegisters()
	o := order.NewMarket("SHOP", 10, true, dec("100"))
	o.BrokerRefID = "abc"
	o.Status = order.StatusSubmitted

	require.NoError(t, r.InsertPendingRegular(o))
	_, _, ok := r.Get("abc")
	require.True(t, ok)

	pending := r.PendingRegulars()
	require.Len(t, pending, 1)

	require.NoError(t, r.Settle("abc"))
	pending = r.PendingRegulars()
	require.Len(t, pending, 0)
}

func TestSettleUnknownIDErrors(t *testing.T) {
	r := NewRegisters()
	err := r.Settle("nope")
	require.Error(t, err)
}

func TestInsertDuplicateKeyErrors(t *testing.T) {
	r := NewRegisters()
	o := order.NewMarket("SHOP", 10, true, dec("100"))
	o.BrokerRefID = "abc"
	require.NoError(t, r.InsertPendingRegular(o))

	err := r.InsertPendingRegular(o)
	var dup *tradeerrors.OrderAlreadyRegistered
	require.ErrorAs(t, err, &dup)
	require.False(t, dup.Settled)
	require.Equal(t, "abc", dup.BrokerRefID)
}

func TestInsertSettledOrderErrors(t *testing.T) {
	r := NewRegisters()
	o := order.NewMarket("SHOP", 10, true, dec("100"))
	o.BrokerRefID = "abc"
	o.Status = order.StatusFilled

	err := r.InsertPendingRegular(o)
	var dup *tradeerrors.OrderAlreadyRegistered
	require.True(t, errors.As(err, &dup))
	require.True(t, dup.Settled)
}
