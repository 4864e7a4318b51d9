package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestSizerBySize(t *testing.T) {
	s := Sizer{Mode: BySize, FixedSize: 7}
	require.EqualValues(t, 7, s.Resolve(dec("123.45")))
}

func TestSizerByAmountFloors(t *testing.T) {
	s := Sizer{Mode: ByAmount, Amount: dec("1000"), BuyPowerRatio: dec("0.5")}
	// floor(1000 * 0.5 / 99) = floor(5.05...) = 5
	require.EqualValues(t, 5, s.Resolve(dec("99")))
}

func TestSizerByAmountZeroRefPrice(t *testing.T) {
	s := Sizer{Mode: ByAmount, Amount: dec("1000"), BuyPowerRatio: dec("1")}
	require.EqualValues(t, 0, s.Resolve(decimal.Zero))
}
