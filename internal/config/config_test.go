package config

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for k := range needed {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "BTC-USD", c.Symbol)
	require.Equal(t, "USD", c.Currency)
	require.Equal(t, "1m", c.IntervalOption)
	require.EqualValues(t, 1, c.Sizer.FixedSize)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Setenv("INTERVAL_OPTION", "3m"))
	defer os.Unsetenv("INTERVAL_OPTION")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAmountSizer(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Setenv("SIZER_MODE", "amount"))
	require.NoError(t, os.Setenv("SIZER_AMOUNT", "500"))
	defer os.Unsetenv("SIZER_MODE")
	defer os.Unsetenv("SIZER_AMOUNT")

	c, err := Load()
	require.NoError(t, err)
	require.True(t, c.Sizer.Amount.Equal(decimal.NewFromFloat(500)))
}
