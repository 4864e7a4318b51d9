package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/autotrader/internal/order"
)

func newSidecar(t *testing.T, orderStatus string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ticker/SHOP", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"ticker_id": "SHOP-USD"})
	})
	mux.HandleFunc("/order/market", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"broker_ref_id": "ref-1", "status": "submitted"})
	})
	mux.HandleFunc("/order/ref-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": orderStatus, "filled_price": "101.50", "tx_value": "1015.00", "commission": "1.00",
		})
	})
	mux.HandleFunc("/order/ref-1/cancel", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/position/SHOP", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"size": 10, "average_buy_price": "100.00"})
	})
	return httptest.NewServer(mux)
}

func TestInitializeResolvesTickerID(t *testing.T) {
	srv := newSidecar(t, "posted")
	defer srv.Close()

	b := New(srv.URL, "test")
	require.NoError(t, b.Initialize(context.Background(), "SHOP", "USD"))
	require.Equal(t, "SHOP-USD", b.tickerID)
}

func TestMarketBuyThenUpdateOrderFillsOnPostedStatus(t *testing.T) {
	srv := newSidecar(t, "posted")
	defer srv.Close()

	ctx := context.Background()
	b := New(srv.URL, "test")
	require.NoError(t, b.Initialize(ctx, "SHOP", "USD"))

	o := order.NewMarket("SHOP", 10, true, decimal.NewFromInt(100))
	placed, err := b.MarketBuy(ctx, o)
	require.NoError(t, err)
	require.Equal(t, "ref-1", placed.BrokerRefID)
	require.Equal(t, order.StatusSubmitted, placed.Status)

	require.NoError(t, b.UpdateOrder(ctx, "ref-1", decimal.Zero))
	require.Equal(t, order.StatusFilled, placed.Status)
	require.True(t, placed.FilledPrice.Equal(decimal.RequireFromString("101.50")))
	require.Len(t, b.regs.PendingRegulars(), 0)
}

func TestUpdateOrderLeavesNonTerminalStatusPending(t *testing.T) {
	srv := newSidecar(t, "new")
	defer srv.Close()

	ctx := context.Background()
	b := New(srv.URL, "test")
	require.NoError(t, b.Initialize(ctx, "SHOP", "USD"))

	o := order.NewMarket("SHOP", 10, true, decimal.NewFromInt(100))
	placed, err := b.MarketBuy(ctx, o)
	require.NoError(t, err)

	require.NoError(t, b.UpdateOrder(ctx, placed.BrokerRefID, decimal.Zero))
	require.Equal(t, order.StatusNew, placed.Status)
	require.Len(t, b.regs.PendingRegulars(), 1, "still pending, not yet terminal")
}

func TestGetPositionReflectsSidecar(t *testing.T) {
	srv := newSidecar(t, "posted")
	defer srv.Close()

	ctx := context.Background()
	b := New(srv.URL, "test")
	require.NoError(t, b.Initialize(ctx, "SHOP", "USD"))

	pos, err := b.GetPosition(ctx, true)
	require.NoError(t, err)
	require.EqualValues(t, 10, pos.Size)
	require.True(t, pos.AverageBuyPrice.Equal(decimal.RequireFromString("100.00")))
}

func TestCancelOrderPendingUntilConfirmed(t *testing.T) {
	srv := newSidecar(t, "cancelled")
	defer srv.Close()

	ctx := context.Background()
	b := New(srv.URL, "test")
	require.NoError(t, b.Initialize(ctx, "SHOP", "USD"))

	o := order.NewMarket("SHOP", 10, true, decimal.NewFromInt(100))
	placed, err := b.MarketBuy(ctx, o)
	require.NoError(t, err)

	require.NoError(t, b.CancelOrder(ctx, placed.BrokerRefID))
	require.Equal(t, order.StatusPending, placed.Status, "cancel is not terminal until the broker confirms")
	require.Len(t, b.regs.PendingRegulars(), 1)

	require.NoError(t, b.UpdateOrder(ctx, placed.BrokerRefID, decimal.Zero))
	require.Equal(t, order.StatusCanceled, placed.Status)
	require.Len(t, b.regs.PendingRegulars(), 0)
}

func TestGetPendingOrdersFiltersBySide(t *testing.T) {
	srv := newSidecar(t, "new")
	defer srv.Close()

	ctx := context.Background()
	b := New(srv.URL, "test")
	require.NoError(t, b.Initialize(ctx, "SHOP", "USD"))

	_, err := b.MarketBuy(ctx, order.NewMarket("SHOP", 10, true, decimal.NewFromInt(100)))
	require.NoError(t, err)

	buy := true
	sell := false
	require.Len(t, b.GetPendingOrders(nil), 1)
	require.Len(t, b.GetPendingOrders(&buy), 1)
	require.Len(t, b.GetPendingOrders(&sell), 0)
}

func TestCancelOrderUnknownIDErrors(t *testing.T) {
	srv := newSidecar(t, "posted")
	defer srv.Close()

	ctx := context.Background()
	b := New(srv.URL, "test")
	require.NoError(t, b.Initialize(ctx, "SHOP", "USD"))

	err := b.CancelOrder(ctx, "nope")
	require.Error(t, err)
}
