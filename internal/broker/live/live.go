// FILE: live.go
// Package live – the live-exchange variant of the Broker Engine: an HTTP
// sidecar adapter. Every call goes through a circuit breaker, so a flaky
// sidecar degrades to an OrderPlacingError instead of hanging the Trade
// Driver's single-threaded loop.
package live

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	"github.com/chidi150c/autotrader/internal/broker"
	"github.com/chidi150c/autotrader/internal/order"
	"github.com/chidi150c/autotrader/internal/position"
	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

// nativeStatus translates the sidecar's native order status vocabulary into
// the order.Status taxonomy.
var nativeStatus = map[string]order.Status{
	"submitted":  order.StatusSubmitted,
	"posted":     order.StatusFilled,
	"cancelled":  order.StatusCanceled,
	"expired":    order.StatusExpired,
	"new":        order.StatusNew,
	"cancelling": order.StatusPending,
}

func translateStatus(native string) order.Status {
	if s, ok := nativeStatus[strings.ToLower(native)]; ok {
		return s
	}
	return order.StatusOther
}

// Broker is the live variant, talking to a local HTTP sidecar that fronts
// the real exchange.
type Broker struct {
	base string
	hc   *resty.Client
	cb   *gobreaker.CircuitBreaker[*resty.Response]

	symbol   string
	tickerID string
	currency string

	regs *broker.Registers
}

// New returns a live Broker pointed at baseURL (a local sidecar), circuit
// breaking per name.
func New(baseURL, name string) *Broker {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = "http://127.0.0.1:8787"
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && (counts.ConsecutiveFailures >= 5 || failureRatio >= 0.6)
		},
	}
	return &Broker{
		base: base,
		hc:   resty.New().SetTimeout(15 * time.Second).SetHeader("User-Agent", "autotrader/live"),
		cb:   gobreaker.NewCircuitBreaker[*resty.Response](settings),
		regs: broker.NewRegisters(),
	}
}

func (b *Broker) do(ctx context.Context, req *resty.Request, method, url string) (*resty.Response, error) {
	res, err := b.cb.Execute(func() (*resty.Response, error) {
		r, err := req.SetContext(ctx).Execute(method, url)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("sidecar %s %s: %d %s", method, url, r.StatusCode(), r.String())
		}
		return r, nil
	})
	if err != nil {
		return nil, &tradeerrors.OrderPlacingError{Symbol: b.symbol, Cause: err}
	}
	return res, nil
}

// Initialize resolves the sidecar's ticker_id for symbol.
func (b *Broker) Initialize(ctx context.Context, symbol, currency string) error {
	b.symbol = symbol
	b.currency = currency

	var out struct {
		TickerID string `json:"ticker_id"`
	}
	res, err := b.do(ctx, b.hc.R().SetResult(&out), "GET", fmt.Sprintf("%s/ticker/%s", b.base, symbol))
	if err != nil {
		return err
	}
	_ = res
	if out.TickerID == "" {
		return &tradeerrors.TickerIDNotFound{Symbol: symbol}
	}
	b.tickerID = out.TickerID
	return nil
}

type placeResponse struct {
	BrokerRefID string `json:"broker_ref_id"`
	Status      string `json:"status"`
}

func (b *Broker) place(ctx context.Context, path string, body map[string]any) (*placeResponse, error) {
	var out placeResponse
	_, err := b.do(ctx, b.hc.R().SetBody(body).SetResult(&out), "POST", b.base+path)
	if err != nil {
		return nil, err
	}
	if out.BrokerRefID == "" {
		return nil, &tradeerrors.OrderPlacingError{Symbol: b.symbol, Cause: fmt.Errorf("sidecar returned no broker_ref_id")}
	}
	return &out, nil
}

func (b *Broker) submitRegular(ctx context.Context, o *order.Regular, path string, body map[string]any) (*order.Regular, error) {
	if o.Symbol != "" && o.Symbol != b.symbol {
		return nil, &tradeerrors.UnmatchedTickerError{OrderSymbol: o.Symbol, BrokerSymbol: b.symbol}
	}
	resp, err := b.place(ctx, path, body)
	if err != nil {
		return nil, err
	}
	o.BrokerRefID = resp.BrokerRefID
	o.TickerID = b.tickerID
	o.CreatedAt = time.Now().UTC()
	o.Status = translateStatus(resp.Status)
	if err := b.regs.InsertPendingRegular(o); err != nil {
		return nil, err
	}
	return o, nil
}

func sideBody(symbol string, size int64, limitPrice *decimal.Decimal) map[string]any {
	body := map[string]any{"symbol": symbol, "size": size}
	if limitPrice != nil {
		body["limit_price"] = limitPrice.String()
	}
	return body
}

// MarketBuy places a live market buy through the sidecar.
func (b *Broker) MarketBuy(ctx context.Context, o *order.Regular) (*order.Regular, error) {
	o.IsBuy = true
	body := sideBody(o.Symbol, o.Size, nil)
	body["side"] = "BUY"
	return b.submitRegular(ctx, o, "/order/market", body)
}

// MarketSell places a live market sell through the sidecar.
func (b *Broker) MarketSell(ctx context.Context, o *order.Regular) (*order.Regular, error) {
	o.IsBuy = false
	body := sideBody(o.Symbol, o.Size, nil)
	body["side"] = "SELL"
	return b.submitRegular(ctx, o, "/order/market", body)
}

// LimitBuy places a live limit buy through the sidecar.
func (b *Broker) LimitBuy(ctx context.Context, o *order.Regular) (*order.Regular, error) {
	o.IsBuy = true
	body := sideBody(o.Symbol, o.Size, &o.LimitPrice)
	body["side"] = "BUY"
	return b.submitRegular(ctx, o, "/order/limit", body)
}

// LimitSell places a live limit sell through the sidecar.
func (b *Broker) LimitSell(ctx context.Context, o *order.Regular) (*order.Regular, error) {
	o.IsBuy = false
	body := sideBody(o.Symbol, o.Size, &o.LimitPrice)
	body["side"] = "SELL"
	return b.submitRegular(ctx, o, "/order/limit", body)
}

func (b *Broker) submitStop(ctx context.Context, o *order.Stop, path string, body map[string]any) (*order.Stop, error) {
	if o.Symbol != "" && o.Symbol != b.symbol {
		return nil, &tradeerrors.UnmatchedTickerError{OrderSymbol: o.Symbol, BrokerSymbol: b.symbol}
	}
	resp, err := b.place(ctx, path, body)
	if err != nil {
		return nil, err
	}
	o.BrokerRefID = resp.BrokerRefID
	o.TickerID = b.tickerID
	o.CreatedAt = time.Now().UTC()
	o.Status = translateStatus(resp.Status)
	if err := b.regs.InsertPendingStop(o); err != nil {
		return nil, err
	}
	return o, nil
}

// StopLimitBuy places a live buy stop-limit through the sidecar.
func (b *Broker) StopLimitBuy(ctx context.Context, o *order.Stop) (*order.Stop, error) {
	o.IsBuy = true
	body := sideBody(o.Symbol, o.Size, &o.LimitPrice)
	body["side"] = "BUY"
	body["stop_price"] = o.StopPrice.String()
	return b.submitStop(ctx, o, "/order/stop_limit", body)
}

// StopLimitSell places a live sell stop-limit through the sidecar.
func (b *Broker) StopLimitSell(ctx context.Context, o *order.Stop) (*order.Stop, error) {
	o.IsBuy = false
	body := sideBody(o.Symbol, o.Size, &o.LimitPrice)
	body["side"] = "SELL"
	body["stop_price"] = o.StopPrice.String()
	return b.submitStop(ctx, o, "/order/stop_limit", body)
}

// StopLoss places a live sell stop order.
func (b *Broker) StopLoss(ctx context.Context, o *order.Stop) (*order.Stop, error) {
	o.IsBuy = false
	body := sideBody(o.Symbol, o.Size, nil)
	body["side"] = "SELL"
	body["stop_price"] = o.StopPrice.String()
	return b.submitStop(ctx, o, "/order/stop", body)
}

// TakeProfit places a live sell stop order used as a take-profit trigger.
func (b *Broker) TakeProfit(ctx context.Context, o *order.Stop) (*order.Stop, error) {
	o.IsBuy = false
	body := sideBody(o.Symbol, o.Size, nil)
	body["side"] = "SELL"
	body["stop_price"] = o.StopPrice.String()
	return b.submitStop(ctx, o, "/order/stop", body)
}

// CancelOrder requests cancellation. The order moves to Pending until the
// next UpdateOrder poll confirms the terminal status.
func (b *Broker) CancelOrder(ctx context.Context, brokerRefID string) error {
	reg, stp, ok := b.regs.Get(brokerRefID)
	if !ok {
		return &tradeerrors.PendingOrderNotInPendingList{BrokerRefID: brokerRefID}
	}
	if _, err := b.do(ctx, b.hc.R(), "POST", fmt.Sprintf("%s/order/%s/cancel", b.base, brokerRefID)); err != nil {
		return err
	}
	if reg != nil && !reg.IsTerminal() {
		reg.Status = order.StatusPending
	}
	if stp != nil && !stp.IsTerminal() {
		stp.Status = order.StatusPending
	}
	return nil
}

type statusResponse struct {
	Status      string `json:"status"`
	FilledPrice string `json:"filled_price"`
	FillQty     int64  `json:"filled_size"`
	TxValue     string `json:"tx_value"`
	Commission  string `json:"commission"`
}

func parseDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// UpdateOrder polls the sidecar for one order's current status and, when it
// has become filled, records the fill fields on the order. It does not touch
// a Position: GetPosition reads the position from the sidecar.
func (b *Broker) UpdateOrder(ctx context.Context, brokerRefID string, _ decimal.Decimal) error {
	reg, stp, ok := b.regs.Get(brokerRefID)
	if !ok {
		return &tradeerrors.PendingOrderNotInPendingList{BrokerRefID: brokerRefID}
	}

	var out statusResponse
	if _, err := b.do(ctx, b.hc.R().SetResult(&out), "GET", fmt.Sprintf("%s/order/%s", b.base, brokerRefID)); err != nil {
		return err
	}
	status := translateStatus(out.Status)

	switch {
	case reg != nil:
		reg.Status = status
		if status == order.StatusFilled {
			reg.FilledPrice = parseDec(out.FilledPrice)
			reg.FillQuantity = out.FillQty
			reg.TxValue = parseDec(out.TxValue)
			reg.Commission = parseDec(out.Commission)
			reg.FilledAt = time.Now().UTC()
		}
		if reg.IsTerminal() {
			reg.IsSettled = true
			return b.regs.Settle(brokerRefID)
		}
	case stp != nil:
		stp.Status = status
		if status == order.StatusFilled {
			stp.FilledPrice = parseDec(out.FilledPrice)
			stp.FillQuantity = out.FillQty
			stp.TxValue = parseDec(out.TxValue)
			stp.Commission = parseDec(out.Commission)
			stp.FilledAt = time.Now().UTC()
		}
		if stp.IsTerminal() {
			stp.IsSettled = true
			return b.regs.Settle(brokerRefID)
		}
	}
	return nil
}

// UpdatePendingOrders polls every pending order in turn.
func (b *Broker) UpdatePendingOrders(ctx context.Context, refPrice decimal.Decimal) error {
	for _, reg := range b.regs.PendingRegulars() {
		if err := b.UpdateOrder(ctx, reg.BrokerRefID, refPrice); err != nil {
			return err
		}
	}
	for _, stp := range b.regs.PendingStops() {
		if err := b.UpdateOrder(ctx, stp.BrokerRefID, refPrice); err != nil {
			return err
		}
	}
	return nil
}

// GetPosition returns the sidecar's live position. isLivePosition is
// ignored: the sidecar is queried either way, and the parameter exists only
// for interface symmetry with the backtest variant.
func (b *Broker) GetPosition(ctx context.Context, isLivePosition bool) (*position.Position, error) {
	var out struct {
		Size            int64  `json:"size"`
		AverageBuyPrice string `json:"average_buy_price"`
	}
	path := fmt.Sprintf("%s/position/%s", b.base, b.symbol)
	if _, err := b.do(ctx, b.hc.R().SetResult(&out), "GET", path); err != nil {
		return nil, err
	}
	pos := position.New(b.symbol, b.tickerID, b.currency)
	pos.Size = out.Size
	pos.AverageBuyPrice = parseDec(out.AverageBuyPrice)
	return pos, nil
}

// SetTradingAccount binds every subsequent sidecar call to the given
// brokerage account.
func (b *Broker) SetTradingAccount(ctx context.Context, accountID string) error {
	_, err := b.do(ctx, b.hc.R().SetBody(map[string]string{"account_id": accountID}), "POST", b.base+"/account")
	return err
}

// BuyingPower returns the account's available buying power.
func (b *Broker) BuyingPower(ctx context.Context) (decimal.Decimal, error) {
	var out struct {
		BuyingPower string `json:"buying_power"`
	}
	if _, err := b.do(ctx, b.hc.R().SetResult(&out), "GET", b.base+"/account/buying_power"); err != nil {
		return decimal.Zero, err
	}
	return parseDec(out.BuyingPower), nil
}

// GetPendingOrders returns the pending regular orders, optionally filtered by
// side. Pass nil for both sides.
func (b *Broker) GetPendingOrders(isBuy *bool) []*order.Regular {
	pending := b.regs.PendingRegulars()
	if isBuy == nil {
		return pending
	}
	var out []*order.Regular
	for _, o := range pending {
		if o.IsBuy == *isBuy {
			out = append(out, o)
		}
	}
	return out
}

// PendingRegularCount reports how many regular orders are currently pending,
// letting callers detect a MultiplePendingOrderException.
func (b *Broker) PendingRegularCount() int { return len(b.regs.PendingRegulars()) }

// PendingStopCount reports how many stop orders are currently pending.
func (b *Broker) PendingStopCount() int { return len(b.regs.PendingStops()) }

var _ broker.Broker = (*Broker)(nil)
