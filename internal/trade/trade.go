// FILE: trade.go
// Package trade – the Trade Driver: the bar-clock loop binding strategy,
// broker, sizer, and stop-pricer.
//
// A Trade owns one Broker, one Strategy, one Sizer, one StopPricer, one
// GainLossTracker, one BarFeed cursor, and one MarketHour oracle. All of
// their state is mutated on the driver's single thread.
package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/barfeed"
	"github.com/chidi150c/autotrader/internal/broker"
	"github.com/chidi150c/autotrader/internal/clock"
	"github.com/chidi150c/autotrader/internal/market"
	"github.com/chidi150c/autotrader/internal/metrics"
	"github.com/chidi150c/autotrader/internal/notify"
	"github.com/chidi150c/autotrader/internal/order"
	"github.com/chidi150c/autotrader/internal/position"
	"github.com/chidi150c/autotrader/internal/stopprice"
	"github.com/chidi150c/autotrader/internal/strategy"
	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

// Status is the Trade's own lifecycle state, distinct from order/position status.
type Status string

const (
	StatusActivated Status = "ACTIVATED"
	StatusCancelled Status = "CANCELLED"
	StatusPaused    Status = "PAUSED"
	StatusResumed   Status = "RESUMED"
	StatusClosed    Status = "CLOSED"
)

// DurationType is the order-duration policy accepted at construction.
type DurationType string

const (
	DurationDay DurationType = "DAY"
	DurationGTD DurationType = "GTD"
	DurationGTC DurationType = "GTC"
)

var validIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "4h": true, "1d": true,
}

var validDurations = map[DurationType]bool{
	DurationDay: true, DurationGTD: true, DurationGTC: true,
}

const (
	defaultCancelWait       = 5 * time.Second
	defaultPostNextBuffer   = 5
	defaultPostNextSweeps   = 3
	defaultRemoveSettledAge = 48
)

// Config constructs a Trade. Broker/Strategy/StopPricer/Sizer presence is
// validated at Execute() (MissingRequiredTradingElement); the enum fields
// are validated at construction (ValueNotPresent).
type Config struct {
	Codename    string
	IsLive      bool
	Symbol      string
	TickerAlias string
	Currency    string
	Exchange    string

	RepsLimit      int
	IntervalOption string
	CandleCount    int
	DurationType   DurationType

	Broker     broker.Broker
	Strategy   strategy.Strategy
	Sizer      strategy.Sizer
	StopPricer *stopprice.StopPricer
	GainLoss   *position.GainLossTracker
	Bars       *barfeed.BarFeed
	Oracle     market.HourOracle
	Clock      clock.Clock
	Notifier   notify.Notifier

	// Refresh retrieves the next batch of candles from the external candle
	// retriever; required only in live mode.
	Refresh func(ctx context.Context) ([]barfeed.Bar, error)

	AcceptedCurrencies []string
	AcceptedExchanges  []string
}

func defaultAccepted(list []string, fallback ...string) map[string]bool {
	if len(list) == 0 {
		list = fallback
	}
	m := make(map[string]bool, len(list))
	for _, v := range list {
		m[v] = true
	}
	return m
}

// Trade is the driver binding one symbol's strategy, broker, and bar feed.
type Trade struct {
	Codename    string
	IsLive      bool
	Symbol      string
	TickerAlias string
	Currency    string
	Exchange    string

	RepsLimit      int
	IntervalOption string
	CandleCount    int
	DurationType   DurationType

	Status Status

	brk        broker.Broker
	strat      strategy.Strategy
	sizer      strategy.Sizer
	stopPricer *stopprice.StopPricer
	gainLoss   *position.GainLossTracker
	bars       *barfeed.BarFeed
	oracle     market.HourOracle
	clk        clock.Clock
	notifier   notify.Notifier
	refresh    func(ctx context.Context) ([]barfeed.Bar, error)

	position *position.Position

	pendingRegular *order.Regular
	pendingStop    *order.Stop

	buyCount  int
	sellCount int
	cursor    int
}

// New validates cfg's enum fields and returns an Activated Trade.
func New(cfg Config) (*Trade, error) {
	if !validIntervals[cfg.IntervalOption] {
		return nil, &tradeerrors.ValueNotPresent{
			ClassName: "Trade", Param: "interval_option", Value: cfg.IntervalOption,
			Accepted: []string{"1m", "2m", "5m", "15m", "30m", "1h", "4h", "1d"},
		}
	}
	if !validDurations[cfg.DurationType] {
		return nil, &tradeerrors.ValueNotPresent{
			ClassName: "Trade", Param: "duration_type", Value: string(cfg.DurationType),
			Accepted: []string{"DAY", "GTD", "GTC"},
		}
	}
	currencies := defaultAccepted(cfg.AcceptedCurrencies, "USD", "CAD")
	if !currencies[cfg.Currency] {
		accepted := make([]string, 0, len(currencies))
		for c := range currencies {
			accepted = append(accepted, c)
		}
		return nil, &tradeerrors.ValueNotPresent{
			ClassName: "Trade", Param: "currency", Value: cfg.Currency, Accepted: accepted,
		}
	}
	exchanges := defaultAccepted(cfg.AcceptedExchanges, "NASDAQ", "NYSE", "TSX")
	if !exchanges[cfg.Exchange] {
		accepted := make([]string, 0, len(exchanges))
		for e := range exchanges {
			accepted = append(accepted, e)
		}
		return nil, &tradeerrors.ValueNotPresent{
			ClassName: "Trade", Param: "exchange", Value: cfg.Exchange, Accepted: accepted,
		}
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Noop{}
	}

	metrics.SetStatus(statuses, string(StatusActivated))
	return &Trade{
		Codename:       cfg.Codename,
		IsLive:         cfg.IsLive,
		Symbol:         cfg.Symbol,
		TickerAlias:    cfg.TickerAlias,
		Currency:       cfg.Currency,
		Exchange:       cfg.Exchange,
		RepsLimit:      cfg.RepsLimit,
		IntervalOption: cfg.IntervalOption,
		CandleCount:    cfg.CandleCount,
		DurationType:   cfg.DurationType,
		Status:         StatusActivated,

		brk:        cfg.Broker,
		strat:      cfg.Strategy,
		sizer:      cfg.Sizer,
		stopPricer: cfg.StopPricer,
		gainLoss:   cfg.GainLoss,
		bars:       cfg.Bars,
		oracle:     cfg.Oracle,
		clk:        clk,
		notifier:   notifier,
		refresh:    cfg.Refresh,
	}, nil
}

// Initialize resolves the broker-local ticker identity and seeds the
// in-memory Position cache, then runs the Strategy's one-time Prepare hook.
func (t *Trade) Initialize(ctx context.Context) error {
	if err := t.brk.Initialize(ctx, t.Symbol, t.Currency); err != nil {
		return err
	}
	t.refreshPosition(ctx)
	if t.strat != nil {
		t.strat.Prepare(t)
	}
	return nil
}

func (t *Trade) validateRequired() error {
	if t.brk == nil {
		return &tradeerrors.MissingRequiredTradingElement{Element: "broker"}
	}
	if t.strat == nil {
		return &tradeerrors.MissingRequiredTradingElement{Element: "strategy"}
	}
	if t.stopPricer == nil {
		return &tradeerrors.MissingRequiredTradingElement{Element: "stop_pricer"}
	}
	if t.sizer.Mode == strategy.BySize && t.sizer.FixedSize <= 0 {
		return &tradeerrors.MissingRequiredTradingElement{Element: "sizer"}
	}
	if t.sizer.Mode == strategy.ByAmount && t.sizer.Amount.IsZero() {
		return &tradeerrors.MissingRequiredTradingElement{Element: "sizer"}
	}
	if t.gainLoss == nil {
		return &tradeerrors.MissingRequiredTradingElement{Element: "gain_loss_tracker"}
	}
	if t.bars == nil {
		return &tradeerrors.MissingRequiredTradingElement{Element: "bars"}
	}
	return nil
}

// Stopped reports whether the Trade will no longer process bars.
func (t *Trade) Stopped() bool {
	switch t.Status {
	case StatusCancelled, StatusClosed, StatusPaused:
		return true
	default:
		return false
	}
}

// Pause, Resume, CancelTrade, and Close drive the Trade's own status machine.
func (t *Trade) Pause()       { t.setStatus(StatusPaused) }
func (t *Trade) Resume()      { t.setStatus(StatusResumed) }
func (t *Trade) CancelTrade() { t.setStatus(StatusCancelled) }
func (t *Trade) Close()       { t.setStatus(StatusClosed) }

func (t *Trade) setStatus(s Status) {
	t.Status = s
	metrics.SetStatus(statuses, string(s))
}

// BuyCount and SellCount report the round-trip counters the reps limit enforces.
func (t *Trade) BuyCount() int  { return t.buyCount }
func (t *Trade) SellCount() int { return t.sellCount }

// Bars implements strategy.TradeContext.
func (t *Trade) Bars() *barfeed.BarFeed { return t.bars }

// Window implements strategy.TradeContext, returning up to n bars ending at
// the execution cursor, oldest first (every bar up to the cursor when n <= 0).
func (t *Trade) Window(n int) []barfeed.Bar {
	desc := t.bars.BarsAt(t.cursor)
	if len(desc) == 0 {
		return nil
	}
	if n > 0 && n < len(desc) {
		desc = desc[:n]
	}
	out := make([]barfeed.Bar, len(desc))
	for i, b := range desc {
		out[len(desc)-1-i] = b
	}
	return out
}

// Position implements strategy.TradeContext, returning the cached snapshot
// refreshed after Initialize and after every observed fill.
func (t *Trade) Position() *position.Position { return t.position }

// Broker implements strategy.TradeContext.
func (t *Trade) Broker() broker.Broker { return t.brk }

// GainLoss implements strategy.TradeContext.
func (t *Trade) GainLoss() *position.GainLossTracker { return t.gainLoss }

// StopPricer implements strategy.TradeContext.
func (t *Trade) StopPricer() *stopprice.StopPricer { return t.stopPricer }

// Sizer implements strategy.TradeContext.
func (t *Trade) Sizer() strategy.Sizer { return t.sizer }

func (t *Trade) refreshPosition(ctx context.Context) {
	pos, err := t.brk.GetPosition(ctx, t.IsLive)
	if err != nil {
		return
	}
	t.position = pos
}

func (t *Trade) notifyf(tag notify.Tag, format string, args ...any) {
	t.notifier.Send(fmt.Sprintf(format, args...), tag)
}

// refPrice returns the decision-time reference price: the close of the bar
// currently being processed.
func (t *Trade) refPrice() decimal.Decimal {
	bar, ok := t.CurrentBar()
	if !ok {
		return decimal.Zero
	}
	return bar.Close
}

// CurrentBar implements strategy.TradeContext.
func (t *Trade) CurrentBar() (barfeed.Bar, bool) {
	bars := t.bars.BarsAt(t.cursor)
	if len(bars) == 0 {
		return barfeed.Bar{}, false
	}
	return bars[0], true
}

var _ strategy.TradeContext = (*Trade)(nil)
