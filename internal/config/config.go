// FILE: config.go
// Package config – runtime configuration model and loader: everything
// internal/trade.New, the example Strategy, and the broker/notifier wiring
// in cmd/autotrader need.
//
// Typical flow (see cmd/autotrader/main.go):
//   config.LoadDotEnv()
//   cfg, err := config.Load()
package config

import (
	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/broker"
	"github.com/chidi150c/autotrader/internal/stopprice"
	"github.com/chidi150c/autotrader/internal/strategy"
	"github.com/chidi150c/autotrader/internal/trade"
	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

var acceptedIntervals = []string{"1m", "2m", "5m", "15m", "30m", "1h", "4h", "1d"}
var acceptedCurrencies = []string{"USD", "CAD"}
var acceptedExchanges = []string{"NASDAQ", "NYSE", "TSX"}
var acceptedDurations = []string{"DAY", "GTD", "GTC"}
var acceptedSizerModes = []string{"size", "amount"}

func accepted(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Config holds every runtime knob for the Trade Driver, its broker, and the
// entrypoint's ops surface.
type Config struct {
	// Trading target
	Symbol         string
	TickerAlias    string
	Currency       string
	Exchange       string
	IntervalOption string
	CandleCount    int
	DurationType   trade.DurationType
	RepsLimit      int
	IsLive         bool

	Sizer      strategy.Sizer
	StopPricer stopprice.Config
	Commission broker.Commission

	// Ops
	Port             int
	BridgeURL        string
	SlackWebhookURL  string
	StateDir         string
	BacktestCSVPath  string
	DataDelaySeconds int
}

// Load reads the process env (already hydrated by LoadDotEnv) and returns a
// validated Config. Enum fields rejected here mirror the validation
// internal/trade.New repeats at construction time — failing here lets
// cmd/autotrader abort before any broker/notifier is even dialed.
func Load() (Config, error) {
	c := Config{
		Symbol:         getEnv("SYMBOL", "BTC-USD"),
		TickerAlias:    getEnv("TICKER_ALIAS", ""),
		Currency:       getEnv("CURRENCY", "USD"),
		Exchange:       getEnv("EXCHANGE", "NASDAQ"),
		IntervalOption: getEnv("INTERVAL_OPTION", "1m"),
		CandleCount:    getEnvInt("CANDLE_COUNT", 300),
		DurationType:   trade.DurationType(getEnv("DURATION_TYPE", "GTC")),
		RepsLimit:      getEnvInt("REPS_LIMIT", 1),
		IsLive:         getEnvBool("IS_LIVE", false),

		Port:             getEnvInt("PORT", 8080),
		BridgeURL:        getEnv("BRIDGE_URL", "http://127.0.0.1:8787"),
		SlackWebhookURL:  getEnv("SLACK_WEBHOOK", ""),
		StateDir:         getEnv("STATE_DIR", "/data"),
		BacktestCSVPath:  getEnv("BACKTEST_CSV", ""),
		DataDelaySeconds: getEnvInt("DATA_DELAY_SECONDS", 0),
	}

	if !accepted(c.IntervalOption, acceptedIntervals) {
		return Config{}, &tradeerrors.ValueNotPresent{
			ClassName: "config.Load", Param: "INTERVAL_OPTION", Value: c.IntervalOption, Accepted: acceptedIntervals,
		}
	}
	if !accepted(c.Currency, acceptedCurrencies) {
		return Config{}, &tradeerrors.ValueNotPresent{
			ClassName: "config.Load", Param: "CURRENCY", Value: c.Currency, Accepted: acceptedCurrencies,
		}
	}
	if !accepted(c.Exchange, acceptedExchanges) {
		return Config{}, &tradeerrors.ValueNotPresent{
			ClassName: "config.Load", Param: "EXCHANGE", Value: c.Exchange, Accepted: acceptedExchanges,
		}
	}
	if !accepted(string(c.DurationType), acceptedDurations) {
		return Config{}, &tradeerrors.ValueNotPresent{
			ClassName: "config.Load", Param: "DURATION_TYPE", Value: string(c.DurationType), Accepted: acceptedDurations,
		}
	}

	sizerMode := getEnv("SIZER_MODE", "size")
	if !accepted(sizerMode, acceptedSizerModes) {
		return Config{}, &tradeerrors.ValueNotPresent{
			ClassName: "config.Load", Param: "SIZER_MODE", Value: sizerMode, Accepted: acceptedSizerModes,
		}
	}
	if sizerMode == "amount" {
		c.Sizer = strategy.Sizer{
			Mode:          strategy.ByAmount,
			Amount:        decimal.NewFromFloat(getEnvFloat("SIZER_AMOUNT", 0)),
			BuyPowerRatio: decimal.NewFromFloat(getEnvFloat("SIZER_BUY_POWER_RATIO", 1)),
		}
	} else {
		c.Sizer = strategy.Sizer{Mode: strategy.BySize, FixedSize: int64(getEnvInt("SIZER_FIXED_SIZE", 1))}
	}

	c.StopPricer = stopprice.Config{
		TrailByPercent:          getEnvFloat("STOP_TRAIL_PERCENT", 0) > 0,
		TrailPercent:            decimal.NewFromFloat(getEnvFloat("STOP_TRAIL_PERCENT", 0)),
		TrailAmount:             decimal.NewFromFloat(getEnvFloat("STOP_TRAIL_AMOUNT", 0)),
		AnchorIncreaseByPercent: getEnvFloat("STOP_ANCHOR_INCREASE_PERCENT", 0) > 0,
		AnchorIncreasePercent:   decimal.NewFromFloat(getEnvFloat("STOP_ANCHOR_INCREASE_PERCENT", 0)),
		AnchorIncreaseAmount:    decimal.NewFromFloat(getEnvFloat("STOP_ANCHOR_INCREASE_AMOUNT", 0)),
		GapByPercent:            getEnvFloat("STOP_GAP_PERCENT", 0) > 0,
		GapPercent:              decimal.NewFromFloat(getEnvFloat("STOP_GAP_PERCENT", 0)),
		GapAmount:               decimal.NewFromFloat(getEnvFloat("STOP_GAP_AMOUNT", 0)),
	}
	if !c.StopPricer.TrailByPercent {
		c.StopPricer.TrailAmount = decimal.NewFromFloat(getEnvFloat("STOP_TRAIL_AMOUNT", 1))
	}
	if !c.StopPricer.AnchorIncreaseByPercent {
		c.StopPricer.AnchorIncreaseAmount = decimal.NewFromFloat(getEnvFloat("STOP_ANCHOR_INCREASE_AMOUNT", 1))
	}
	if !c.StopPricer.GapByPercent {
		c.StopPricer.GapAmount = decimal.NewFromFloat(getEnvFloat("STOP_GAP_AMOUNT", 0))
	}

	c.Commission = broker.Commission{
		Fixed:   getEnvBool("COMMISSION_FIXED", true),
		Amount:  decimal.NewFromFloat(getEnvFloat("COMMISSION_AMOUNT", 0)),
		Percent: decimal.NewFromFloat(getEnvFloat("COMMISSION_PERCENT", 0)),
		Floor:   decimal.NewFromFloat(getEnvFloat("COMMISSION_FLOOR", 0)),
		Ceiling: decimal.NewFromFloat(getEnvFloat("COMMISSION_CEILING", 0)),
	}

	return c, nil
}
