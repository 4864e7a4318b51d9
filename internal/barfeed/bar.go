// FILE: bar.go
// Package barfeed – Bar value type and the rolling BarFeed frame consumed by
// the Trade Driver.
package barfeed

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is an immutable OHLCV candle.
type Bar struct {
	Timestamp    int64 // seconds
	Datetime     time.Time
	Open         decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	Close        decimal.Decimal
	Volume       int64
	IntervalCode string
	Symbol       string
	IsLive       bool
}
