// FILE: market.go
// Package market – the market-hour oracle consumed by the Trade Driver and
// BarFeed. A trivial always-open oracle and a simple fixed-session
// implementation are provided for backtests and tests, alongside the
// interface live integrations implement against a real exchange calendar.
package market

import "time"

// HourOracle answers session and bar-boundary questions for one exchange/interval pair.
type HourOracle interface {
	IsOpenNow() bool
	ExchangeOpen() time.Time
	ExchangeClose() time.Time
	BarZeroTimestamp() int64
	SecondsToNextBar() int
	BarGapSeconds() int
}

// AlwaysOpen is a trivial oracle for 24/7 venues (crypto).
type AlwaysOpen struct {
	IntervalSeconds int
	Clock           func() time.Time
}

func (a AlwaysOpen) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now().UTC()
}

func (a AlwaysOpen) IsOpenNow() bool { return true }

func (a AlwaysOpen) ExchangeOpen() time.Time { return time.Time{} }

func (a AlwaysOpen) ExchangeClose() time.Time { return time.Time{} }

func (a AlwaysOpen) BarZeroTimestamp() int64 {
	n := a.now().Unix()
	gap := int64(a.IntervalSeconds)
	if gap <= 0 {
		return n
	}
	return n - (n % gap)
}

func (a AlwaysOpen) SecondsToNextBar() int {
	n := a.now().Unix()
	gap := int64(a.IntervalSeconds)
	if gap <= 0 {
		return 0
	}
	return int(gap - (n % gap))
}

func (a AlwaysOpen) BarGapSeconds() int { return a.IntervalSeconds }

// FixedSession models a daily open/close window in a fixed location,
// repeating every day, for venues with regular trading hours.
type FixedSession struct {
	Location        *time.Location
	OpenHour        int
	OpenMinute      int
	CloseHour       int
	CloseMinute     int
	IntervalSeconds int
	Clock           func() time.Time
}

func (f FixedSession) now() time.Time {
	if f.Clock != nil {
		return f.Clock()
	}
	return time.Now().UTC()
}

func (f FixedSession) sessionBounds(ref time.Time) (open, close time.Time) {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	local := ref.In(loc)
	open = time.Date(local.Year(), local.Month(), local.Day(), f.OpenHour, f.OpenMinute, 0, 0, loc)
	close = time.Date(local.Year(), local.Month(), local.Day(), f.CloseHour, f.CloseMinute, 0, 0, loc)
	return
}

func (f FixedSession) IsOpenNow() bool {
	n := f.now()
	open, close := f.sessionBounds(n)
	return !n.Before(open) && n.Before(close)
}

func (f FixedSession) ExchangeOpen() time.Time {
	open, _ := f.sessionBounds(f.now())
	return open
}

func (f FixedSession) ExchangeClose() time.Time {
	_, close := f.sessionBounds(f.now())
	return close
}

func (f FixedSession) BarZeroTimestamp() int64 {
	n := f.now().Unix()
	gap := int64(f.IntervalSeconds)
	if gap <= 0 {
		return n
	}
	return n - (n % gap)
}

func (f FixedSession) SecondsToNextBar() int {
	n := f.now().Unix()
	gap := int64(f.IntervalSeconds)
	if gap <= 0 {
		return 0
	}
	return int(gap - (n % gap))
}

func (f FixedSession) BarGapSeconds() int { return f.IntervalSeconds }
