// FILE: stopprice.go
// Package stopprice – StopPricer: stateful computation of trailing
// stop/limit prices under configurable rules.
//
// Every knob is mutually-exclusive percent-vs-amount, enforced at
// construction via InputParameterConflict. The sell-side gap form
// (1 - gap_percent)/(stop - gap_amount) generalizes symmetrically to
// (1 + gap_percent)/(stop + gap_amount) for buys.
package stopprice

import (
	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

// Config holds the construction-time, immutable rule parameters.
type Config struct {
	IsBuy bool

	TrailByPercent bool
	TrailPercent   decimal.Decimal
	TrailAmount    decimal.Decimal

	AnchorIncreaseByPercent bool
	AnchorIncreasePercent   decimal.Decimal
	AnchorIncreaseAmount    decimal.Decimal

	GapByPercent bool
	GapPercent   decimal.Decimal
	GapAmount    decimal.Decimal
}

// Validate enforces the mutually-exclusive knob discipline.
func (c Config) Validate() error {
	if c.TrailByPercent && !c.TrailAmount.IsZero() {
		return &tradeerrors.InputParameterConflict{
			ClassName: "StopPricer", ProvidedInput: "trail_by_percent",
			InputTypes: [2]string{"trail_by_percent", "trail_by_amount"},
			ExpectedCorrespondingInput: "percent", UnexpectedCorrespondingInput: "amount",
		}
	}
	if !c.TrailByPercent && !c.TrailPercent.IsZero() {
		return &tradeerrors.InputParameterConflict{
			ClassName: "StopPricer", ProvidedInput: "trail_by_amount",
			InputTypes: [2]string{"trail_by_percent", "trail_by_amount"},
			ExpectedCorrespondingInput: "amount", UnexpectedCorrespondingInput: "percent",
		}
	}
	if c.AnchorIncreaseByPercent && !c.AnchorIncreaseAmount.IsZero() {
		return &tradeerrors.InputParameterConflict{
			ClassName: "StopPricer", ProvidedInput: "price_increase_by_percent",
			InputTypes: [2]string{"price_increase_by_percent", "price_increase_by_amount"},
			ExpectedCorrespondingInput: "percent", UnexpectedCorrespondingInput: "amount",
		}
	}
	if !c.AnchorIncreaseByPercent && !c.AnchorIncreasePercent.IsZero() {
		return &tradeerrors.InputParameterConflict{
			ClassName: "StopPricer", ProvidedInput: "price_increase_by_amount",
			InputTypes: [2]string{"price_increase_by_percent", "price_increase_by_amount"},
			ExpectedCorrespondingInput: "amount", UnexpectedCorrespondingInput: "percent",
		}
	}
	if c.GapByPercent && !c.GapAmount.IsZero() {
		return &tradeerrors.InputParameterConflict{
			ClassName: "StopPricer", ProvidedInput: "slt_price_gap_by_percent",
			InputTypes: [2]string{"slt_price_gap_by_percent", "slt_price_gap_by_amount"},
			ExpectedCorrespondingInput: "percent", UnexpectedCorrespondingInput: "amount",
		}
	}
	if !c.GapByPercent && !c.GapPercent.IsZero() {
		return &tradeerrors.InputParameterConflict{
			ClassName: "StopPricer", ProvidedInput: "slt_price_gap_by_amount",
			InputTypes: [2]string{"slt_price_gap_by_percent", "slt_price_gap_by_amount"},
			ExpectedCorrespondingInput: "amount", UnexpectedCorrespondingInput: "percent",
		}
	}
	return nil
}

// StopPricer computes (stop_price, limit_price) pairs from an incoming
// ref_price under initial (non-trailing) and trailing modes.
type StopPricer struct {
	cfg Config

	latestRefPrice   decimal.Decimal
	latestStopPrice  decimal.Decimal
	latestLimitPrice decimal.Decimal

	// anchorIncrement is the fixed dollar increment a bar's ref_price must
	// clear past latestRefPrice before a trailing update is even considered.
	// It is derived once, from the ref price seeding the trail (SetTrailing
	// or the first trail() call), and does not recompound as the anchor
	// moves.
	anchorIncrement decimal.Decimal
}

// New validates cfg and returns a StopPricer with no trailing anchors set.
func New(cfg Config) (*StopPricer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &StopPricer{cfg: cfg}, nil
}

// GetStopLimitPrices computes a pair from refPrice. isToTrail selects mode.
// In trailing mode it returns (zero, zero, false) when no update is accepted.
func (p *StopPricer) GetStopLimitPrices(refPrice decimal.Decimal, isToTrail bool) (stop, limit decimal.Decimal, ok bool) {
	if !isToTrail {
		return p.initial(refPrice)
	}
	return p.trail(refPrice)
}

func (p *StopPricer) initial(refPrice decimal.Decimal) (decimal.Decimal, decimal.Decimal, bool) {
	stop := p.trailStop(refPrice)
	limit := p.limitFromStopSigned(stop)
	return stop.Round(2), limit.Round(2), true
}

// trailStop applies the configured trail distance to an anchor price.
func (p *StopPricer) trailStop(anchor decimal.Decimal) decimal.Decimal {
	if p.cfg.TrailByPercent {
		if p.cfg.IsBuy {
			return anchor.Mul(decimal.NewFromInt(1).Add(p.cfg.TrailPercent))
		}
		return anchor.Mul(decimal.NewFromInt(1).Sub(p.cfg.TrailPercent))
	}
	if p.cfg.IsBuy {
		return anchor.Add(p.cfg.TrailAmount)
	}
	return anchor.Sub(p.cfg.TrailAmount)
}

// limitFromStopSigned computes limit from stop using the gap configuration,
// signed by side: sell limits sit below the stop, buy limits above.
func (p *StopPricer) limitFromStopSigned(stop decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if p.cfg.GapByPercent {
		if p.cfg.GapPercent.IsZero() {
			return stop
		}
		if p.cfg.IsBuy {
			return stop.Mul(one.Add(p.cfg.GapPercent))
		}
		return stop.Mul(one.Sub(p.cfg.GapPercent))
	}
	if p.cfg.GapAmount.IsZero() {
		return stop
	}
	if p.cfg.IsBuy {
		return stop.Add(p.cfg.GapAmount)
	}
	return stop.Sub(p.cfg.GapAmount)
}

// trail seeds the anchor on first call, then accepts an update only when the
// ref price clears the anchor increment and the candidate stop tightens on
// the previous one.
func (p *StopPricer) trail(refPrice decimal.Decimal) (decimal.Decimal, decimal.Decimal, bool) {
	if p.latestRefPrice.IsZero() {
		p.latestRefPrice = refPrice
		p.anchorIncrement = p.computeAnchorIncrement(refPrice)
		return decimal.Zero, decimal.Zero, false
	}

	if !p.anchorIncrementMet(refPrice) {
		return decimal.Zero, decimal.Zero, false
	}
	p.latestRefPrice = refPrice

	candidateStop := p.trailStop(p.latestRefPrice)

	accept := candidateStop.GreaterThan(p.latestStopPrice)
	if p.cfg.IsBuy {
		accept = p.latestStopPrice.IsZero() || candidateStop.LessThan(p.latestStopPrice)
	}
	if !accept {
		return decimal.Zero, decimal.Zero, false
	}

	limit := p.limitFromStopSigned(candidateStop)
	p.latestStopPrice = candidateStop
	p.latestLimitPrice = limit
	return candidateStop, limit, true
}

// computeAnchorIncrement derives the fixed dollar increment from the seed
// ref price: percent mode converts once to a dollar amount here.
func (p *StopPricer) computeAnchorIncrement(seed decimal.Decimal) decimal.Decimal {
	if p.cfg.AnchorIncreaseByPercent {
		return seed.Mul(p.cfg.AnchorIncreasePercent)
	}
	return p.cfg.AnchorIncreaseAmount
}

// anchorIncrementMet reports whether refPrice has moved past latestRefPrice
// by at least the fixed anchor increment (sell side upward, buy side
// downward).
func (p *StopPricer) anchorIncrementMet(refPrice decimal.Decimal) bool {
	if p.anchorIncrement.IsZero() {
		p.anchorIncrement = p.computeAnchorIncrement(p.latestRefPrice)
	}
	if p.cfg.IsBuy {
		return refPrice.LessThanOrEqual(p.latestRefPrice.Sub(p.anchorIncrement))
	}
	return refPrice.GreaterThanOrEqual(p.latestRefPrice.Add(p.anchorIncrement))
}

// ResetTrailing zeroes all three latest fields; invoked when a stoploss fires.
func (p *StopPricer) ResetTrailing() {
	p.latestRefPrice = decimal.Zero
	p.latestStopPrice = decimal.Zero
	p.latestLimitPrice = decimal.Zero
	p.anchorIncrement = decimal.Zero
}

// SetTrailing externally seeds the anchors, invoked immediately after
// creating the initial stop.
func (p *StopPricer) SetTrailing(ref, stop decimal.Decimal) {
	p.latestRefPrice = ref
	p.latestStopPrice = stop
}

// LatestStopPrice returns the current trailing stop anchor.
func (p *StopPricer) LatestStopPrice() decimal.Decimal { return p.latestStopPrice }

// LatestRefPrice returns the current trailing ref-price anchor.
func (p *StopPricer) LatestRefPrice() decimal.Decimal { return p.latestRefPrice }
