// FILE: strategy.go
// Package main – the example Strategy: a pUp micro-model blended with an
// EMA4/EMA8 regime filter, wired through the signal graph and the Trade
// Driver's order intents. Strategies are user-supplied; this is one concrete
// implementation, not part of the engine.
package main

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/barfeed"
	"github.com/chidi150c/autotrader/internal/metrics"
	"github.com/chidi150c/autotrader/internal/signal"
	"github.com/chidi150c/autotrader/internal/strategy"
)

// ExampleStrategy blends a tiny logistic micro-model's pUp estimate with an
// EMA4/EMA8 crossover regime filter, wired through a two-node buy chain and
// a two-node sell chain (First: model crosses threshold; Last: the regime
// filter confirms), so a confirmation can never latch ahead of its leader.
type ExampleStrategy struct {
	model *microModel

	graph                     *signal.Graph
	buyRootID, buyConfirmID   signal.ID
	sellRootID, sellConfirmID signal.ID

	buyThreshold, sellThreshold float64
	useMAFilter                 bool
	fitted                      bool
}

// NewExampleStrategy wires the buy/sell signal chains and returns the
// Strategy. The DependentSignalConflict/SignalNotRequiredException paths in
// internal/signal cannot trigger here since the wiring below always pairs a
// First root with a same-orientation Last dependent, so the construction
// errors are asserted away rather than propagated.
func NewExampleStrategy(seed int64, buyThreshold, sellThreshold float64, useMAFilter bool) *ExampleStrategy {
	g := signal.NewGraph()
	buyRoot, err := g.AddRoot("buy_pup_cross", signal.SequenceFirst, true)
	if err != nil {
		log.Fatalf("[FATAL] signal graph wiring: %v", err)
	}
	buyConfirm, err := g.AddDependent("buy_ma_confirm", signal.SequenceLast, buyRoot, true)
	if err != nil {
		log.Fatalf("[FATAL] signal graph wiring: %v", err)
	}
	sellRoot, err := g.AddRoot("sell_pup_cross", signal.SequenceFirst, false)
	if err != nil {
		log.Fatalf("[FATAL] signal graph wiring: %v", err)
	}
	sellConfirm, err := g.AddDependent("sell_ma_confirm", signal.SequenceLast, sellRoot, false)
	if err != nil {
		log.Fatalf("[FATAL] signal graph wiring: %v", err)
	}

	return &ExampleStrategy{
		model:         newMicroModel(seed),
		graph:         g,
		buyRootID:     buyRoot,
		buyConfirmID:  buyConfirm,
		sellRootID:    sellRoot,
		sellConfirmID: sellConfirm,
		buyThreshold:  buyThreshold,
		sellThreshold: sellThreshold,
		useMAFilter:   useMAFilter,
	}
}

// Prepare is a no-op here: the micro-model fits lazily on the first Next
// call once enough bars are loaded, so no separate warm-up pass is needed.
func (s *ExampleStrategy) Prepare(strategy.TradeContext) {}

// PrintBar logs the current bar.
func (s *ExampleStrategy) PrintBar(tc strategy.TradeContext) {
	bar, ok := tc.CurrentBar()
	if !ok {
		return
	}
	log.Printf("[BAR] symbol=%s ts=%d close=%s volume=%d live=%v", bar.Symbol, bar.Timestamp, bar.Close, bar.Volume, bar.IsLive)
}

// Next blends the micro-model and the EMA regime filter into the signal
// graph, then emits buy/sell/stoploss/trail-stoploss intents off the graph's
// effective up/down state.
func (s *ExampleStrategy) Next(ctx context.Context, tc strategy.TradeContext) {
	bars := tc.Window(0)
	if len(bars) < 40 {
		return
	}
	cs := closes(bars)
	if !s.fitted {
		s.model.fit(cs, 0.05, 4)
		s.fitted = true
	}
	feat, ok := features(cs)
	if !ok {
		return
	}
	pUp := s.model.predict(feat)

	bar := bars[len(bars)-1]
	s.updateSignals(bar, pUp, cs)

	pos := tc.Position()
	refPrice := bar.Close

	switch {
	case pos.Size == 0 && s.graph.IsUp(s.buyConfirmID):
		if err := tc.Buy(ctx, false, refPrice, decimal.Zero); err != nil {
			log.Printf("[WARN] buy intent: %v", err)
		}
	case pos.Size > 0 && s.graph.IsUp(s.sellConfirmID):
		if err := tc.Sell(ctx, false, refPrice, decimal.Zero); err != nil {
			log.Printf("[WARN] sell intent: %v", err)
		}
	}

	if pos.Size > 0 {
		if stop, _, ok := tc.StopPricer().GetStopLimitPrices(refPrice, false); ok {
			if err := tc.StopLoss(ctx, false, stop, decimal.Zero); err != nil {
				log.Printf("[WARN] stoploss intent: %v", err)
			}
		}
		if err := tc.TrailStopLoss(ctx, false); err != nil {
			log.Printf("[WARN] trail_stoploss intent: %v", err)
		}
	}
}

// updateSignals drives the buy/sell chains: the First node latches off the
// micro-model threshold; the Last node latches off the EMA regime filter's
// peak/bottom crossover shapes and only becomes effectively up while its
// leader holds.
func (s *ExampleStrategy) updateSignals(bar barfeed.Bar, pUp float64, cs []float64) {
	i := len(cs) - 1
	ema4 := EMA(cs, 4)
	ema8 := EMA(cs, 8)

	var buyMASignal, sellMASignal bool
	if i >= 3 {
		fast, slow := ema4[i], ema8[i]
		fast2, slow2 := ema4[i-2], ema8[i-2]
		fast3, slow3 := ema4[i-3], ema8[i-3]

		highPeak := slow3 < fast3 && slow2-fast2 > slow3-fast3 && slow-fast < slow2-fast2 && slow < fast
		priceDownGoingUp := slow > fast && slow-fast < slow3-fast3 && slow3 > fast3
		lowBottom := fast3 < slow3 && fast2-slow2 > fast3-slow3 && fast-slow < fast2-slow2 && fast < slow
		priceUpGoingDown := fast > slow && fast-slow < fast3-slow3 && fast3 > slow3

		buyMASignal = lowBottom || priceDownGoingUp
		sellMASignal = highPeak || priceUpGoingDown
	}
	if !s.useMAFilter {
		buyMASignal = true
		sellMASignal = true
	}

	volume, _ := decimal.NewFromInt(bar.Volume).Float64()
	price, _ := bar.Close.Float64()
	at := bar.Datetime
	if at.IsZero() {
		at = time.Unix(bar.Timestamp, 0).UTC()
	}

	if pUp > s.buyThreshold {
		s.graph.UpSignal(s.buyRootID, bar.Timestamp, price, volume, pUp, at)
	} else {
		s.graph.DownSignal(s.buyRootID)
	}
	if buyMASignal {
		s.graph.UpSignal(s.buyConfirmID, bar.Timestamp, price, volume, pUp, at)
	} else {
		s.graph.DownSignal(s.buyConfirmID)
	}

	if pUp < s.sellThreshold {
		s.graph.UpSignal(s.sellRootID, bar.Timestamp, price, volume, 1-pUp, at)
	} else {
		s.graph.DownSignal(s.sellRootID)
	}
	if sellMASignal {
		s.graph.UpSignal(s.sellConfirmID, bar.Timestamp, price, volume, 1-pUp, at)
	} else {
		s.graph.DownSignal(s.sellConfirmID)
	}

	metrics.SetSignal("buy_pup_cross", s.graph.IsUp(s.buyRootID))
	metrics.SetSignal("buy_ma_confirm", s.graph.IsUp(s.buyConfirmID))
	metrics.SetSignal("sell_pup_cross", s.graph.IsUp(s.sellRootID))
	metrics.SetSignal("sell_ma_confirm", s.graph.IsUp(s.sellConfirmID))
}

var _ strategy.Strategy = (*ExampleStrategy)(nil)
