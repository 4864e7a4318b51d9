// FILE: main.go
// Package main – Program entrypoint, wiring config, broker, BarFeed, the
// example Strategy and the Trade Driver, plus the HTTP /healthz and
// /metrics server.
//
// Boot sequence:
//   1) config.LoadDotEnv()  – read .env (no shell exports required)
//   2) config.Load()        – build the runtime Config
//   3) wire broker/BarFeed/StopPricer/GainLoss/Strategy
//   4) trade.New
//   5) start Prometheus /healthz + /metrics server on cfg.Port
//   6) Initialize, then Execute the bar-clock loop over the loaded bars
//
// Flags:
//   -backtest <csv>   Load CSV candles and use the backtest broker
//   -live             Use the live sidecar broker at BRIDGE_URL even when
//                     -backtest is given (it is also used when -backtest is
//                     absent). No candle retriever is wired into the Trade
//                     (Refresh is nil), so in this mode no bars are loaded
//                     or refreshed and Execute returns without trading.
//   -seed <n>         Seed for the example Strategy's micro-model and, in
//                     backtest mode, the fill simulator's randomness
//
// Example:
//   go run ./cmd/autotrader -backtest candles.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chidi150c/autotrader/internal/barfeed"
	"github.com/chidi150c/autotrader/internal/broker"
	"github.com/chidi150c/autotrader/internal/broker/backtest"
	"github.com/chidi150c/autotrader/internal/broker/live"
	"github.com/chidi150c/autotrader/internal/clock"
	"github.com/chidi150c/autotrader/internal/config"
	"github.com/chidi150c/autotrader/internal/market"
	"github.com/chidi150c/autotrader/internal/notify"
	"github.com/chidi150c/autotrader/internal/position"
	"github.com/chidi150c/autotrader/internal/stopprice"
	"github.com/chidi150c/autotrader/internal/trade"
)

func main() {
	var csvBacktest string
	var liveMode bool
	var seed int64
	flag.StringVar(&csvBacktest, "backtest", "", "Path to CSV (time,open,high,low,close,volume)")
	flag.BoolVar(&liveMode, "live", false, "Use the live sidecar broker at BRIDGE_URL")
	flag.Int64Var(&seed, "seed", 1, "Seed for the example Strategy's micro-model and backtest fills")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[FATAL] config.Load: %v", err)
	}

	if shouldFatalNoStateMount(stateFilePath(cfg)) {
		log.Fatalf("[FATAL] state dir %q is not a mounted writable volume; refusing to trade on a fresh, unmounted filesystem", cfg.StateDir)
	}
	prior, err := loadState(stateFilePath(cfg))
	if err == nil {
		log.Printf("[BOOT] resumed from snapshot: equity=%.2f last_fit=%s", prior.EquityUSD, prior.LastFitTime.Format(time.RFC3339))
	}

	oracle := market.AlwaysOpen{IntervalSeconds: intervalSeconds(cfg.IntervalOption)}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.SlackWebhookURL != "" {
		notifier = notify.EnabledTags{
			Notifier: notify.NewSlackWebhook(cfg.SlackWebhookURL),
			Enabled:  map[notify.Tag]bool{notify.TagSignal: true, notify.TagOrder: true, notify.TagTrade: true},
		}
	}

	strat := NewExampleStrategy(seed, 0.55, 0.45, true)
	sp, err := stopprice.New(cfg.StopPricer)
	if err != nil {
		log.Fatalf("[FATAL] stopprice.New: %v", err)
	}
	gl := position.NewGainLossTracker()
	bars := barfeed.New(oracle, cfg.DataDelaySeconds)

	var brk broker.Broker
	var clk clock.Clock = clock.Real{}
	if csvBacktest != "" && !liveMode {
		candles, err := loadCandleCSV(csvBacktest, cfg.Symbol, cfg.IntervalOption)
		if err != nil {
			log.Fatalf("[FATAL] loadCandleCSV: %v", err)
		}
		bars.Update(candles)
		btClock := clock.NewBacktest(time.Now().UTC())
		brk = backtest.New(
			btClock,
			clock.NewRandSource(seed),
			cfg.Commission,
			backtest.DefaultSpreadConfig(),
			backtest.DefaultFillPossibility(),
		)
		clk = btClock
	} else {
		brk = live.New(cfg.BridgeURL, cfg.Symbol)
	}

	td, err := trade.New(trade.Config{
		Codename:       fmt.Sprintf("autotrader-%s", cfg.Symbol),
		IsLive:         cfg.IsLive,
		Symbol:         cfg.Symbol,
		TickerAlias:    cfg.TickerAlias,
		Currency:       cfg.Currency,
		Exchange:       cfg.Exchange,
		RepsLimit:      cfg.RepsLimit,
		IntervalOption: cfg.IntervalOption,
		CandleCount:    cfg.CandleCount,
		DurationType:   cfg.DurationType,
		Broker:         brk,
		Strategy:       strat,
		Sizer:          cfg.Sizer,
		StopPricer:     sp,
		GainLoss:       gl,
		Bars:           bars,
		Oracle:         oracle,
		Clock:          clk,
		Notifier:       notifier,
		Refresh:        nil,
	})
	if err != nil {
		log.Fatalf("[FATAL] trade.New: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Printf("[BOOT] serving :%d/healthz and :%d/metrics", cfg.Port, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := td.Initialize(ctx); err != nil {
		log.Fatalf("[FATAL] trade.Initialize: %v", err)
	}
	if err := td.Execute(ctx); err != nil {
		log.Printf("[WARN] trade.Execute exited: %v", err)
	}

	st := botState{LastFitTime: time.Now().UTC()}
	if pos := td.Position(); pos != nil {
		px := sp.LatestRefPrice()
		equity, _ := gl.EstimateUnrealized(px).Add(gl.RealizedGainLoss()).Float64()
		st.EquityUSD = equity
	}
	if err := saveState(stateFilePath(cfg), st); err != nil {
		log.Printf("[WARN] saveState: %v", err)
	}

	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}

func stateFilePath(cfg config.Config) string {
	if cfg.StateDir == "" {
		return ""
	}
	return cfg.StateDir + "/autotrader_state.json"
}

func intervalSeconds(opt string) int {
	switch opt {
	case "1m":
		return 60
	case "2m":
		return 120
	case "5m":
		return 300
	case "15m":
		return 900
	case "30m":
		return 1800
	case "1h":
		return 3600
	case "4h":
		return 4 * 3600
	case "1d":
		return 24 * 3600
	default:
		return 60
	}
}
