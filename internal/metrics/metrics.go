// FILE: metrics.go
// Package metrics – Prometheus metrics for observability.
//
// Exposes primary metrics the Trade Driver updates during operation:
//   • trade_orders_total{side,kind}     – Count of orders placed (side: buy|sell, kind: regular|stop)
//   • trade_fills_total{side}           – Count of fills observed
//   • trade_cancellations_total{kind}   – Count of cancel requests issued
//   • trade_realized_pnl_usd            – Current realized P&L snapshot (gauge)
//   • trade_unrealized_pnl_usd          – Current unrealized P&L snapshot (gauge)
//   • trade_position_size               – Current position size (gauge)
//   • trade_reps_used{side}             – Reps consumed so far, out of reps_limit (gauge)
//   • trade_status{status}              – Trade lifecycle indicator, one labeled series per status
//   • trade_stop_price_usd              – Current trailing stop price (gauge)
//   • trade_signal_up{name}             – Signal graph node up/down indicator (gauge, 0/1)
//   • trade_invariant_violations_total{kind} – Count of fatal invariant errors
//
// These are registered in init() and served by cmd/autotrader's /metrics
// handler (Prometheus text exposition format).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_orders_total",
			Help: "Orders placed",
		},
		[]string{"side", "kind"},
	)

	Fills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_fills_total",
			Help: "Orders filled",
		},
		[]string{"side"},
	)

	Cancellations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_cancellations_total",
			Help: "Cancel requests issued, by order kind",
		},
		[]string{"kind"},
	)

	RealizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trade_realized_pnl_usd",
			Help: "Realized gain/loss snapshot",
		},
	)

	UnrealizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trade_unrealized_pnl_usd",
			Help: "Unrealized gain/loss snapshot at the last mark price",
		},
	)

	PositionSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trade_position_size",
			Help: "Current position size in shares/units",
		},
	)

	RepsUsed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trade_reps_used",
			Help: "Reps consumed so far, by side, out of reps_limit",
		},
		[]string{"side"},
	)

	Status = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trade_status",
			Help: "Trade lifecycle indicator (one labeled series per status, flipped 0/1)",
		},
		[]string{"status"},
	)

	StopPrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trade_stop_price_usd",
			Help: "Current trailing stop price",
		},
	)

	SignalUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trade_signal_up",
			Help: "Signal graph node up/down indicator, 1 means up",
		},
		[]string{"name"},
	)

	InvariantViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_invariant_violations_total",
			Help: "Fatal invariant violations observed (MultiplePendingOrderException, UnsettledOrderPersistError, ...)",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(Orders, Fills, Cancellations)
	prometheus.MustRegister(RealizedPnL, UnrealizedPnL, PositionSize)
	prometheus.MustRegister(RepsUsed, Status, StopPrice, SignalUp)
	prometheus.MustRegister(InvariantViolations)
}

// SetStatus flips the single labeled series for status to 1 and zeroes the
// rest.
func SetStatus(all []string, active string) {
	for _, s := range all {
		if s == active {
			Status.WithLabelValues(s).Set(1)
		} else {
			Status.WithLabelValues(s).Set(0)
		}
	}
}

// SetSignal records a signal graph node's up/down state as 1/0.
func SetSignal(name string, up bool) {
	if up {
		SignalUp.WithLabelValues(name).Set(1)
	} else {
		SignalUp.WithLabelValues(name).Set(0)
	}
}

func IncOrder(side, kind string)      { Orders.WithLabelValues(side, kind).Inc() }
func IncFill(side string)             { Fills.WithLabelValues(side).Inc() }
func IncCancellation(kind string)     { Cancellations.WithLabelValues(kind).Inc() }
func IncInvariantViolation(kind string) { InvariantViolations.WithLabelValues(kind).Inc() }
