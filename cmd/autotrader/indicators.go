// FILE: indicators.go
// Package main – technical indicators (EMA/RSI/ZScore) over []barfeed.Bar
// Close prices. Indicator computation is out of engine scope — these live
// here only to drive the demonstration Strategy, not inside internal/.
package main

import (
	"math"

	"github.com/chidi150c/autotrader/internal/barfeed"
)

func closes(bars []barfeed.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		f, _ := b.Close.Float64()
		out[i] = f
	}
	return out
}

// EMA returns the exponential moving average of c over period n, seeded with
// c[0]; every entry is NaN when n <= 0.
func EMA(c []float64, n int) []float64 {
	out := make([]float64, len(c))
	if n <= 0 || len(c) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	k := 2.0 / (float64(n) + 1.0)
	out[0] = c[0]
	for i := 1; i < len(c); i++ {
		out[i] = c[i]*k + out[i-1]*(1-k)
	}
	return out
}

// ZScore returns the rolling z-score of c over window n, 0 before the first
// full window.
func ZScore(c []float64, n int) []float64 {
	out := make([]float64, len(c))
	if n <= 1 || len(c) == 0 {
		return out
	}
	var sum, sumSq float64
	for i := range c {
		x := c[i]
		sum += x
		sumSq += x * x
		if i >= n {
			y := c[i-n]
			sum -= y
			sumSq -= y * y
		}
		if i >= n-1 {
			mean := sum / float64(n)
			variance := (sumSq / float64(n)) - (mean * mean)
			std := math.Sqrt(math.Max(variance, 1e-12))
			out[i] = (x - mean) / std
		}
	}
	return out
}

// RSI returns the n-period Relative Strength Index using Wilder's smoothing.
func RSI(c []float64, n int) []float64 {
	out := make([]float64, len(c))
	if n <= 0 || len(c) == 0 {
		return out
	}
	var gain, loss float64
	for i := 1; i < len(c); i++ {
		d := c[i] - c[i-1]
		if i <= n {
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
			if i == n {
				out[i] = rsiFromAvg(gain/float64(n), loss/float64(n))
			}
		} else {
			if d > 0 {
				gain = (gain*float64(n-1) + d) / float64(n)
				loss = (loss * float64(n-1)) / float64(n)
			} else {
				gain = (gain * float64(n-1)) / float64(n)
				loss = (loss*float64(n-1) - d) / float64(n)
			}
			out[i] = rsiFromAvg(gain, loss)
		}
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
