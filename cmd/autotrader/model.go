// FILE: model.go
// Package main – tiny in-memory logistic-regression "micro-model" for
// directional bias over the barfeed.Bar-derived feature set below. This is
// the decision core of the example Strategy (cmd/autotrader/strategy.go),
// not part of the engine itself.
package main

import (
	"math"
	"math/rand"
)

type microModel struct {
	W []float64
	B float64
}

func newMicroModel(seed int64) *microModel {
	r := rand.New(rand.NewSource(seed))
	w := make([]float64, 4) // ret1, ret5, rsi14/100, zscore20
	for i := range w {
		w[i] = r.NormFloat64() * 0.01
	}
	return &microModel{W: w}
}

func sigmoid(x float64) float64 {
	if x > 20 {
		return 1
	}
	if x < -20 {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

// predict expects exactly len(W) features; otherwise returns 0.5.
func (m *microModel) predict(features []float64) float64 {
	if len(features) != len(m.W) {
		return 0.5
	}
	z := m.B
	for i := range features {
		z += m.W[i] * features[i]
	}
	return sigmoid(z)
}

// fit performs simple gradient-descent steps on cross-entropy loss over
// closes.
func (m *microModel) fit(closesSeries []float64, lr float64, epochs int) {
	if len(closesSeries) < 40 {
		return
	}
	feats, labels := buildDataset(closesSeries)
	for e := 0; e < epochs; e++ {
		for i := range feats {
			p := m.predict(feats[i])
			grad := p - labels[i]
			for j := range m.W {
				m.W[j] -= lr * grad * feats[i][j]
			}
			m.B -= lr * grad
		}
	}
}

// buildDataset creates (features, labels) from a closing-price series.
func buildDataset(c []float64) ([][]float64, []float64) {
	var feats [][]float64
	var labels []float64
	rsis := RSI(c, 14)
	zs := ZScore(c, 20)
	for i := 21; i < len(c)-1; i++ {
		ret1 := (c[i] - c[i-1]) / c[i-1]
		ret5 := (c[i] - c[i-5]) / c[i-5]
		f := []float64{ret1, ret5, rsis[i] / 100.0, zs[i]}
		up := 0.0
		if c[i+1] > c[i] {
			up = 1.0
		}
		feats = append(feats, f)
		labels = append(labels, up)
	}
	return feats, labels
}

// features returns the model's input row for the most recent bar in c, and
// false if there isn't enough history yet.
func features(c []float64) ([]float64, bool) {
	if len(c) < 40 {
		return nil, false
	}
	i := len(c) - 1
	rsis := RSI(c, 14)
	zs := ZScore(c, 20)
	ret1 := (c[i] - c[i-1]) / c[i-1]
	ret5 := (c[i] - c[i-5]) / c[i-5]
	return []float64{ret1, ret5, rsis[i] / 100.0, zs[i]}, true
}
