// FILE: csv.go
// Package main – CSV-driven backtest candle loader. Candle retrieval is
// external to the engine; a CSV file is one concrete source, feeding
// internal/barfeed.BarFeed in backtest mode.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/autotrader/internal/barfeed"
)

// loadCandleCSV reads a generic OHLCV CSV (headers: time|timestamp, open,
// high, low, close, volume; unknown columns ignored, headers
// case-insensitive) into ascending-timestamp Bars for symbol/interval.
func loadCandleCSV(path, symbol, intervalCode string) ([]barfeed.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []barfeed.Bar
	var headers []string
	rowIdx := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if rowIdx == 0 {
			headers = rec
			rowIdx++
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ts := first(row, "time", "timestamp")
		op := first(row, "open")
		hp := first(row, "high")
		lp := first(row, "low")
		cp := first(row, "close")
		vp := first(row, "volume", "vol")
		if ts == "" || op == "" || cp == "" {
			continue
		}
		at, unixSec, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		vol, _ := strconv.ParseInt(vp, 10, 64)
		out = append(out, barfeed.Bar{
			Timestamp:    unixSec,
			Datetime:     at,
			Open:         decOrZero(op),
			High:         decOrZero(hp),
			Low:          decOrZero(lp),
			Close:        decOrZero(cp),
			Volume:       vol,
			IntervalCode: intervalCode,
			Symbol:       symbol,
			IsLive:       false,
		})
		rowIdx++
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func decOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseTimeFlexible supports RFC3339 or UNIX seconds.
func parseTimeFlexible(s string) (time.Time, int64, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), ts.Unix(), nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), sec, nil
	}
	return time.Time{}, 0, fmt.Errorf("bad time: %s", s)
}

// first returns the first non-empty value for keys in m.
func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
