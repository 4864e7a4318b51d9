// FILE: barfeed.go
// Package barfeed – BarFeed: a rolling frame of bars keyed by timestamp,
// deduplicated on ingest, with the cursor views the Trade Driver iterates.
package barfeed

import (
	"sort"

	"github.com/chidi150c/autotrader/internal/market"
)

// BarFeed holds bars in ascending timestamp order and exposes the cursor
// operations the Trade Driver needs.
type BarFeed struct {
	bars   []Bar
	oracle market.HourOracle

	dataDelaySeconds        int
	firstRefreshLastValidTS int64
	haveFirstRefresh        bool
}

// New returns an empty BarFeed backed by oracle for session/timing queries.
func New(oracle market.HourOracle, dataDelaySeconds int) *BarFeed {
	return &BarFeed{oracle: oracle, dataDelaySeconds: dataDelaySeconds}
}

// Update merges df into the feed, deduplicating by timestamp and
// re-sorting ascending. Calling Update with the same bars twice leaves the
// frame unchanged.
func (f *BarFeed) Update(df []Bar) {
	byTS := make(map[int64]Bar, len(f.bars)+len(df))
	for _, b := range f.bars {
		byTS[b.Timestamp] = b
	}
	for _, b := range df {
		byTS[b.Timestamp] = b
	}
	merged := make([]Bar, 0, len(byTS))
	for _, b := range byTS {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	f.bars = merged

	if !f.haveFirstRefresh && len(f.bars) > 0 {
		f.firstRefreshLastValidTS = f.bars[len(f.bars)-1].Timestamp
		f.haveFirstRefresh = true
	}
}

// ValidBarCount returns the number of bars currently loaded.
func (f *BarFeed) ValidBarCount() int { return len(f.bars) }

// LastValidBar returns the most recent bar (largest timestamp), and false if empty.
func (f *BarFeed) LastValidBar() (Bar, bool) {
	if len(f.bars) == 0 {
		return Bar{}, false
	}
	return f.bars[len(f.bars)-1], true
}

// LatestRetrievedBar is an alias for LastValidBar: the newest bar this feed
// has ever ingested, live or replayed.
func (f *BarFeed) LatestRetrievedBar() (Bar, bool) { return f.LastValidBar() }

// IsLive reports whether the bar at pos (0-based from the oldest retained)
// came from a live refresh: its timestamp is >= the first refresh's
// last-valid timestamp and the market is currently open.
func (f *BarFeed) IsLive(pos int) bool {
	if pos < 0 || pos >= len(f.bars) {
		return false
	}
	b := f.bars[pos]
	return b.Timestamp >= f.firstRefreshLastValidTS && f.oracle.IsOpenNow()
}

// BarsAt returns the deque view anchored at pos: index 0 is the bar at pos
// (the "current" bar), and the remainder are prior bars in reverse order, so
// bars[len-1] is the most distant retained bar.
func (f *BarFeed) BarsAt(pos int) []Bar {
	if pos < 0 || pos >= len(f.bars) {
		return nil
	}
	window := f.bars[:pos+1]
	out := make([]Bar, len(window))
	for i, b := range window {
		out[len(window)-1-i] = b
	}
	return out
}

// DataDelaySeconds returns the configured post-bar-boundary delay before refreshing.
func (f *BarFeed) DataDelaySeconds() int { return f.dataDelaySeconds }

// SecondsToNextBar delegates to the market oracle.
func (f *BarFeed) SecondsToNextBar() int { return f.oracle.SecondsToNextBar() }
