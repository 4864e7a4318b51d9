// FILE: signalset.go
// Package signal – Signal Set: a fixed-cardinality collection of sibling
// signals (not a dependency chain). Up iff all members are up; down iff all
// members are down.
package signal

import (
	"sort"
	"time"

	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

// Set is a size-bounded collection of sibling signal ids sharing orientation.
type Set struct {
	graph   *Graph
	isBuy   bool
	members []ID
}

// NewSet validates that members share orientation, have unique Sequential
// values, and form a consecutive run.
func NewSet(g *Graph, isBuy bool, members ...ID) (*Set, error) {
	seqs := make([]int, 0, len(members))
	for _, id := range members {
		n := g.Node(id)
		if n.IsBuy != isBuy {
			return nil, &tradeerrors.DependentSignalConflict{LeaderCodename: "signal-set", FollowerCodename: n.Codename}
		}
		seqs = append(seqs, n.Sequential)
	}
	sort.Ints(seqs)
	for i := 1; i < len(seqs); i++ {
		if seqs[i] == seqs[i-1] {
			return nil, &tradeerrors.DependentSignalConflict{LeaderCodename: "signal-set", FollowerCodename: "duplicate sequential"}
		}
		if seqs[i] != seqs[i-1]+1 {
			return nil, &tradeerrors.MissingDependentSignalError{Codename: "signal-set", Sequence: "non-consecutive"}
		}
	}

	cp := make([]ID, len(members))
	copy(cp, members)
	return &Set{graph: g, isBuy: isBuy, members: cp}, nil
}

// IsUp reports whether every member is up.
func (s *Set) IsUp() bool {
	for _, id := range s.members {
		if !s.graph.IsUp(id) {
			return false
		}
	}
	return len(s.members) > 0
}

// IsDown reports whether every member is down.
func (s *Set) IsDown() bool {
	for _, id := range s.members {
		if s.graph.IsUp(id) {
			return false
		}
	}
	return true
}

// DownSignal clears every member.
func (s *Set) DownSignal() {
	for _, id := range s.members {
		s.graph.DownSignal(id)
	}
}

// LatestSignalUpTimestamp returns the member datetime/stamp with the latest
// signal_up_timestamp, reflecting the set's signal_up_* fields.
func (s *Set) LatestSignalUpTimestamp() time.Time {
	var latest time.Time
	for _, id := range s.members {
		n := s.graph.Node(id)
		if n.signalUpStamp.After(latest) {
			latest = n.signalUpStamp
		}
	}
	return latest
}
