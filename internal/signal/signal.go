// FILE: signal.go
// Package signal – composable up/down signals with leading-dependency
// semantics and a Signal Set aggregator.
//
// Nodes live in a Graph's slice, and leading/trailing links are stable
// integer ids rather than owning pointers — the bidirectional linkage makes
// an arena of ids the safe representation.
package signal

import (
	"time"

	"github.com/chidi150c/autotrader/internal/tradeerrors"
)

// Sequence is the position of a Signal within a dependent chain.
type Sequence int

const (
	SequenceOnly Sequence = iota
	SequenceFirst
	SequenceMiddle
	SequenceLast
)

// ID identifies a node within a Graph's arena.
type ID int

const noID ID = -1

// Node is one signal in the graph.
type Node struct {
	Codename   string
	Sequence   Sequence
	Sequential int
	IsBuy      bool

	leadingID  ID
	trailingID ID

	isUp           bool
	signalUpBar    int64
	price          float64
	volume         float64
	indicatorValue float64
	datetime       time.Time
	signalUpStamp  time.Time
}

// Graph owns a set of Nodes addressed by ID.
type Graph struct {
	nodes []Node
}

// NewGraph returns an empty arena.
func NewGraph() *Graph {
	return &Graph{}
}

// AddRoot inserts an Only or First signal (no leading dependent).
func (g *Graph) AddRoot(codename string, seq Sequence, isBuy bool) (ID, error) {
	if seq != SequenceOnly && seq != SequenceFirst {
		return noID, &tradeerrors.MissingDependentSignalError{Codename: codename, Sequence: seqName(seq)}
	}
	n := Node{Codename: codename, Sequence: seq, Sequential: 1, IsBuy: isBuy, leadingID: noID, trailingID: noID}
	g.nodes = append(g.nodes, n)
	return ID(len(g.nodes) - 1), nil
}

// AddDependent inserts a Middle or Last signal attached to leaderID.
// Attaching installs this node as the leader's trailing dependent
// (bidirectional linkage); a leader may have exactly one trailing dependent.
func (g *Graph) AddDependent(codename string, seq Sequence, leaderID ID, isBuy bool) (ID, error) {
	if seq != SequenceMiddle && seq != SequenceLast {
		return noID, &tradeerrors.SignalNotRequiredException{Codename: codename, Sequence: seqName(seq)}
	}
	if leaderID < 0 || int(leaderID) >= len(g.nodes) {
		return noID, &tradeerrors.MissingDependentSignalError{Codename: codename, Sequence: seqName(seq)}
	}
	leader := &g.nodes[leaderID]
	if leader.IsBuy != isBuy {
		return noID, &tradeerrors.DependentSignalConflict{LeaderCodename: leader.Codename, FollowerCodename: codename}
	}

	n := Node{
		Codename: codename, Sequence: seq, IsBuy: isBuy,
		Sequential: leader.Sequential + 1,
		leadingID:  leaderID, trailingID: noID,
	}
	g.nodes = append(g.nodes, n)
	newID := ID(len(g.nodes) - 1)
	g.nodes[leaderID].trailingID = newID
	return newID, nil
}

func seqName(s Sequence) string {
	switch s {
	case SequenceOnly:
		return "Only"
	case SequenceFirst:
		return "First"
	case SequenceMiddle:
		return "Middle"
	case SequenceLast:
		return "Last"
	default:
		return "Unknown"
	}
}

// UpSignal records bar/price/volume/indicator and raises the node's own flag.
// If the leading dependent exists and is not up, it immediately cascades
// down_signal on self — a Last cannot latch without its First already
// latched.
func (g *Graph) UpSignal(id ID, barTimestamp int64, price, volume, indicatorValue float64, at time.Time) {
	n := &g.nodes[id]
	n.isUp = true
	n.signalUpBar = barTimestamp
	n.price = price
	n.volume = volume
	n.indicatorValue = indicatorValue
	n.datetime = at
	n.signalUpStamp = at

	if n.leadingID != noID && !g.nodes[n.leadingID].isUp {
		g.DownSignal(id)
	}
}

// DownSignal clears self and cascades to the trailing dependent if present.
// Calling it twice is idempotent.
func (g *Graph) DownSignal(id ID) {
	n := &g.nodes[id]
	n.isUp = false
	n.signalUpStamp = time.Time{}
	if n.trailingID != noID {
		g.DownSignal(n.trailingID)
	}
}

// IsUp returns the effective is_up: the node's own flag AND (recursively)
// its leading dependent's effective is_up.
func (g *Graph) IsUp(id ID) bool {
	n := &g.nodes[id]
	if !n.isUp {
		return false
	}
	if n.leadingID == noID {
		return true
	}
	return g.IsUp(n.leadingID)
}

// Node returns a copy of the node record for inspection.
func (g *Graph) Node(id ID) Node {
	return g.nodes[id]
}
