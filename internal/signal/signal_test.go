package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignalChainCascades(t *testing.T) {
	g := NewGraph()
	first, err := g.AddRoot("first-buy", SequenceFirst, true)
	require.NoError(t, err)
	last, err := g.AddDependent("last-buy", SequenceLast, first, true)
	require.NoError(t, err)

	require.Equal(t, 1, g.Node(first).Sequential)
	require.Equal(t, 2, g.Node(last).Sequential)

	barA := int64(1000)
	g.UpSignal(first, barA, 100, 10, 0, time.Unix(barA, 0))
	require.True(t, g.IsUp(first))
	require.False(t, g.IsUp(last), "last cannot be up before its own up_signal")

	barB := int64(1060)
	g.UpSignal(last, barB, 101, 10, 0, time.Unix(barB, 0))
	require.True(t, g.IsUp(last), "effective is_up true once both first and last are up")

	g.DownSignal(first)
	require.False(t, g.IsUp(first))
	require.False(t, g.IsUp(last), "cascade clears the trailing dependent")
}

func TestUpSignalSelfDownsWhenLeaderNotUp(t *testing.T) {
	g := NewGraph()
	first, _ := g.AddRoot("first-buy", SequenceFirst, true)
	last, _ := g.AddDependent("last-buy", SequenceLast, first, true)

	g.UpSignal(last, 1000, 100, 10, 0, time.Unix(1000, 0))
	require.False(t, g.IsUp(last), "a Last cannot latch without its First already latched")
}

func TestDownSignalIdempotent(t *testing.T) {
	g := NewGraph()
	first, _ := g.AddRoot("first-buy", SequenceFirst, true)
	g.UpSignal(first, 1000, 100, 10, 0, time.Unix(1000, 0))
	g.DownSignal(first)
	g.DownSignal(first)
	require.False(t, g.IsUp(first))
}

func TestMiddleRejectedWithoutLeadingDependent(t *testing.T) {
	g := NewGraph()
	_, err := g.AddRoot("solo", SequenceMiddle, true)
	require.Error(t, err)
}

func TestDependentOrientationMismatchRejected(t *testing.T) {
	g := NewGraph()
	first, _ := g.AddRoot("first-buy", SequenceFirst, true)
	_, err := g.AddDependent("last-sell", SequenceLast, first, false)
	require.Error(t, err)
}

func TestSignalSetAllUpAllDown(t *testing.T) {
	g := NewGraph()
	a, _ := g.AddRoot("a", SequenceFirst, true)
	b, err := g.AddDependent("b", SequenceLast, a, true)
	require.NoError(t, err)

	set, err := NewSet(g, true, a, b)
	require.NoError(t, err)
	require.True(t, set.IsDown())
	require.False(t, set.IsUp())

	g.UpSignal(a, 1, 100, 1, 0, time.Unix(1, 0))
	require.False(t, set.IsUp(), "b not up yet")

	g.UpSignal(b, 2, 101, 1, 0, time.Unix(2, 0))
	require.True(t, set.IsUp())

	set.DownSignal()
	require.True(t, set.IsDown())
}
