package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

func TestWindow_CandidatesOrdered(t *testing.T) {
	w := NewWindow([]record.Record{
		rec(1010, "a"),
		rec(990, "b"),
		rec(1000, "c"),
		rec(2000, "d"),
	})
	require.Equal(t, 4, w.Len())

	got := w.Candidates(instant.FromEpochSeconds(1000), 10)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Record.TripID())
	assert.Equal(t, int64(0), got[0].Distance)
	assert.Equal(t, "a", got[1].Record.TripID(), "tie at distance 10 resolves by feed position")
	assert.Equal(t, 0, got[1].Position)
	assert.Equal(t, "b", got[2].Record.TripID())
}

func TestWindow_NearestMatchesCandidates(t *testing.T) {
	w := NewWindow([]record.Record{rec(1010, "a"), rec(990, "b")})

	n, ok := w.Nearest(instant.FromEpochSeconds(1000), 10)
	require.True(t, ok)
	assert.Equal(t, "a", n.TripID())

	_, ok = w.Nearest(instant.FromEpochSeconds(1000), 9)
	assert.False(t, ok)
}

func TestWindow_Covered(t *testing.T) {
	w := NewWindow([]record.Record{rec(100, "a")})
	assert.True(t, w.Covered(instant.FromEpochSeconds(115), 15))
	assert.False(t, w.Covered(instant.FromEpochSeconds(116), 15))
	assert.False(t, NewWindow(nil).Covered(instant.FromEpochSeconds(0), 100))
}

func TestCountAndKindString(t *testing.T) {
	c := Count([]Outcome{{Kind: Matched}, {Kind: Unmatched}, {Kind: NoCandidate}, {Kind: NoCandidate}})
	assert.Equal(t, Counts{Matched: 1, Unmatched: 1, NoCandidate: 2}, c)
	assert.Equal(t, 4, c.Total())
	assert.Equal(t, "no_candidate", NoCandidate.String())
}
