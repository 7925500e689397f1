package instant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustZone(t *testing.T) *time.Location {
	t.Helper()
	loc, err := LoadZone("")
	require.NoError(t, err)
	return loc
}

func TestWithinTolerance_InclusiveBounds(t *testing.T) {
	a := FromEpochSeconds(1000)

	assert.True(t, a.WithinTolerance(FromEpochSeconds(1015), 15))
	assert.True(t, a.WithinTolerance(FromEpochSeconds(985), 15))
	assert.False(t, a.WithinTolerance(FromEpochSeconds(1016), 15))
	assert.False(t, a.WithinTolerance(FromEpochSeconds(984), 15))
}

func TestWithinTolerance_AbsentNeverMatches(t *testing.T) {
	a := FromEpochSeconds(1000)
	assert.False(t, a.WithinTolerance(Instant{}, 1<<40))
	assert.False(t, Instant{}.WithinTolerance(a, 1<<40))
}

func TestDifference_Signed(t *testing.T) {
	a := FromEpochSeconds(1000)
	b := FromEpochSeconds(1060)
	assert.Equal(t, int64(-60), a.Difference(b))
	assert.Equal(t, int64(60), b.Difference(a))
	assert.Equal(t, int64(60), a.Distance(b))
}

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "1765447238", want: 1765447238},
		{in: " 1765447238 ", want: 1765447238},
		{in: "1765447238.9", want: 1765447238},
		{in: "", wantErr: true},
		{in: "nan", wantErr: true},
		{in: "tomorrow", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseEpoch(tt.in)
		if tt.wantErr {
			var pe *ParseError
			assert.ErrorAs(t, err, &pe, "input %q", tt.in)
			assert.False(t, got.Valid())
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got.Unix())
	}
}

func TestParse_TableauLayoutLocalizedToEastern(t *testing.T) {
	loc := mustZone(t)

	got, err := Parse("12/11/2025 5:00:38 AM", nil, loc)
	require.NoError(t, err)

	// 05:00:38 EST is 10:00:38 UTC.
	want := time.Date(2025, 12, 11, 10, 0, 38, 0, time.UTC).Unix()
	assert.Equal(t, want, got.Unix())
	assert.Equal(t, "2025-12-11 05:00:38 EST", got.DisplayIn(loc))
}

func TestParse_RFC3339KeepsOffset(t *testing.T) {
	loc := mustZone(t)
	got, err := Parse("2025-07-01T12:00:00Z", nil, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC).Unix(), got.Unix())
	assert.Equal(t, "2025-07-01 08:00:00 EDT", got.DisplayIn(loc))
}

func TestParse_RejectsDaylightSavingEdges(t *testing.T) {
	loc := mustZone(t)

	// 2025-11-02 01:30 happens twice in America/New_York.
	_, err := Parse("2025-11-02 01:30:00", nil, loc)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "ambiguous")

	// 2025-03-09 02:30 never happens.
	_, err = Parse("2025-03-09 02:30:00", nil, loc)
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "nonexistent")
}

func TestParseWith_StandardOnOverlap(t *testing.T) {
	loc := mustZone(t)

	at, err := ParseWith("2025-11-02 01:30:00", nil, loc, StandardOnOverlap)
	require.NoError(t, err)
	assert.Equal(t, "2025-11-02 01:30:00 EST", at.DisplayIn(loc))
	assert.Equal(t, time.Date(2025, 11, 2, 6, 30, 0, 0, time.UTC), at.Time())

	// Unambiguous and nonexistent wall clocks are unaffected.
	at, err = ParseWith("2025-11-02 03:30:00", nil, loc, StandardOnOverlap)
	require.NoError(t, err)
	assert.Equal(t, "2025-11-02 03:30:00 EST", at.DisplayIn(loc))
	_, err = ParseWith("2025-03-09 02:30:00", nil, loc, StandardOnOverlap)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "nonexistent")
}

func TestTime_UTC(t *testing.T) {
	at := FromEpochSeconds(1765447238)
	assert.Equal(t, time.UTC, at.Time().Location())
	assert.Equal(t, int64(1765447238), at.Time().Unix())
}

func TestParse_Garbage(t *testing.T) {
	_, err := Parse("not a time", nil, time.UTC)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "no layout matched", pe.Reason)
}

func TestDisplayIn_Absent(t *testing.T) {
	assert.Equal(t, "", Instant{}.DisplayIn(time.UTC))
	assert.Equal(t, "<absent>", Instant{}.String())
}
