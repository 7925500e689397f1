package instant

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultZone is the civil timezone both departure feeds are displayed in.
const DefaultZone = "America/New_York"

// DisplayLayout renders an instant as e.g. "2025-12-11 05:00:38 EST".
const DisplayLayout = "2006-01-02 15:04:05 MST"

// DefaultLayouts are the wall-clock layouts accepted from reference exports,
// tried in order.
var DefaultLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Instant is an absolute point in time with one-second resolution.
type Instant struct {
	sec   int64
	valid bool
}

// FromEpochSeconds returns the instant n seconds after the Unix epoch.
func FromEpochSeconds(n int64) Instant {
	return Instant{sec: n, valid: true}
}

// FromTime truncates t to whole seconds.
func FromTime(t time.Time) Instant {
	return FromEpochSeconds(t.Unix())
}

// Valid reports whether the instant holds a value.
func (i Instant) Valid() bool { return i.valid }

// Unix returns seconds since the epoch; 0 for an absent instant.
func (i Instant) Unix() int64 { return i.sec }

// Time converts to a time.Time in UTC.
func (i Instant) Time() time.Time { return time.Unix(i.sec, 0).UTC() }

// DisplayIn formats the instant in loc using DisplayLayout.
// Absent instants render as the empty string.
func (i Instant) DisplayIn(loc *time.Location) string {
	if !i.valid {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(i.sec, 0).In(loc).Format(DisplayLayout)
}

// Difference returns i - other in seconds.
func (i Instant) Difference(other Instant) int64 {
	return i.sec - other.sec
}

// Distance is the absolute difference in seconds.
func (i Instant) Distance(other Instant) int64 {
	d := i.Difference(other)
	if d < 0 {
		return -d
	}
	return d
}

// WithinTolerance reports whether both instants are present and at most tau
// seconds apart. Both bounds are inclusive.
func (i Instant) WithinTolerance(other Instant, tau int64) bool {
	if !i.valid || !other.valid {
		return false
	}
	return i.Distance(other) <= tau
}

func (i Instant) String() string {
	if !i.valid {
		return "<absent>"
	}
	return strconv.FormatInt(i.sec, 10)
}

// LoadZone resolves an IANA zone name; empty selects DefaultZone.
func LoadZone(id string) (*time.Location, error) {
	if strings.TrimSpace(id) == "" {
		id = DefaultZone
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", id, err)
	}
	return loc, nil
}

// ParseEpoch interprets s as numeric epoch seconds. Fractional values are
// truncated toward zero.
func ParseEpoch(s string) (Instant, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Instant{}, &ParseError{Value: s, Reason: "empty"}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromEpochSeconds(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Instant{}, &ParseError{Value: s, Reason: "not a number", Err: err}
	}
	return FromEpochSeconds(int64(f)), nil
}

// Overlap selects how a wall clock repeated by a daylight-saving fall-back
// is read.
type Overlap int

const (
	// RejectOverlap fails the parse.
	RejectOverlap Overlap = iota
	// StandardOnOverlap takes the standard-time (later) reading.
	StandardOnOverlap
)

// Parse localizes a civil wall-clock string in loc. Wall clocks that fall in a
// daylight-saving gap or overlap are rejected rather than guessed.
func Parse(s string, layouts []string, loc *time.Location) (Instant, error) {
	return ParseWith(s, layouts, loc, RejectOverlap)
}

// ParseWith is Parse with an explicit overlap policy. Gap wall clocks are
// always rejected.
func ParseWith(s string, layouts []string, loc *time.Location, overlap Overlap) (Instant, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Instant{}, &ParseError{Value: s, Reason: "empty"}
	}
	if loc == nil {
		loc = time.UTC
	}
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if carriesOffset(layout) {
			return FromTime(t), nil
		}
		wall, _ := time.Parse(layout, s)
		if !sameWallClock(t.In(loc), wall) {
			return Instant{}, &ParseError{Value: s, Reason: "nonexistent wall clock in " + loc.String()}
		}
		earlier := sameWallClock(t.Add(-time.Hour).In(loc), wall)
		later := sameWallClock(t.Add(time.Hour).In(loc), wall)
		if !earlier && !later {
			return FromTime(t), nil
		}
		if overlap == StandardOnOverlap {
			if later {
				t = t.Add(time.Hour)
			}
			return FromTime(t), nil
		}
		return Instant{}, &ParseError{Value: s, Reason: "ambiguous wall clock in " + loc.String()}
	}
	return Instant{}, &ParseError{Value: s, Reason: "no layout matched"}
}

func carriesOffset(layout string) bool {
	return strings.Contains(layout, "Z07") || strings.Contains(layout, "-07") || strings.Contains(layout, "MST")
}

func sameWallClock(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}

// ParseError reports a timestamp that could not be interpreted. The owning
// record is dropped by the caller.
type ParseError struct {
	Value  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse instant %q: %s", e.Value, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
