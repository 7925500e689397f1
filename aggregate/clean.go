package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/departure-delta/classifier"
	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/matcher"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// CleanRow is one line of the clean unmatched listing: every unmatched anchor
// sharing a departure second and trip id, collapsed.
type CleanRow struct {
	DepartureTime            string
	TripID                   string
	Consist                  string
	AnchorDepartureTime      string
	CounterpartDepartureTime string
	Reasons                  string

	unix int64
}

// CleanUnmatched collapses reclassified, non-matched outcomes by (anchor
// departure second, trip id). The counterpart time is the first display
// counterpart in the group or, failing that, the first record of fallback
// carrying the same trip id. Rows are sorted by time then trip id.
func CleanUnmatched(outcomes []matcher.Outcome, fallback []record.Record, loc *time.Location) []CleanRow {
	type key struct {
		unix int64
		trip string
	}
	type group struct {
		consists    []string
		seen        map[string]struct{}
		counterpart string
		reasons     map[string]struct{}
	}

	groups := map[key]*group{}
	var order []key
	for _, o := range outcomes {
		if o.Kind == matcher.Matched {
			continue
		}
		k := key{unix: o.Anchor.Primary.Unix(), trip: o.Anchor.TripID()}
		g := groups[k]
		if g == nil {
			g = &group{seen: map[string]struct{}{}, reasons: map[string]struct{}{}}
			groups[k] = g
			order = append(order, k)
		}
		if c := o.Anchor.Consist(); c != "" {
			if _, dup := g.seen[c]; !dup {
				g.seen[c] = struct{}{}
				g.consists = append(g.consists, c)
			}
		}
		if g.counterpart == "" && o.Counterpart != nil {
			g.counterpart = o.Counterpart.Primary.DisplayIn(loc)
		}
		for _, r := range o.Reasons {
			if r = strings.TrimSpace(r); r != "" {
				g.reasons[r] = struct{}{}
			}
		}
	}

	firstByTrip := map[string]record.Record{}
	for _, r := range fallback {
		trip := r.TripID()
		if _, ok := firstByTrip[trip]; !ok {
			firstByTrip[trip] = r
		}
	}

	rows := make([]CleanRow, 0, len(order))
	for _, k := range order {
		g := groups[k]
		cp := g.counterpart
		if cp == "" {
			if r, ok := firstByTrip[k.trip]; ok {
				cp = r.Primary.DisplayIn(loc)
			}
		}
		at := instant.FromEpochSeconds(k.unix).DisplayIn(loc)
		rows = append(rows, CleanRow{
			DepartureTime:            at,
			TripID:                   k.trip,
			Consist:                  strings.Join(g.consists, matcher.ReasonSeparator),
			AnchorDepartureTime:      at,
			CounterpartDepartureTime: cp,
			Reasons:                  classifier.JoinReasons(g.reasons),
			unix:                     k.unix,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].unix != rows[j].unix {
			return rows[i].unix < rows[j].unix
		}
		return rows[i].TripID < rows[j].TripID
	})
	return rows
}
