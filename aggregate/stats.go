package aggregate

import (
	"github.com/theoremus-urban-solutions/departure-delta/matcher"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// RunStats is the footer printed after a run.
type RunStats struct {
	TotalTrips      int `json:"total_trips"`
	PerfectTrips    int `json:"perfect_trips"`
	NoMatchTrips    int `json:"no_match_trips"`
	PartialTrips    int `json:"partial_trips"`
	DiscrepantTrips int `json:"discrepant_trips"`
	// TripIDMismatches counts distinct anchor trips with at least one matched
	// row whose counterpart carries a different trip id.
	TripIDMismatches int `json:"trip_id_mismatches"`
}

// Stats derives run statistics from the trip summaries and raw outcomes.
func Stats(summaries []TripSummary, outcomes []matcher.Outcome) RunStats {
	var s RunStats
	s.TotalTrips = len(summaries)
	for _, t := range summaries {
		switch {
		case t.UnmatchedRows == 0:
			s.PerfectTrips++
		case t.MatchedRows == 0:
			s.NoMatchTrips++
		default:
			s.PartialTrips++
		}
	}
	s.DiscrepantTrips = s.TotalTrips - s.PerfectTrips

	mismatched := map[string]struct{}{}
	for _, o := range outcomes {
		if o.Kind != matcher.Matched || o.Counterpart == nil {
			continue
		}
		trip, ok := o.Anchor.Attr(record.AttrTripID)
		if !ok {
			continue
		}
		if other, ok := o.Counterpart.Attr(record.AttrTripID); ok && other != trip {
			mismatched[trip] = struct{}{}
		}
	}
	s.TripIDMismatches = len(mismatched)
	return s
}
