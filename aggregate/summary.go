package aggregate

import (
	"math"
	"sort"

	"github.com/theoremus-urban-solutions/departure-delta/matcher"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// TripSummary is the per-key match tally.
type TripSummary struct {
	TripID           string  `json:"trip_id"`
	TotalRows        int     `json:"total_rows"`
	MatchedRows      int     `json:"matched_rows"`
	UnmatchedRows    int     `json:"unmatched_rows"`
	MatchRatePercent float64 `json:"match_rate_percent"`
}

// RoundRate returns 100*matched/total rounded to two decimals, or 0 when total
// is zero.
func RoundRate(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(100*float64(matched)/float64(total)*100) / 100
}

// Summarize groups anchors by the groupBy attribute and counts how many of
// each group's records were matched. Row totals come from the anchor feed;
// outcomes only contribute matched Index values. Anchors lacking the attribute
// are skipped. Results are sorted by key.
func Summarize(anchors []record.Record, outcomes []matcher.Outcome, groupBy string) []TripSummary {
	matched := make(map[int]struct{}, len(outcomes))
	for _, o := range outcomes {
		if o.Kind == matcher.Matched {
			matched[o.Anchor.Index] = struct{}{}
		}
	}

	groups := map[string]*TripSummary{}
	for _, a := range anchors {
		key, ok := a.Attr(groupBy)
		if !ok {
			continue
		}
		s := groups[key]
		if s == nil {
			s = &TripSummary{TripID: key}
			groups[key] = s
		}
		s.TotalRows++
		if _, ok := matched[a.Index]; ok {
			s.MatchedRows++
		}
	}

	out := make([]TripSummary, 0, len(groups))
	for _, s := range groups {
		s.UnmatchedRows = s.TotalRows - s.MatchedRows
		s.MatchRatePercent = RoundRate(s.MatchedRows, s.TotalRows)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TripID < out[j].TripID })
	return out
}
