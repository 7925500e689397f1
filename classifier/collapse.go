package classifier

import (
	"sort"
	"strings"

	"github.com/theoremus-urban-solutions/departure-delta/matcher"
)

// ReasonSummary lists the distinct reasons seen across the unmatched rows of
// one key.
type ReasonSummary struct {
	Key           string
	Reasons       string
	UnmatchedRows int
}

// CollapseReasons groups non-matched outcomes by the groupBy attribute of their
// anchor, unions their reason codes, and joins each group's reasons in
// lexicographic order. Results are sorted by key, so the output depends only on
// the multiset of outcomes. Outcomes whose anchor lacks the attribute, or that
// carry no reasons, are skipped.
func CollapseReasons(outcomes []matcher.Outcome, groupBy string) []ReasonSummary {
	type group struct {
		reasons map[string]struct{}
		rows    int
	}
	groups := map[string]*group{}
	for _, o := range outcomes {
		if o.Kind == matcher.Matched || len(o.Reasons) == 0 {
			continue
		}
		key, ok := o.Anchor.Attr(groupBy)
		if !ok {
			continue
		}
		g := groups[key]
		if g == nil {
			g = &group{reasons: map[string]struct{}{}}
			groups[key] = g
		}
		g.rows++
		for _, r := range o.Reasons {
			if r = strings.TrimSpace(r); r != "" {
				g.reasons[r] = struct{}{}
			}
		}
	}

	out := make([]ReasonSummary, 0, len(groups))
	for key, g := range groups {
		out = append(out, ReasonSummary{
			Key:           key,
			Reasons:       JoinReasons(g.reasons),
			UnmatchedRows: g.rows,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// JoinReasons sorts a reason set and joins it with matcher.ReasonSeparator.
func JoinReasons(set map[string]struct{}) string {
	list := make([]string, 0, len(set))
	for r := range set {
		list = append(list, r)
	}
	sort.Strings(list)
	return strings.Join(list, matcher.ReasonSeparator)
}
