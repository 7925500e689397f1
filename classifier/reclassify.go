package classifier

import (
	"github.com/theoremus-urban-solutions/departure-delta/matcher"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// Reclassifier holds the wide feed indexed once for repeated lookups.
type Reclassifier struct {
	window *matcher.Window
	tau    int64
}

// NewReclassifier indexes wideFeed. wideTolerance is normally at least the
// primary tolerance used for matching.
func NewReclassifier(wideFeed []record.Record, wideTolerance int64) (*Reclassifier, error) {
	if err := record.Validate(wideFeed, "wide"); err != nil {
		return nil, err
	}
	return &Reclassifier{window: matcher.NewWindow(wideFeed), tau: wideTolerance}, nil
}

// Reclassify rewrites an outcome whose only reason is "no candidate within
// tolerance". If any wide-feed record lies within the wide tolerance, key
// attributes ignored, the outcome becomes a minor deviation with that record
// as its display counterpart. Otherwise it stays a no-candidate reason on an
// Unmatched outcome. Every other outcome is returned unchanged, which makes
// the operation idempotent.
func (rc *Reclassifier) Reclassify(o matcher.Outcome) matcher.Outcome {
	if o.Kind == matcher.Matched || !o.OnlyReason(matcher.ReasonNoCandidate) {
		return o
	}
	out := matcher.Outcome{
		Kind:    matcher.Unmatched,
		Anchor:  o.Anchor,
		Reasons: []string{matcher.ReasonNoCandidate},
	}
	if near, ok := rc.window.Nearest(o.Anchor.Primary, rc.tau); ok {
		out.Reasons = []string{matcher.ReasonMinorDeviation}
		out.Counterpart = &near
		out.Reclassified = true
	}
	return out
}

// ReclassifyAll applies Reclassify to each outcome and returns a new slice.
func (rc *Reclassifier) ReclassifyAll(outcomes []matcher.Outcome) []matcher.Outcome {
	out := make([]matcher.Outcome, len(outcomes))
	for i, o := range outcomes {
		out[i] = rc.Reclassify(o)
	}
	return out
}

// Reclassify is a one-shot form of Reclassifier.Reclassify.
func Reclassify(o matcher.Outcome, wideFeed []record.Record, wideTolerance int64) (matcher.Outcome, error) {
	rc, err := NewReclassifier(wideFeed, wideTolerance)
	if err != nil {
		return matcher.Outcome{}, err
	}
	return rc.Reclassify(o), nil
}
