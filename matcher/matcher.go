package matcher

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// Check is a secondary tolerance test on an auxiliary field.
type Check struct {
	Field     string
	Tolerance int64
}

// Options configures a Match call. Tolerances are seconds.
type Options struct {
	PrimaryTolerance int64
	Checks           []Check
	// Workers shards the anchor feed across goroutines. Values below 2 run on
	// the calling goroutine.
	Workers int
}

// Match pairs every anchor with the other feed. The result has one Outcome per
// anchor, in anchor order. A record without a primary instant in either feed
// yields *record.InvariantViolation. Cancelling ctx abandons the run.
func Match(ctx context.Context, anchors, others []record.Record, opts Options) ([]Outcome, error) {
	if err := record.Validate(anchors, "anchor"); err != nil {
		return nil, err
	}
	if err := record.Validate(others, "other"); err != nil {
		return nil, err
	}

	out := make([]Outcome, len(anchors))
	if len(anchors) == 0 {
		return out, nil
	}
	w := NewWindow(others)

	workers := opts.Workers
	if workers > len(anchors) {
		workers = len(anchors)
	}
	if workers < 2 {
		if err := matchRange(ctx, w, anchors, out, 0, len(anchors), opts); err != nil {
			return nil, err
		}
		return out, nil
	}

	// Shards are contiguous and write only their own slots of out.
	shard := (len(anchors) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(anchors); start += shard {
		start, end := start, min(start+shard, len(anchors))
		g.Go(func() error {
			return matchRange(gctx, w, anchors, out, start, end, opts)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ctxCheckEvery bounds how many anchors are matched between context checks.
const ctxCheckEvery = 1024

func matchRange(ctx context.Context, w *Window, anchors []record.Record, out []Outcome, start, end int, opts Options) error {
	for i := start; i < end; i++ {
		if (i-start)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		out[i] = matchOne(w, anchors[i], opts)
	}
	return nil
}

func matchOne(w *Window, a record.Record, opts Options) Outcome {
	cands := w.Candidates(a.Primary, opts.PrimaryTolerance)
	if len(cands) == 0 {
		return Outcome{Kind: NoCandidate, Anchor: a, Reasons: []string{ReasonNoCandidate}}
	}

	// passedBySome[j]: some candidate passed check j.
	// failedBySome[j]: some candidate failed check j.
	passedBySome := make([]bool, len(opts.Checks))
	failedBySome := make([]bool, len(opts.Checks))
	for _, c := range cands {
		all := true
		for j, chk := range opts.Checks {
			if passes(a, c.Record, chk) {
				passedBySome[j] = true
			} else {
				failedBySome[j] = true
				all = false
			}
		}
		if all {
			return Outcome{Kind: Matched, Anchor: a, Counterpart: counterpart(c.Record)}
		}
	}

	reasons := make([]string, 0, len(opts.Checks))
	for j, chk := range opts.Checks {
		if !passedBySome[j] {
			reasons = append(reasons, CheckReason(chk.Field))
		}
	}
	if len(reasons) == 0 {
		// Every check passed on some candidate, never all on the same one.
		for j, chk := range opts.Checks {
			if failedBySome[j] {
				reasons = append(reasons, CheckReason(chk.Field))
			}
		}
	}
	return Outcome{Kind: Unmatched, Anchor: a, Counterpart: counterpart(cands[0].Record), Reasons: reasons}
}

// passes applies one check to a candidate. A missing field on either side fails.
func passes(a, b record.Record, chk Check) bool {
	av, ok := a.Aux(chk.Field)
	if !ok {
		return false
	}
	bv, ok := b.Aux(chk.Field)
	if !ok {
		return false
	}
	return av.WithinTolerance(bv, chk.Tolerance)
}
