package pipeline

import (
	"context"
	"fmt"

	"github.com/theoremus-urban-solutions/departure-delta/aggregate"
	"github.com/theoremus-urban-solutions/departure-delta/classifier"
	"github.com/theoremus-urban-solutions/departure-delta/matcher"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// Result holds every table a run produces.
type Result struct {
	Mode   Mode
	Config Config
	// Anchors and Others are the feeds in their matching roles. In presence
	// mode false-positive anchors are excluded.
	Anchors []record.Record
	Others  []record.Record

	// Outcomes are the raw match results, one per anchor.
	Outcomes []matcher.Outcome
	// Reclassified are Outcomes after minor-deviation reclassification.
	Reclassified []matcher.Outcome

	Summaries []aggregate.TripSummary
	Reasons   []classifier.ReasonSummary
	Clean     []aggregate.CleanRow
	Stats     aggregate.RunStats
	Counts    matcher.Counts

	// OtherOnly lists other-feed departures no anchor window covers. Presence
	// mode only.
	OtherOnly []record.Record
	// FalsePositives tallies the outcomes of flagged reference rows that were
	// set aside. Presence mode only.
	FalsePositives matcher.Counts
}

// Run reconciles the prediction feed against the reference feed. Both feeds
// are reindexed by position, so caller-supplied Index values are ignored.
func Run(ctx context.Context, cfg Config, prediction, reference []record.Record) (*Result, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger.With("component", "pipeline", "mode", string(cfg.Mode))
	prediction, reference = record.Reindex(prediction), record.Reindex(reference)

	var anchors, others []record.Record
	var checks []matcher.Check
	switch cfg.Mode {
	case ModeDelta:
		anchors, others = prediction, reference
	case ModeGap, ModePresence:
		anchors, others = reference, prediction
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if cfg.Mode != ModePresence {
		for _, f := range cfg.CheckFields {
			checks = append(checks, matcher.Check{Field: f, Tolerance: cfg.SecondaryTolerance})
		}
	}

	log.Info("matching", "anchors", len(anchors), "others", len(others),
		"primary_tolerance", cfg.PrimaryTolerance, "secondary_tolerance", cfg.SecondaryTolerance)
	outcomes, err := matcher.Match(ctx, anchors, others, matcher.Options{
		PrimaryTolerance: cfg.PrimaryTolerance,
		Checks:           checks,
		Workers:          cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}

	res := &Result{Mode: cfg.Mode, Config: cfg, Others: others}
	if cfg.Mode == ModePresence {
		res.OtherOnly, err = aggregate.OtherOnly(anchors, others, cfg.PrimaryTolerance)
		if err != nil {
			return nil, err
		}
		anchors, outcomes, res.FalsePositives = setAsideFalsePositives(anchors, outcomes)
		if fp := res.FalsePositives.Total(); fp > 0 {
			log.Info("false positive departures set aside", "rows", fp)
		}
		res.Reclassified = outcomes
	} else {
		rc, err := classifier.NewReclassifier(others, cfg.WideTolerance)
		if err != nil {
			return nil, fmt.Errorf("reclassify: %w", err)
		}
		res.Reclassified = rc.ReclassifyAll(outcomes)
	}
	res.Anchors = anchors
	res.Outcomes = outcomes

	res.Summaries = aggregate.Summarize(anchors, outcomes, cfg.GroupBy)
	res.Reasons = classifier.CollapseReasons(outcomes, cfg.GroupBy)
	res.Clean = aggregate.CleanUnmatched(res.Reclassified, others, cfg.Location)
	res.Stats = aggregate.Stats(res.Summaries, outcomes)
	res.Counts = matcher.Count(outcomes)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info("run complete",
		"matched", res.Counts.Matched,
		"unmatched", res.Counts.Unmatched,
		"no_candidate", res.Counts.NoCandidate,
		"trips", res.Stats.TotalTrips)
	return res, nil
}

// setAsideFalsePositives drops flagged anchors and their outcomes, counting
// the dropped outcomes by kind.
func setAsideFalsePositives(anchors []record.Record, outcomes []matcher.Outcome) ([]record.Record, []matcher.Outcome, matcher.Counts) {
	var flagged []matcher.Outcome
	keptAnchors := make([]record.Record, 0, len(anchors))
	keptOutcomes := make([]matcher.Outcome, 0, len(outcomes))
	for i, o := range outcomes {
		if anchors[i].FalsePositive() {
			flagged = append(flagged, o)
			continue
		}
		keptAnchors = append(keptAnchors, anchors[i])
		keptOutcomes = append(keptOutcomes, o)
	}
	return keptAnchors, keptOutcomes, matcher.Count(flagged)
}
