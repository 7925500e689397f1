package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/departure-delta/config"
	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/matcher"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

type row struct {
	dep, gen, pred int64
	trip           string
	fp             bool
}

func feed(src record.Source, rows ...row) []record.Record {
	out := make([]record.Record, len(rows))
	for i, r := range rows {
		rec := record.Record{
			Index:   i,
			Source:  src,
			Primary: instant.FromEpochSeconds(r.dep),
			Auxiliary: map[string]instant.Instant{
				record.FieldGenerated:          instant.FromEpochSeconds(r.gen),
				record.FieldPredictedDeparture: instant.FromEpochSeconds(r.pred),
			},
			Attributes: map[string]string{record.AttrTripID: r.trip},
		}
		if r.fp {
			rec.Attributes[record.AttrFalsePositive] = "true"
		}
		out[i] = rec
	}
	return out
}

func testConfig(mode Mode) Config {
	return Config{
		Mode:               mode,
		PrimaryTolerance:   15,
		SecondaryTolerance: 30,
		WideTolerance:      60,
	}
}

func TestRun_Delta(t *testing.T) {
	prediction := feed(record.Prediction,
		row{dep: 1000, gen: 500, pred: 1000, trip: "A"},
		row{dep: 2000, gen: 500, pred: 2000, trip: "A"},
		row{dep: 3000, gen: 900, pred: 3000, trip: "B"},
		row{dep: 4000, gen: 900, pred: 4000, trip: "C"},
	)
	reference := feed(record.Reference,
		row{dep: 1010, gen: 510, pred: 1010, trip: "A"},
		row{dep: 2005, gen: 560, pred: 2005, trip: "A"},
		row{dep: 3040, gen: 900, pred: 3040, trip: "B"},
	)

	res, err := Run(context.Background(), testConfig(ModeDelta), prediction, reference)
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 4)
	assert.Equal(t, matcher.Matched, res.Outcomes[0].Kind)
	assert.Equal(t, matcher.Unmatched, res.Outcomes[1].Kind)
	assert.Equal(t, []string{"generated difference exceeds tolerance"}, res.Outcomes[1].Reasons)
	assert.Equal(t, matcher.NoCandidate, res.Outcomes[2].Kind)
	assert.Equal(t, matcher.NoCandidate, res.Outcomes[3].Kind)

	assert.Equal(t, []string{matcher.ReasonMinorDeviation}, res.Reclassified[2].Reasons)
	assert.Equal(t, []string{matcher.ReasonNoCandidate}, res.Reclassified[3].Reasons)

	assert.Equal(t, matcher.Counts{Matched: 1, Unmatched: 1, NoCandidate: 2}, res.Counts)
	require.Len(t, res.Summaries, 3)
	assert.Equal(t, 50.0, res.Summaries[0].MatchRatePercent)
	assert.Equal(t, 1, res.Stats.PartialTrips)
	assert.Equal(t, 2, res.Stats.NoMatchTrips)
	require.Len(t, res.Clean, 3)
	assert.Equal(t, matcher.ReasonMinorDeviation, res.Clean[1].Reasons)
	assert.Empty(t, res.OtherOnly)
}

func TestRun_SummariesIgnoreCallerIndex(t *testing.T) {
	prediction := []record.Record{
		{Primary: instant.FromEpochSeconds(1000), Attributes: map[string]string{record.AttrTripID: "A"}},
		{Primary: instant.FromEpochSeconds(5000), Attributes: map[string]string{record.AttrTripID: "A"}},
	}
	reference := []record.Record{
		{Primary: instant.FromEpochSeconds(1005), Attributes: map[string]string{record.AttrTripID: "A"}},
	}
	cfg := testConfig(ModeDelta)
	cfg.CheckFields = []string{}

	res, err := Run(context.Background(), cfg, prediction, reference)
	require.NoError(t, err)
	assert.Equal(t, matcher.Counts{Matched: 1, NoCandidate: 1}, res.Counts)
	require.Len(t, res.Summaries, 1)
	s := res.Summaries[0]
	assert.Equal(t, 2, s.TotalRows)
	assert.Equal(t, 1, s.MatchedRows)
	assert.Equal(t, 1, s.UnmatchedRows)
	assert.Equal(t, 50.0, s.MatchRatePercent)
	assert.Equal(t, 0, prediction[1].Index)
}

func TestRun_GapAnchorsOnReference(t *testing.T) {
	prediction := feed(record.Prediction, row{dep: 1000, gen: 500, pred: 1000, trip: "A"})
	reference := feed(record.Reference,
		row{dep: 1010, gen: 510, pred: 1010, trip: "A"},
		row{dep: 9000, gen: 510, pred: 9000, trip: "B"},
	)

	res, err := Run(context.Background(), testConfig(ModeGap), prediction, reference)
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, record.Reference, res.Outcomes[0].Anchor.Source)
	assert.Equal(t, matcher.Matched, res.Outcomes[0].Kind)
	assert.Equal(t, matcher.NoCandidate, res.Outcomes[1].Kind)
}

func TestRun_PresenceSetsAsideFalsePositives(t *testing.T) {
	prediction := feed(record.Prediction,
		row{dep: 1000, gen: 1, pred: 1, trip: "A"},
		row{dep: 5000, gen: 1, pred: 1, trip: "Z"},
	)
	reference := feed(record.Reference,
		row{dep: 1010, gen: 999, pred: 999, trip: "A"},
		row{dep: 3000, trip: "B", fp: true},
		row{dep: 4000, trip: "C"},
	)

	res, err := Run(context.Background(), testConfig(ModePresence), prediction, reference)
	require.NoError(t, err)

	// Secondary checks are off, so the drifted generated time still matches.
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, matcher.Matched, res.Outcomes[0].Kind)
	assert.Equal(t, "C", res.Outcomes[1].Anchor.TripID())
	assert.Equal(t, matcher.Counts{NoCandidate: 1}, res.FalsePositives)
	assert.Len(t, res.Anchors, 2)

	require.Len(t, res.OtherOnly, 1)
	assert.Equal(t, "Z", res.OtherOnly[0].TripID())
	assert.Equal(t, res.Outcomes, res.Reclassified)
}

func TestRun_DeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	res, err := Run(ctx, testConfig(ModeDelta), feed(record.Prediction, row{dep: 1, trip: "A"}), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, res)
}

func TestRun_InvariantViolation(t *testing.T) {
	_, err := Run(context.Background(), testConfig(ModeDelta), []record.Record{{}}, nil)
	var iv *record.InvariantViolation
	assert.ErrorAs(t, err, &iv)
}

func TestRun_EmptyInputs(t *testing.T) {
	res, err := Run(context.Background(), testConfig(ModeDelta), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Outcomes)
	assert.Empty(t, res.Summaries)
	assert.Equal(t, 0, res.Counts.Total())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("gap")
	require.NoError(t, err)
	assert.Equal(t, ModeGap, m)
	_, err = ParseMode("nearest")
	assert.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	app := config.Default()
	app.Mode = "presence"
	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, ModePresence, cfg.Mode)
	assert.Equal(t, int64(15), cfg.PrimaryTolerance)
	assert.Equal(t, "America/New_York", cfg.Location.String())

	app.Timezone = "Mars/Olympus_Mons"
	_, err = FromAppConfig(app)
	assert.Error(t, err)
}
