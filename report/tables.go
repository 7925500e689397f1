package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/theoremus-urban-solutions/departure-delta/aggregate"
	"github.com/theoremus-urban-solutions/departure-delta/classifier"
	"github.com/theoremus-urban-solutions/departure-delta/matcher"
	"github.com/theoremus-urban-solutions/departure-delta/pipeline"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// Output file names.
const (
	FileMatched   = "matched.csv"
	FileUnmatched = "unmatched.csv"
	FileSummary   = "summary.csv"
	FileReasons   = "mismatch_reason_summary.csv"
	FileClean     = "unmatched_clean.csv"
	FileOtherOnly = "other_only.csv"
	FilePresence  = "matches.csv"
	FileManifest  = "manifest.json"
	FileMetrics   = "metrics.prom"
)

// Presence sources.
const (
	SourceBoth           = "Both"
	SourceReferenceOnly  = "Reference Only"
	SourcePredictionOnly = "Prediction Only"
)

// Table is a CSV file in memory.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// WriteCSV writes the header and rows.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// File adapts the table for Writer.Commit.
func (t Table) File() File {
	return File{Name: t.Name, Write: t.WriteCSV}
}

var recordHeader = []string{
	"index", "departure_time_unix", "departure_time", "generated_time",
	"predicted_departure_time", "trip_id", "consist",
}

func recordCells(r record.Record, loc *time.Location) []string {
	gen, _ := r.Aux(record.FieldGenerated)
	pred, _ := r.Aux(record.FieldPredictedDeparture)
	return []string{
		strconv.Itoa(r.Index),
		strconv.FormatInt(r.Primary.Unix(), 10),
		r.Primary.DisplayIn(loc),
		gen.DisplayIn(loc),
		pred.DisplayIn(loc),
		r.TripID(),
		r.Consist(),
	}
}

// MatchedTable lists Matched outcomes with the validating counterpart.
func MatchedTable(outcomes []matcher.Outcome, loc *time.Location) Table {
	t := Table{
		Name: FileMatched,
		Header: append(append([]string{}, recordHeader...),
			"counterpart_index", "counterpart_departure_time", "counterpart_trip_id", "counterpart_consist"),
	}
	for _, o := range outcomes {
		if o.Kind != matcher.Matched || o.Counterpart == nil {
			continue
		}
		c := o.Counterpart
		t.Rows = append(t.Rows, append(recordCells(o.Anchor, loc),
			strconv.Itoa(c.Index), c.Primary.DisplayIn(loc), c.TripID(), c.Consist()))
	}
	return t
}

// UnmatchedTable lists every other outcome with its joined reasons and the
// display counterpart, if any.
func UnmatchedTable(outcomes []matcher.Outcome, loc *time.Location) Table {
	t := Table{
		Name: FileUnmatched,
		Header: append(append([]string{}, recordHeader...),
			"outcome", "mismatch_reason", "counterpart_departure_time", "counterpart_generated_time", "counterpart_trip_id"),
	}
	for _, o := range outcomes {
		if o.Kind == matcher.Matched {
			continue
		}
		var cpDep, cpGen, cpTrip string
		if c := o.Counterpart; c != nil {
			gen, _ := c.Aux(record.FieldGenerated)
			cpDep, cpGen, cpTrip = c.Primary.DisplayIn(loc), gen.DisplayIn(loc), c.TripID()
		}
		t.Rows = append(t.Rows, append(recordCells(o.Anchor, loc),
			o.Kind.String(), o.ReasonString(), cpDep, cpGen, cpTrip))
	}
	return t
}

// SummaryTable renders per-trip tallies.
func SummaryTable(summaries []aggregate.TripSummary) Table {
	t := Table{
		Name:   FileSummary,
		Header: []string{"trip_id", "total_rows", "matched_rows", "unmatched_rows", "match_rate_percent"},
	}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			s.TripID,
			strconv.Itoa(s.TotalRows),
			strconv.Itoa(s.MatchedRows),
			strconv.Itoa(s.UnmatchedRows),
			strconv.FormatFloat(s.MatchRatePercent, 'f', -1, 64),
		})
	}
	return t
}

// ReasonTable renders collapsed reasons per trip.
func ReasonTable(reasons []classifier.ReasonSummary) Table {
	t := Table{
		Name:   FileReasons,
		Header: []string{"trip_id", "mismatch_reason", "total_unmatched_rows"},
	}
	for _, r := range reasons {
		t.Rows = append(t.Rows, []string{r.Key, r.Reasons, strconv.Itoa(r.UnmatchedRows)})
	}
	return t
}

// CleanTable renders the clean unmatched listing.
func CleanTable(rows []aggregate.CleanRow) Table {
	t := Table{
		Name: FileClean,
		Header: []string{"departure_time", "trip_id", "consist",
			"anchor_departure_time", "counterpart_departure_time", "mismatch_reason"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.DepartureTime, r.TripID, r.Consist,
			r.AnchorDepartureTime, r.CounterpartDepartureTime, r.Reasons,
		})
	}
	return t
}

// OtherOnlyTable lists other-feed departures outside every anchor window.
func OtherOnlyTable(records []record.Record, loc *time.Location) Table {
	t := Table{Name: FileOtherOnly, Header: recordHeader}
	for _, r := range records {
		t.Rows = append(t.Rows, recordCells(r, loc))
	}
	return t
}

// PresenceTable is the combined presence listing: every anchor tagged Both
// or Reference Only, followed by Prediction Only departures.
func PresenceTable(res *pipeline.Result, loc *time.Location) Table {
	t := Table{
		Name: FilePresence,
		Header: []string{"departure_time_unix", "departure_time", "source",
			"trip_id", "counterpart_trip_id", "consist", "counterpart_consist"},
	}
	for _, o := range res.Outcomes {
		source := SourceReferenceOnly
		var cpTrip, cpConsist string
		if o.Kind == matcher.Matched && o.Counterpart != nil {
			source = SourceBoth
			cpTrip, cpConsist = o.Counterpart.TripID(), o.Counterpart.Consist()
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(o.Anchor.Primary.Unix(), 10),
			o.Anchor.Primary.DisplayIn(loc),
			source,
			o.Anchor.TripID(), cpTrip,
			o.Anchor.Consist(), cpConsist,
		})
	}
	for _, r := range res.OtherOnly {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(r.Primary.Unix(), 10),
			r.Primary.DisplayIn(loc),
			SourcePredictionOnly,
			"", r.TripID(),
			"", r.Consist(),
		})
	}
	return t
}

// Tables builds the tables a run in res.Mode produces.
func Tables(res *pipeline.Result) []Table {
	loc := res.Config.Location
	if loc == nil {
		loc = time.UTC
	}
	tables := []Table{
		MatchedTable(res.Outcomes, loc),
		UnmatchedTable(res.Outcomes, loc),
		SummaryTable(res.Summaries),
	}
	switch res.Mode {
	case pipeline.ModePresence:
		tables = append(tables, PresenceTable(res, loc), OtherOnlyTable(res.OtherOnly, loc))
	default:
		tables = append(tables, ReasonTable(res.Reasons), CleanTable(res.Clean))
	}
	return tables
}
