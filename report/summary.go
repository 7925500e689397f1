package report

import (
	"fmt"
	"io"

	"github.com/theoremus-urban-solutions/departure-delta/pipeline"
)

// Summary prints the run footer.
func Summary(w io.Writer, res *pipeline.Result) error {
	s := res.Stats
	feed := "prediction"
	if res.Mode != pipeline.ModeDelta {
		feed = "reference"
	}
	lines := []string{
		fmt.Sprintf("%d total unique trip IDs in the %s data", s.TotalTrips, feed),
		fmt.Sprintf("%d trips had perfect matches", s.PerfectTrips),
		fmt.Sprintf("%d trips had at least some discrepancies", s.DiscrepantTrips),
		fmt.Sprintf("This includes %d trips with NO matches", s.NoMatchTrips),
		fmt.Sprintf("Plus %d trips with PARTIAL matches (some rows matched, some didn't)", s.PartialTrips),
		fmt.Sprintf("Additionally, %d trips had trip ID mismatches (departure time matched but trip ID differed)", s.TripIDMismatches),
	}
	if res.Mode == pipeline.ModePresence {
		fp := res.FalsePositives
		lines = append(lines,
			"",
			fmt.Sprintf("Tolerance: %d seconds", res.Config.PrimaryTolerance),
			fmt.Sprintf("Matches in both: %d", res.Counts.Matched),
			fmt.Sprintf("Reference only (no prediction match): %d", res.Counts.NoCandidate+res.Counts.Unmatched),
			fmt.Sprintf("Prediction only (no reference match): %d", len(res.OtherOnly)),
			"False positives detected and ignored:",
			fmt.Sprintf("    Reference only: %d", fp.NoCandidate+fp.Unmatched),
			fmt.Sprintf("    Both: %d", fp.Matched),
			fmt.Sprintf("    Total false positives: %d", fp.Total()),
		)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
