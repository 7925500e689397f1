package report

import (
	"io"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/departure-delta/matcher"
	"github.com/theoremus-urban-solutions/departure-delta/pipeline"
)

const metricPrefix = "departure_delta_"

func gauge(value float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(value)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{Name: proto.String(labels[i]), Value: proto.String(labels[i+1])})
	}
	return m
}

func family(name, help string, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(metricPrefix + name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

func countMetrics(mode string, c matcher.Counts) []*dto.Metric {
	return []*dto.Metric{
		gauge(float64(c.Matched), "mode", mode, "outcome", matcher.Matched.String()),
		gauge(float64(c.Unmatched), "mode", mode, "outcome", matcher.Unmatched.String()),
		gauge(float64(c.NoCandidate), "mode", mode, "outcome", matcher.NoCandidate.String()),
	}
}

// Metrics builds the metric families describing res, sorted by name.
func Metrics(res *pipeline.Result, now time.Time) []*dto.MetricFamily {
	mode := string(res.Mode)
	s := res.Stats

	rates := make([]*dto.Metric, 0, len(res.Summaries))
	for _, t := range res.Summaries {
		rates = append(rates, gauge(t.MatchRatePercent, "mode", mode, "trip_id", t.TripID))
	}

	families := []*dto.MetricFamily{
		family("outcomes", "Anchor departures by match outcome.", countMetrics(mode, res.Counts)...),
		family("trips", "Trips by match class.",
			gauge(float64(s.TotalTrips), "mode", mode, "class", "total"),
			gauge(float64(s.PerfectTrips), "mode", mode, "class", "perfect"),
			gauge(float64(s.PartialTrips), "mode", mode, "class", "partial"),
			gauge(float64(s.NoMatchTrips), "mode", mode, "class", "no_match"),
			gauge(float64(s.DiscrepantTrips), "mode", mode, "class", "discrepant"),
		),
		family("trip_id_mismatches", "Trips matched to a departure carrying another trip id.",
			gauge(float64(s.TripIDMismatches), "mode", mode)),
		family("trip_match_rate_percent", "Share of a trip's departures that matched.", rates...),
		family("last_run_timestamp_seconds", "Unix time the report was produced.",
			gauge(float64(now.Unix()), "mode", mode)),
	}
	if res.Mode == pipeline.ModePresence {
		families = append(families,
			family("false_positives", "Flagged reference departures set aside, by outcome.", countMetrics(mode, res.FalsePositives)...),
			family("other_only", "Prediction departures outside every reference window.",
				gauge(float64(len(res.OtherOnly)), "mode", mode)),
		)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	return families
}

// WriteMetrics writes families in the Prometheus text format.
func WriteMetrics(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
