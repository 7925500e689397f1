package normalize

import (
	"fmt"
	"log/slog"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

type GTFSRTOptions struct {
	// StopID restricts records to one stop. Empty keeps every stop.
	StopID string
	Source record.Source
	Logger *slog.Logger
}

// ReadGTFSRT reads a TripUpdates feed. Each stop-time update carrying a
// departure time becomes one record: the departure is both the primary and
// the predicted-departure instant, and the trip update timestamp (or the
// feed header timestamp) is the generated instant. Cancelled trips and
// skipped stops are dropped.
func ReadGTFSRT(b []byte, opts GTFSRTOptions) ([]record.Record, Stats, error) {
	log := loggerOr(opts.Logger)
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(b, &fm); err != nil {
		return nil, Stats{}, fmt.Errorf("decode gtfs-rt feed: %w", err)
	}
	headerTS := int64(fm.GetHeader().GetTimestamp())

	var (
		st  Stats
		out []record.Record
	)
	for _, e := range fm.GetEntity() {
		tu := e.GetTripUpdate()
		if tu == nil {
			continue
		}
		trip := tu.GetTrip()
		cancelled := trip.GetScheduleRelationship() == gtfsrtpb.TripDescriptor_CANCELED

		generated := int64(tu.GetTimestamp())
		if generated == 0 {
			generated = headerTS
		}
		consist := tu.GetVehicle().GetLabel()
		if consist == "" {
			consist = tu.GetVehicle().GetId()
		}

		for _, stu := range tu.GetStopTimeUpdate() {
			if opts.StopID != "" && stu.GetStopId() != opts.StopID {
				continue
			}
			st.Read++
			dep := stu.GetDeparture().GetTime()
			if cancelled || dep == 0 || stu.GetScheduleRelationship() == gtfsrtpb.TripUpdate_StopTimeUpdate_SKIPPED {
				st.Dropped++
				log.Debug("dropping stop time update", "entity", e.GetId(), "stop_id", stu.GetStopId())
				continue
			}

			at := instant.FromEpochSeconds(dep)
			rec := record.Record{
				Source:  opts.Source,
				Primary: at,
				Auxiliary: map[string]instant.Instant{
					record.FieldPredictedDeparture: at,
				},
				Attributes: map[string]string{
					record.AttrTripID:  trip.GetTripId(),
					record.AttrConsist: consist,
				},
			}
			if generated != 0 {
				rec.Auxiliary[record.FieldGenerated] = instant.FromEpochSeconds(generated)
			}
			out = append(out, rec)
		}
	}

	out, st = finish(out, st)
	log.Debug("read gtfs-rt feed", "entities", len(fm.GetEntity()), "kept", st.Kept, "dropped", st.Dropped)
	return out, st, nil
}
