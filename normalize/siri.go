package normalize

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/theoremus-urban-solutions/transit-types/siri"

	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// Estimated Timetable JSON, trimmed to what reconciliation reads.

type siriEnvelope struct {
	Siri *struct {
		ServiceDelivery serviceDelivery `json:"ServiceDelivery"`
	} `json:"Siri"`
	ServiceDelivery *serviceDelivery `json:"ServiceDelivery"`
	serviceDelivery
}

type serviceDelivery struct {
	ResponseTimestamp          string               `json:"ResponseTimestamp"`
	EstimatedTimetableDelivery []estimatedTimetable `json:"EstimatedTimetableDelivery"`
}

type estimatedTimetable struct {
	ResponseTimestamp            string         `json:"ResponseTimestamp"`
	EstimatedJourneyVersionFrame []versionFrame `json:"EstimatedJourneyVersionFrame"`
}

type versionFrame struct {
	RecordedAtTime          string           `json:"RecordedAtTime"`
	EstimatedVehicleJourney []vehicleJourney `json:"EstimatedVehicleJourney"`
}

type vehicleJourney struct {
	RecordedAtTime          string                       `json:"RecordedAtTime"`
	VehicleRef              string                       `json:"VehicleRef,omitempty"`
	FramedVehicleJourneyRef siri.FramedVehicleJourneyRef `json:"FramedVehicleJourneyRef"`
	RecordedCalls           []call                       `json:"RecordedCalls,omitempty"`
	EstimatedCalls          []call                       `json:"EstimatedCalls,omitempty"`
}

type call struct {
	StopPointRef          string `json:"StopPointRef"`
	Cancellation          bool   `json:"Cancellation,omitempty"`
	ActualDepartureTime   string `json:"ActualDepartureTime,omitempty"`
	ExpectedDepartureTime string `json:"ExpectedDepartureTime,omitempty"`
}

type SIRIOptions struct {
	// StopID matches StopPointRef. Empty keeps every call.
	StopID string
	Source record.Source
	Logger *slog.Logger
}

// ReadSIRIET reads an Estimated Timetable delivery, either wrapped in
// Siri.ServiceDelivery, in a bare ServiceDelivery, or as the delivery itself.
// Recorded calls contribute their actual departure, estimated calls their
// expected departure.
func ReadSIRIET(r io.Reader, opts SIRIOptions) ([]record.Record, Stats, error) {
	log := loggerOr(opts.Logger)
	var env siriEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		if err == io.EOF {
			return []record.Record{}, Stats{}, nil
		}
		return nil, Stats{}, fmt.Errorf("decode siri et: %w", err)
	}
	sd := env.serviceDelivery
	switch {
	case env.Siri != nil:
		sd = env.Siri.ServiceDelivery
	case env.ServiceDelivery != nil:
		sd = *env.ServiceDelivery
	}

	var (
		st  Stats
		out []record.Record
	)
	add := func(c call, raw, generated string, j vehicleJourney) {
		if opts.StopID != "" && c.StopPointRef != opts.StopID {
			return
		}
		st.Read++
		if c.Cancellation {
			st.Dropped++
			return
		}
		at, err := parseISO(raw)
		if err != nil {
			st.Dropped++
			log.Debug("dropping siri call", "stop_point", c.StopPointRef, "err", err)
			return
		}
		rec := record.Record{
			Source:    opts.Source,
			Primary:   at,
			Auxiliary: map[string]instant.Instant{},
			Attributes: map[string]string{
				record.AttrTripID:  j.FramedVehicleJourneyRef.DatedVehicleJourneyRef,
				record.AttrConsist: j.VehicleRef,
			},
		}
		if g, err := parseISO(generated); err == nil {
			rec.Auxiliary[record.FieldGenerated] = g
		}
		if c.ExpectedDepartureTime != "" {
			if p, err := parseISO(c.ExpectedDepartureTime); err == nil {
				rec.Auxiliary[record.FieldPredictedDeparture] = p
			}
		}
		out = append(out, rec)
	}

	for _, et := range sd.EstimatedTimetableDelivery {
		for _, frame := range et.EstimatedJourneyVersionFrame {
			for _, j := range frame.EstimatedVehicleJourney {
				generated := j.RecordedAtTime
				if generated == "" {
					generated = frame.RecordedAtTime
				}
				for _, c := range j.RecordedCalls {
					add(c, c.ActualDepartureTime, generated, j)
				}
				for _, c := range j.EstimatedCalls {
					add(c, c.ExpectedDepartureTime, generated, j)
				}
			}
		}
	}

	out, st = finish(out, st)
	log.Debug("read siri et feed", "read", st.Read, "kept", st.Kept, "dropped", st.Dropped)
	return out, st, nil
}

func parseISO(s string) (instant.Instant, error) {
	return instant.Parse(s, []string{time.RFC3339Nano, time.RFC3339}, time.UTC)
}
