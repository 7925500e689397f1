package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// PredictionColumns names the prediction analyzer CSV columns.
type PredictionColumns struct {
	Departure          string
	Generated          string
	PredictedDeparture string
	TripID             string
	Consist            string
}

// DefaultPredictionColumns returns the analyzer export's column names.
func DefaultPredictionColumns() PredictionColumns {
	return PredictionColumns{
		Departure:          "departure_time",
		Generated:          "generated_time",
		PredictedDeparture: "predicted_departure",
		TripID:             "trip_id",
		Consist:            "vehicle_label",
	}
}

type PredictionOptions struct {
	Columns PredictionColumns
	// Dedup keeps only the first row of each (departure second, trip id).
	Dedup  bool
	Source record.Source
	Logger *slog.Logger
}

// ReadPredictionCSV reads a prediction analyzer export. Times are epoch
// seconds; float text is truncated.
func ReadPredictionCSV(r io.Reader, opts PredictionOptions) ([]record.Record, Stats, error) {
	log := loggerOr(opts.Logger)
	cols := opts.Columns
	if cols == (PredictionColumns{}) {
		cols = DefaultPredictionColumns()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	h, err := readHeader(cr)
	if errors.Is(err, io.EOF) {
		return []record.Record{}, Stats{}, nil
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read prediction header: %w", err)
	}
	if !h.has(cols.Departure) {
		return nil, Stats{}, fmt.Errorf("prediction csv: missing column %q", cols.Departure)
	}

	var (
		st   Stats
		out  []record.Record
		seen = map[dedupKey]struct{}{}
	)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, st, fmt.Errorf("prediction csv line %d: %w", line, err)
		}
		st.Read++

		raw, _ := h.field(row, cols.Departure)
		primary, err := instant.ParseEpoch(raw)
		if err != nil {
			st.Dropped++
			log.Debug("dropping prediction row", "line", line, "err", err)
			continue
		}

		rec := record.Record{
			Source:     opts.Source,
			Primary:    primary,
			Auxiliary:  map[string]instant.Instant{},
			Attributes: map[string]string{},
		}
		for field, col := range map[string]string{
			record.FieldGenerated:          cols.Generated,
			record.FieldPredictedDeparture: cols.PredictedDeparture,
		} {
			if v, ok := h.field(row, col); ok && v != "" {
				if at, err := instant.ParseEpoch(v); err == nil {
					rec.Auxiliary[field] = at
				}
			}
		}
		if v, ok := h.field(row, cols.TripID); ok {
			rec.Attributes[record.AttrTripID] = v
		}
		if v, ok := h.field(row, cols.Consist); ok {
			rec.Attributes[record.AttrConsist] = v
		}

		if opts.Dedup {
			k := dedupKey{unix: primary.Unix(), trip: rec.TripID()}
			if _, dup := seen[k]; dup {
				st.Duplicates++
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, rec)
	}

	out, st = finish(out, st)
	log.Debug("read prediction feed", "read", st.Read, "kept", st.Kept, "dropped", st.Dropped, "duplicates", st.Duplicates)
	return out, st, nil
}
