package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// ReferenceColumns names the Tableau export columns.
type ReferenceColumns struct {
	Departure          string
	Generated          string
	PredictedDeparture string
	TripID             string
	Consist            string
	// ConsistFallback is used when Consist is absent from the header.
	ConsistFallback string
	FalsePositive   string
}

// DefaultReferenceColumns returns the Tableau export's column names.
func DefaultReferenceColumns() ReferenceColumns {
	return ReferenceColumns{
		Departure:          "Departure Time",
		Generated:          "Prediction Generated Time",
		PredictedDeparture: "Predicted Departure Time",
		TripID:             "Trip ID",
		Consist:            "Predicted Vehicle Consist",
		ConsistFallback:    "Vehicle Consist",
		FalsePositive:      "False Positive Departure Flag",
	}
}

type ReferenceOptions struct {
	Columns ReferenceColumns
	// Location interprets the wall-clock strings. Defaults to
	// instant.DefaultZone.
	Location *time.Location
	// Layouts defaults to instant.DefaultLayouts.
	Layouts []string
	// Overlap decides wall clocks repeated by a fall-back transition.
	Overlap instant.Overlap
	// RequireAuxiliary drops rows whose auxiliary columns are present in the
	// header but do not parse.
	RequireAuxiliary bool
	// UTF8 skips UTF-16 decoding.
	UTF8   bool
	Source record.Source
	Logger *slog.Logger
}

// ReadReferenceTSV reads a Tableau export. The input is UTF-16 with a byte
// order mark, little-endian when the mark is missing.
func ReadReferenceTSV(r io.Reader, opts ReferenceOptions) ([]record.Record, Stats, error) {
	log := loggerOr(opts.Logger)
	cols := opts.Columns
	if cols == (ReferenceColumns{}) {
		cols = DefaultReferenceColumns()
	}
	loc := opts.Location
	if loc == nil {
		var err error
		if loc, err = instant.LoadZone(instant.DefaultZone); err != nil {
			return nil, Stats{}, err
		}
	}
	layouts := opts.Layouts
	if len(layouts) == 0 {
		layouts = instant.DefaultLayouts
	}

	if !opts.UTF8 {
		r = transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	h, err := readHeader(cr)
	if errors.Is(err, io.EOF) {
		return []record.Record{}, Stats{}, nil
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read reference header: %w", err)
	}
	if !h.has(cols.Departure) {
		return nil, Stats{}, fmt.Errorf("reference tsv: missing column %q", cols.Departure)
	}
	consistCol := cols.Consist
	if !h.has(consistCol) {
		consistCol = cols.ConsistFallback
	}

	var (
		st  Stats
		out []record.Record
	)
rows:
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, st, fmt.Errorf("reference tsv line %d: %w", line, err)
		}
		st.Read++

		raw, _ := h.field(row, cols.Departure)
		primary, err := instant.ParseWith(raw, layouts, loc, opts.Overlap)
		if err != nil {
			st.Dropped++
			log.Debug("dropping reference row", "line", line, "err", err)
			continue
		}

		rec := record.Record{
			Source:     opts.Source,
			Primary:    primary,
			Auxiliary:  map[string]instant.Instant{},
			Attributes: map[string]string{},
		}
		for _, aux := range []struct{ field, col string }{
			{record.FieldGenerated, cols.Generated},
			{record.FieldPredictedDeparture, cols.PredictedDeparture},
		} {
			v, ok := h.field(row, aux.col)
			if !ok {
				continue
			}
			at, err := instant.ParseWith(v, layouts, loc, opts.Overlap)
			if err != nil {
				if opts.RequireAuxiliary {
					st.Dropped++
					log.Debug("dropping reference row", "line", line, "field", aux.field, "err", err)
					continue rows
				}
				continue
			}
			rec.Auxiliary[aux.field] = at
		}
		if v, ok := h.field(row, cols.TripID); ok {
			rec.Attributes[record.AttrTripID] = v
		}
		if v, ok := h.field(row, consistCol); ok {
			rec.Attributes[record.AttrConsist] = v
		}
		if v, ok := h.field(row, cols.FalsePositive); ok && v != "" {
			rec.Attributes[record.AttrFalsePositive] = "true"
		}
		out = append(out, rec)
	}

	out, st = finish(out, st)
	log.Debug("read reference feed", "read", st.Read, "kept", st.Kept, "dropped", st.Dropped)
	return out, st, nil
}
