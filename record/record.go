package record

import (
	"fmt"

	"github.com/theoremus-urban-solutions/departure-delta/instant"
)

// Source identifies which feed produced a record.
type Source int

const (
	Reference Source = iota
	Prediction
)

func (s Source) String() string {
	switch s {
	case Reference:
		return "reference"
	case Prediction:
		return "prediction"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Auxiliary field names.
const (
	FieldGenerated          = "generated"
	FieldPredictedDeparture = "predicted-departure"
)

// Key attribute names.
const (
	AttrTripID        = "trip_id"
	AttrConsist       = "consist"
	AttrFalsePositive = "false_positive"
)

// Record is one departure observation in canonical form. Records are treated
// as immutable once a normalizer returns them.
type Record struct {
	// Index is the record's position in its feed after filtering. It is the
	// identity used for joins and grouping.
	Index      int
	Source     Source
	Primary    instant.Instant
	Auxiliary  map[string]instant.Instant
	Attributes map[string]string
}

// Aux returns the named auxiliary instant.
func (r Record) Aux(field string) (instant.Instant, bool) {
	v, ok := r.Auxiliary[field]
	if !ok || !v.Valid() {
		return instant.Instant{}, false
	}
	return v, true
}

// Attr returns the named key attribute.
func (r Record) Attr(name string) (string, bool) {
	v, ok := r.Attributes[name]
	return v, ok
}

func (r Record) TripID() string  { return r.Attributes[AttrTripID] }
func (r Record) Consist() string { return r.Attributes[AttrConsist] }

// FalsePositive reports whether the reference export flagged this departure.
func (r Record) FalsePositive() bool { return r.Attributes[AttrFalsePositive] == "true" }

// Validate checks the invariant every record reaching the matcher must hold.
func Validate(records []Record, feed string) error {
	for i := range records {
		if !records[i].Primary.Valid() {
			return &InvariantViolation{Feed: feed, Position: i, Index: records[i].Index}
		}
	}
	return nil
}

// Reindex returns a copy of records with Index set to each record's position.
func Reindex(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.Index = i
		out[i] = r
	}
	return out
}
