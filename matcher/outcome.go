package matcher

import (
	"fmt"
	"strings"

	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// Kind tags an Outcome.
type Kind int

const (
	Matched Kind = iota
	Unmatched
	NoCandidate
)

func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Unmatched:
		return "unmatched"
	case NoCandidate:
		return "no_candidate"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Reason codes.
const (
	ReasonNoCandidate    = "no candidate within tolerance"
	ReasonMinorDeviation = "minor departure deviation"
)

// ReasonSeparator joins reason codes in every textual output.
const ReasonSeparator = "; "

// CheckReason is the reason code for a failed secondary check on field.
func CheckReason(field string) string {
	return field + " difference exceeds tolerance"
}

// Outcome is the result of matching one anchor record.
type Outcome struct {
	Kind   Kind
	Anchor record.Record
	// Counterpart is the validating candidate for Matched and the nearest
	// candidate, kept for display only, otherwise. Nil when nothing was found.
	Counterpart *record.Record
	Reasons     []string
	// Reclassified is set once a no-candidate outcome has been turned into a
	// minor deviation.
	Reclassified bool
}

// ReasonString joins the reasons with ReasonSeparator.
func (o Outcome) ReasonString() string {
	return strings.Join(o.Reasons, ReasonSeparator)
}

// OnlyReason reports whether reason is the outcome's sole reason.
func (o Outcome) OnlyReason(reason string) bool {
	return len(o.Reasons) == 1 && o.Reasons[0] == reason
}

// Counts tallies outcomes by kind.
type Counts struct {
	Matched     int `json:"matched"`
	Unmatched   int `json:"unmatched"`
	NoCandidate int `json:"no_candidate"`
}

func (c Counts) Total() int { return c.Matched + c.Unmatched + c.NoCandidate }

// Count tallies outcomes by kind.
func Count(outcomes []Outcome) Counts {
	var c Counts
	for _, o := range outcomes {
		switch o.Kind {
		case Matched:
			c.Matched++
		case Unmatched:
			c.Unmatched++
		case NoCandidate:
			c.NoCandidate++
		}
	}
	return c
}

func counterpart(r record.Record) *record.Record {
	return &r
}
