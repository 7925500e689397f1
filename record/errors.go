package record

import "fmt"

// InvariantViolation is returned when a record without a primary instant
// reaches the matching core. It indicates a normalizer bug and is not
// recovered.
type InvariantViolation struct {
	Feed     string
	Position int
	Index    int
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s record at position %d (index %d) has no primary time", e.Feed, e.Position, e.Index)
}
