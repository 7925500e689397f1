package aggregate

import (
	"github.com/theoremus-urban-solutions/departure-delta/matcher"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// OtherOnly returns the records of others that no anchor's primary window
// covers, in feed order.
func OtherOnly(anchors, others []record.Record, tau int64) ([]record.Record, error) {
	if err := record.Validate(anchors, "anchor"); err != nil {
		return nil, err
	}
	if err := record.Validate(others, "other"); err != nil {
		return nil, err
	}
	w := matcher.NewWindow(anchors)
	var out []record.Record
	for _, r := range others {
		if !w.Covered(r.Primary, tau) {
			out = append(out, r)
		}
	}
	return out, nil
}
