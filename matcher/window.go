package matcher

import (
	"sort"

	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// Candidate is a record of the other feed found inside an anchor's window.
type Candidate struct {
	Record record.Record
	// Position is the record's position in the feed the Window was built from.
	Position int
	Distance int64
}

type entry struct {
	rec record.Record
	pos int
}

// Window is a read-only index of a feed sorted by primary time. It is safe for
// concurrent use.
type Window struct {
	entries []entry
}

// NewWindow indexes records. Records without a primary instant must already
// have been rejected; see record.Validate.
func NewWindow(records []record.Record) *Window {
	entries := make([]entry, len(records))
	for i, r := range records {
		entries[i] = entry{rec: r, pos: i}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].rec.Primary.Unix() < entries[j].rec.Primary.Unix()
	})
	return &Window{entries: entries}
}

func (w *Window) Len() int { return len(w.entries) }

func (w *Window) bounds(at instant.Instant, tau int64) (int, int) {
	lo := at.Unix() - tau
	hi := at.Unix() + tau
	start := sort.Search(len(w.entries), func(i int) bool {
		return w.entries[i].rec.Primary.Unix() >= lo
	})
	end := sort.Search(len(w.entries), func(i int) bool {
		return w.entries[i].rec.Primary.Unix() > hi
	})
	return start, end
}

// Candidates returns every record within tau seconds of at, inclusive, ordered
// by distance and then by feed position.
func (w *Window) Candidates(at instant.Instant, tau int64) []Candidate {
	start, end := w.bounds(at, tau)
	if start >= end {
		return nil
	}
	out := make([]Candidate, 0, end-start)
	for _, e := range w.entries[start:end] {
		out = append(out, Candidate{Record: e.rec, Position: e.pos, Distance: e.rec.Primary.Distance(at)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// Nearest returns the first candidate Candidates would return.
func (w *Window) Nearest(at instant.Instant, tau int64) (record.Record, bool) {
	start, end := w.bounds(at, tau)
	if start >= end {
		return record.Record{}, false
	}
	best := w.entries[start]
	bestDist := best.rec.Primary.Distance(at)
	for _, e := range w.entries[start+1 : end] {
		d := e.rec.Primary.Distance(at)
		if d < bestDist || (d == bestDist && e.pos < best.pos) {
			best, bestDist = e, d
		}
	}
	return best.rec, true
}

// Covered reports whether any record lies within tau seconds of at.
func (w *Window) Covered(at instant.Instant, tau int64) bool {
	start, end := w.bounds(at, tau)
	return start < end
}
