// Package instant provides the absolute time value used throughout departure
// reconciliation.
//
// An Instant is an integer number of seconds since the Unix epoch. It carries
// no zone of its own; civil wall-clock strings are localized on the way in
// (Parse) and rendered in a caller-chosen zone on the way out (DisplayIn).
// The zero Instant is "absent" and never compares as within tolerance.
package instant
