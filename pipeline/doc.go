// Package pipeline runs one reconciliation: match, reclassify, aggregate.
//
// The three modes differ only in which feed anchors the match, which
// secondary checks apply, and what extra output is produced.
//
//	delta     anchor prediction, checks on, reclassify against reference
//	gap       anchor reference, checks on, reclassify against prediction
//	presence  anchor reference, departure time only, list prediction-only
//	          departures, set false-positive reference rows aside
package pipeline
