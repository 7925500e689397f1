// Package report renders pipeline results as CSV tables, a JSON manifest, a
// Prometheus textfile and a plain-text footer, and commits them to an output
// directory in one step.
package report
