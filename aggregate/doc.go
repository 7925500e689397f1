// Package aggregate turns match outcomes into per-trip summaries, the clean
// unmatched listing, run statistics, and other-feed coverage.
package aggregate
