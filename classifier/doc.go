// Package classifier post-processes match outcomes: it upgrades "no candidate"
// outcomes to minor deviations when a wider, attribute-blind window finds a
// departure, and collapses reason codes per grouping key.
package classifier
