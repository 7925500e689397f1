// Package matcher finds, for every anchor departure, a counterpart in the
// other feed within a primary time tolerance and confirms it with secondary
// tolerance checks on auxiliary timestamps.
//
// # Windowing
//
// The other feed is sorted once by primary time into a Window. Candidate
// lookup is two binary searches, so each anchor costs O(log n + k) where k is
// the candidate count. Candidates are ordered by distance to the anchor and
// then by their position in the other feed; the first candidate that passes
// every check becomes the counterpart.
//
// # Outcomes
//
// Every anchor yields exactly one Outcome, in anchor input order:
//
//   - Matched: a single candidate passed all checks.
//   - Unmatched: candidates exist but none passed all checks. Reasons name
//     the checks no candidate could pass; the nearest candidate is kept for
//     display.
//   - NoCandidate: nothing in the other feed lies within the primary window.
//
// Matching is not one-to-one. A record of the other feed may serve as the
// counterpart of any number of anchors.
package matcher
