// Package record defines the canonical departure record both feeds are
// normalized into, and the error raised when a record that should have been
// filtered reaches the matching core.
package record
