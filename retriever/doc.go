// Package retriever downloads a service day of prediction analyzer exports,
// one request per service hour, and merges them into a single CSV.
package retriever
