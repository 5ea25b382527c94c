// Package types defines the shared data model of the semantic index: chunks,
// search hits and results, agreements, validator verdicts, and the sentinel
// errors crossing package boundaries.
package types
