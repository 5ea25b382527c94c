// Package lang divides source files into semantic chunks for embedding and
// search.
//
// Language is detected from the filename; composite extensions such as .d.ts
// are resolved before the shorter suffix they contain. Each language maps to
// a Strategy describing which structural boundaries become chunks and how a
// chunk is named. Files with no registered strategy, and files whose parser
// fails, fall back to fixed-size line windows so every file stays searchable.
//
// Built-in strategies:
//   - Go: go/ast; functions, methods (receiver-qualified names), type decls
//   - Python: indentation scanning; defs, classes, class methods
//   - JavaScript/TypeScript: declaration patterns with brace matching
//
// Oversized chunks are truncated at a configurable token budget with an
// explicit marker, never silently dropped.
package lang
