// Package store persists the dual-collection vector index in SQLite.
//
// The curated collection holds folded agreements (few records, high trust);
// the raw collection holds every extracted chunk. Both are independently
// queryable; the short-circuit policy between them lives in the search
// package, not here.
//
// Two build modes mirror the driver split: cgo with the sqlite_vec tag ranks
// vectors in SQL, the pure Go build ranks them in Go over the stored blobs.
package store
