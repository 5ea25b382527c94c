// Package syncer keeps the raw vector collection consistent with the
// repository tree.
//
// Incremental sync compares a persisted fingerprint map (content hash per
// file) against the filesystem, then re-indexes only added and modified
// files and purges deleted ones. Per file the ordering is delete old chunks,
// extract, embed, upsert, persist fingerprint, so a crash at any point
// leaves the file re-detected as changed on the next run. The fingerprint
// map is the serialization point: a second concurrent sync is refused, in
// process via an atomic lock and across processes via a file lock.
package syncer
