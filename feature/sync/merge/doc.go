// Package merge implements the import-side merge engine: insert-vs-update
// decisions against the owner-scoped case-insensitive natural key, field-level
// overwrite rules per record kind, and destructive replacement of the
// play-with association set.
//
// Persistence granularity bounds the blast radius of a bad row: catalog kinds
// commit as one batch per kind, games commit one row per transaction, and all
// row-level failures are accumulated into the result rather than thrown.
package merge
