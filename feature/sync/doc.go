// Package sync is the catalog export/import engine. It renders the owner's
// catalog to a delimited flat file, merges flat files back with
// insert-or-update semantics, builds the incremental bundled zip archive, and
// offers selective variants with per-property treatment.
//
// The heavy lifting lives in the subpackages: codec (flat format), merge
// (upsert engine), resolve (name to id), exportcache (incremental decisions),
// fetch (asset download), archive (zip layout) and selective (per-property
// rules). This package wires them into a service, its HTTP surface and the
// feature loader.
package sync
