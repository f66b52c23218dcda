// Package models defines the persistence entities of the game catalog.
//
// Every entity belongs to exactly one owner (UserID); all natural-key lookups
// are scoped by owner. Relationships are expressed as id columns and an
// explicit join table rather than navigation properties, so there are no
// mutually-referencing object graphs.
//
// The export cache entities (GameExportCache, ViewExportCache) record the last
// export outcome per entity and drive the incremental skip/retry decision.
package models
