// Package library provides the owner-scoped repository over the game catalog.
//
// It is the single write path for games outside of the sync engine; every
// mutation passes through an explicit pre-save stamp (StampGame) that raises
// the modified-since-export flag when exportable metadata changes. The sync
// engine reads through this package and clears the flag after a successful
// full export.
package library
