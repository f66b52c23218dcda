// Package resolve maps name-based catalog references from the flat format to
// internal identifiers. Every lookup is owner scoped and case insensitive.
// Optional references that fail to resolve are dropped without error; only a
// mandatory status reference on a new game is escalated by the merge engine.
package resolve
