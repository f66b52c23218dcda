// Package codec converts the six logical record kinds to and from the flat
// tabular export format: one Type discriminator column plus the union of all
// per-type columns, with absent columns left empty.
//
// Decoding is deliberately tolerant so a corrupt export remains importable:
// unknown columns are ignored, missing optional columns default per field
// (booleans true, integers zero) and malformed scalars coerce to the zero
// value instead of raising.
package codec
