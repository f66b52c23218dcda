// Package selective resolves the effective per-property treatment for
// selective export and import: a global default mode, overridable per record,
// itself overridable per property. Every property of every record resolves
// independently; there is no partial inheritance between sibling properties.
package selective
