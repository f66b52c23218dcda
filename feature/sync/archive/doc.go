// Package archive assembles the bundled zip export: the full flat backup,
// per-catalog settings JSON files, and one folder per game holding its
// metadata and fetched assets. Game folder names are sanitized to stay safe
// across filesystems.
package archive
