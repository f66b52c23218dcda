// Package exportcache tracks, per game and per view, whether anything changed
// since the last export and whether the associated assets were fetched
// successfully. It drives the skip / asset-retry / full-export decision for
// incremental bundled exports.
//
// The cache is never the source of truth: the catalog tables are. A lost
// cache row forces a re-export on the next run and nothing more.
package exportcache
