// Package fetch downloads image assets referenced by games for bundled
// export. It is decoupled from metadata export: the caller receives a success
// boolean per asset, never an error, and failed downloads are retried on the
// next run through the export cache rather than within the current one.
package fetch
