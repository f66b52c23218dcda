// Package utils provides common utility functions for the game-vault application.
// It includes helper functions for loose-typed scalar conversion used by the
// tolerant flat-file decoder, and other shared logic that doesn't fit into
// domain-specific packages.
package utils
