package sync

// Config holds configuration for the export/import engine.
type Config struct {
	// Enabled toggles the sync feature's HTTP surface.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Delimiter is the flat-file field separator (single character).
	Delimiter string `mapstructure:"delimiter" default:";"`
	// Encoding is the flat-file text encoding (utf-8 or latin-1).
	Encoding string `mapstructure:"encoding" default:"utf-8"`
	// OutputDir is where CLI exports are written.
	OutputDir string `mapstructure:"output_dir" default:"./exports"`
}

// DelimiterRune returns the configured delimiter as a rune, falling back to ';'.
func (c Config) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ';'
}
