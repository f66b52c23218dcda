package selective_test

import (
	"testing"

	"game-vault/feature/sync/selective"

	"github.com/stretchr/testify/assert"
)

func TestResolveOrder(t *testing.T) {
	cfg := selective.Config{
		Global: selective.Rule{Mode: selective.ModeAsStored},
		PerRecord: map[string]selective.Override{
			"Halo": {
				Rule: selective.Rule{Mode: selective.ModeNormalized},
				Properties: map[string]selective.Rule{
					"Notes": {Mode: selective.ModeCustom, CustomValue: "redacted"},
				},
			},
		},
	}

	// Property override wins.
	rule := cfg.Resolve("Halo", "Notes")
	assert.Equal(t, selective.ModeCustom, rule.Mode)
	assert.Equal(t, "redacted", rule.CustomValue)

	// Sibling properties inherit nothing from the Notes override.
	assert.Equal(t, selective.ModeNormalized, cfg.Resolve("Halo", "Comment").Mode)

	// Records without an override use the global default.
	assert.Equal(t, selective.ModeAsStored, cfg.Resolve("Doom", "Notes").Mode)

	// Record lookup follows natural-key case insensitivity.
	assert.Equal(t, selective.ModeCustom, cfg.Resolve("hALO", "notes").Mode)
}

func TestResolveEmptyRecordRuleFallsThrough(t *testing.T) {
	cfg := selective.Config{
		Global: selective.Rule{Mode: selective.ModeNormalized},
		PerRecord: map[string]selective.Override{
			"Halo": {Properties: map[string]selective.Rule{
				"Notes": {Mode: selective.ModeAsImported},
			}},
		},
	}

	// Override declares only a property rule; other properties use the global.
	assert.Equal(t, selective.ModeAsImported, cfg.Resolve("Halo", "Notes").Mode)
	assert.Equal(t, selective.ModeNormalized, cfg.Resolve("Halo", "Comment").Mode)
}

func TestApply(t *testing.T) {
	assert.Equal(t, "  raw  ", selective.ApplyExport("  raw  ", selective.Rule{Mode: selective.ModeAsStored}))
	assert.Equal(t, "a b", selective.ApplyExport(" a \t b ", selective.Rule{Mode: selective.ModeNormalized}))

	assert.Equal(t, " raw ", selective.ApplyImport(" raw ", selective.Rule{Mode: selective.ModeAsImported}))
	assert.Equal(t, "a b", selective.ApplyImport(" a  b ", selective.Rule{Mode: selective.ModeNormalized}))
	assert.Equal(t, "fixed", selective.ApplyImport("anything", selective.Rule{Mode: selective.ModeCustom, CustomValue: "fixed"}))

	// Unknown modes never fail; they fall back to the pass-through default.
	assert.Equal(t, "v", selective.ApplyExport("v", selective.Rule{Mode: "bogus"}))
	assert.Equal(t, "v", selective.ApplyImport("v", selective.Rule{Mode: "bogus"}))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", selective.Normalize("   "))
	assert.Equal(t, "one two three", selective.Normalize("  one\ttwo\n three "))
}
