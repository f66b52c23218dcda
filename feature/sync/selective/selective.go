package selective

import "strings"

// Mode is a per-property treatment for export or import.
//
// Export accepts ModeAsStored and ModeNormalized; import accepts
// ModeAsImported, ModeNormalized and ModeCustom. Unrecognized text resolves
// to the direction's pass-through default rather than failing.
type Mode string

const (
	// ModeAsStored exports the stored value verbatim.
	ModeAsStored Mode = "as-stored"
	// ModeAsImported imports the incoming value verbatim.
	ModeAsImported Mode = "as-imported"
	// ModeNormalized trims and collapses whitespace.
	ModeNormalized Mode = "normalized"
	// ModeCustom substitutes an explicit configured value on import.
	ModeCustom Mode = "custom"
)

// Rule is one resolved treatment: the mode plus the custom value when
// the mode is ModeCustom.
type Rule struct {
	Mode        Mode   `json:"mode"`
	CustomValue string `json:"custom_value,omitempty"`
}

// Override carries a per-record rule and optional per-property refinements.
type Override struct {
	Rule       Rule            `json:"rule"`
	Properties map[string]Rule `json:"properties,omitempty"`
}

// Config is the user-supplied selective configuration: one global default
// plus optional per-record overrides keyed by the record's natural key (name).
type Config struct {
	Global    Rule                `json:"global"`
	PerRecord map[string]Override `json:"per_record,omitempty"`
}

// Resolve returns the effective rule for one property of one record.
// Resolution order is strictly property-override, then record-override, then
// global default, evaluated independently for every property. Sibling
// properties inherit nothing from each other.
func (c Config) Resolve(record, property string) Rule {
	if ov, ok := c.lookupRecord(record); ok {
		if rule, ok := lookupProperty(ov.Properties, property); ok {
			return rule
		}
		if ov.Rule.Mode != "" {
			return ov.Rule
		}
	}
	return c.Global
}

func (c Config) lookupRecord(record string) (Override, bool) {
	if ov, ok := c.PerRecord[record]; ok {
		return ov, true
	}
	// Natural keys are case-insensitive everywhere else; honor that here too.
	for name, ov := range c.PerRecord {
		if strings.EqualFold(name, record) {
			return ov, true
		}
	}
	return Override{}, false
}

func lookupProperty(props map[string]Rule, property string) (Rule, bool) {
	if rule, ok := props[property]; ok {
		return rule, true
	}
	for name, rule := range props {
		if strings.EqualFold(name, property) {
			return rule, true
		}
	}
	return Rule{}, false
}

// ApplyExport transforms a stored value for export under the rule.
// Unknown modes fall back to as-stored.
func ApplyExport(value string, rule Rule) string {
	if rule.Mode == ModeNormalized {
		return Normalize(value)
	}
	return value
}

// ApplyImport transforms an incoming value for import under the rule.
// Unknown modes fall back to as-imported.
func ApplyImport(value string, rule Rule) string {
	switch rule.Mode {
	case ModeNormalized:
		return Normalize(value)
	case ModeCustom:
		return rule.CustomValue
	default:
		return value
	}
}

// Normalize trims the value and collapses internal whitespace runs to a
// single space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
