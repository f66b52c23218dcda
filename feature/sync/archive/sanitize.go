package archive

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxFolderNameLen caps sanitized folder names.
const maxFolderNameLen = 200

// stripAccents decomposes to NFD and removes combining marks.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SafeFolderName turns a game name into a filesystem- and zip-safe folder
// name: accents stripped, only letters/digits/space/hyphen/underscore/dot/
// parentheses kept, spaces collapsed to underscores, repeated underscores
// collapsed, truncated to 200 characters.
func SafeFolderName(name string) string {
	s, _, err := transform.String(stripAccents, name)
	if err != nil {
		s = name
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.' || r == '(' || r == ')':
			b.WriteRune(r)
		}
	}

	s = strings.ReplaceAll(b.String(), " ", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}

	runesOut := []rune(s)
	if len(runesOut) > maxFolderNameLen {
		runesOut = runesOut[:maxFolderNameLen]
	}
	return string(runesOut)
}
