package utils

import (
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// NormalizePlayerName cleans a player name as parsed from a draw sheet:
// trims and collapses whitespace, and title-cases names the sheet printed in
// ALL CAPS ("ALCARAZ C." → "Alcaraz C."). Mixed-case names pass through
// untouched so capitalization like "de Minaur" survives.
func NormalizePlayerName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return name
	}
	if name == strings.ToUpper(name) && name != strings.ToLower(name) {
		return titleCaser.String(strings.ToLower(name))
	}
	return name
}

// FoldName reduces a name to an accent-free, lowercase form for comparison,
// so "Djokovic" matches "Đoković" regardless of how the draw sheet or the
// user spelled it.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(name)))
}

// NamesEqual compares two player names accent- and case-insensitively.
func NamesEqual(a, b string) bool {
	return FoldName(a) == FoldName(b)
}

// IsByeMarker reports whether a parsed player name marks a bye slot.
func IsByeMarker(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "bye")
}
