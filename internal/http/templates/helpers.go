package templates

import (
	"strconv"
	"unicode"
)

func itoa(value uint) string {
	return strconv.FormatUint(uint64(value), 10)
}

// TitleGlyph returns the fallback avatar glyph for a page: the first
// character of its title, upper-cased.
func TitleGlyph(title string) string {
	for _, r := range title {
		if unicode.IsSpace(r) {
			continue
		}
		return string(unicode.ToUpper(r))
	}
	return "?"
}
