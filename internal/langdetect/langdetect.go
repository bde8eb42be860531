// Package langdetect classifies text into a language label using Unicode
// script ranges. The detector is advisory: the generator's self-reported
// language takes precedence when its output parses.
package langdetect

// scriptRange maps a codepoint range to a language label. Order matters:
// Latin is checked first so mixed text containing any Latin letter stays
// "English".
type scriptRange struct {
	lo, hi   rune
	language string
}

// Fallback labels
const (
	LangEnglish  = "English"
	LangRegional = "Regional Indian"
)

var scripts = []scriptRange{
	{'a', 'z', LangEnglish},
	{'A', 'Z', LangEnglish},
	{0x0900, 0x097F, "Hindi"}, // Devanagari
	{0x0B80, 0x0BFF, "Tamil"},
	{0x0C00, 0x0C7F, "Telugu"},
	{0x0C80, 0x0CFF, "Gujarati"}, // historical label for this range, kept for compatibility
	{0x0980, 0x09FF, "Bengali"},
}

// Detect returns the label of the first script range matching any rune in
// text. Empty text is "English"; unmatched non-empty text is "Regional Indian".
func Detect(text string) string {
	if text == "" {
		return LangEnglish
	}

	for _, s := range scripts {
		for _, r := range text {
			if r >= s.lo && r <= s.hi {
				return s.language
			}
		}
	}
	return LangRegional
}
