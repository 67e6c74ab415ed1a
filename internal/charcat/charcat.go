// Package charcat classifies runes into the coarse character categories used
// for unknown-word fallback: runs of same-category characters are grouped
// into a single synthetic morpheme.
package charcat

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category is a coarse character class.
type Category uint8

const (
	Default Category = iota // anything not covered below (symbols, punctuation, emoji)
	Space                   // Unicode whitespace
	Numeric                 // ASCII and full-width digits
	Alpha                   // Latin letters, including full-width forms
	Kanji                   // Han ideographs
	Kana                    // Hiragana, Katakana and the prolonged sound mark
)

// All lists every category in declaration order.
var All = []Category{Default, Space, Numeric, Alpha, Kanji, Kana}

// String returns the unk.def name of the category.
func (c Category) String() string {
	switch c {
	case Default:
		return "DEFAULT"
	case Space:
		return "SPACE"
	case Numeric:
		return "NUMERIC"
	case Alpha:
		return "ALPHA"
	case Kanji:
		return "KANJI"
	case Kana:
		return "KANA"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Parse maps a category name to a Category. Names are case-insensitive;
// HIRAGANA and KATAKANA map to Kana and SYMBOL maps to Default.
func Parse(name string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEFAULT", "SYMBOL":
		return Default, nil
	case "SPACE":
		return Space, nil
	case "NUMERIC":
		return Numeric, nil
	case "ALPHA":
		return Alpha, nil
	case "KANJI":
		return Kanji, nil
	case "KANA", "HIRAGANA", "KATAKANA":
		return Kana, nil
	default:
		return Default, fmt.Errorf("unknown character category %q", name)
	}
}

// Of returns the category of r.
func Of(r rune) Category {
	switch {
	case unicode.IsSpace(r):
		return Space
	case r >= '0' && r <= '9', r >= '０' && r <= '９':
		return Numeric
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
		r >= 'ａ' && r <= 'ｚ', r >= 'Ａ' && r <= 'Ｚ':
		return Alpha
	case unicode.Is(unicode.Han, r), r == '々', r == '〆':
		return Kanji
	case unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r), r == 'ー':
		return Kana
	case unicode.IsLetter(r):
		// Other alphabets (Greek, Cyrillic, Hangul...) group like Latin.
		return Alpha
	default:
		return Default
	}
}

// Run returns the category of the first rune of s and the byte length of the
// longest prefix of s whose runes share that category, limited to maxRunes
// runes. It returns (Default, 0) for an empty string. The returned length is
// at least one rune for non-empty input, even when maxRunes < 1.
func Run(s string, maxRunes int) (Category, int) {
	if s == "" {
		return Default, 0
	}
	if maxRunes < 1 {
		maxRunes = 1
	}

	first, size := utf8.DecodeRuneInString(s)
	cat := Of(first)
	end := size
	count := 1

	for end < len(s) && count < maxRunes {
		r, n := utf8.DecodeRuneInString(s[end:])
		if Of(r) != cat {
			break
		}
		end += n
		count++
	}

	return cat, end
}
