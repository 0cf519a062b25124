package refine

import (
	"errors"
	"unicode/utf8"
)

// Character sets the patterns are written with. regexp2's own \w also admits
// combining marks, connector punctuation and the zero-width joiners while
// rejecting non-decimal numerics such as "²" or "Ⅻ", and its \s leaves out
// the information separators U+001C..U+001F.
const (
	// wordChars: letters, every numeric character and underscore.
	wordChars = `\p{L}\p{N}_`

	// spaceChars: Unicode white space plus U+001C..U+001F.
	spaceChars = `\s\x1c-\x1f`

	// wordEnd asserts that the next character does not continue a word.
	wordEnd = `(?![` + wordChars + `])`
)

// ErrInvalidUTF8 is returned for text that is not valid UTF-8. Such values
// are never rewritten: substitution would turn every invalid byte into U+FFFD.
var ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

func checkUTF8(s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	return nil
}
