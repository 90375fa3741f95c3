// Package label renders the short status surface label for a pull request.
//
// Two styles exist: "number" prints the issue number, "short" compresses the
// title into a phonetic abbreviation that stays recognizable at a glance.
package label

import (
	"fmt"
	"strings"
)

// Style selects how a pull request is labelled.
type Style string

// Supported label styles.
const (
	StyleShort  Style = "short"
	StyleNumber Style = "number"
)

// Valid reports whether s is a known style.
func (s Style) Valid() bool {
	return s == StyleShort || s == StyleNumber
}

const (
	maxKept       = 15
	softStopAfter = 8
)

// isStop reports whether r terminates the scan outright.
func isStop(r rune) bool {
	return r == '`' || r == '.' || r == ':'
}

// isVowel reports whether r is dropped during the scan. Only lowercase
// vowels are dropped; uppercase letters survive so leading capitals keep
// the label readable.
func isVowel(r rune) bool {
	return r == 'a' || r == 'e' || r == 'i' || r == 'o' || r == 'u'
}

// isWord reports whether r is a word character (letter, digit or underscore).
func isWord(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// Short compresses a title into an abbreviation. Scanning stops at the first
// backtick, period or colon, once 15 characters have been kept, or once more
// than 8 characters have been kept and the next character is a non-word
// character. Lowercase vowels are dropped; everything else is kept.
func Short(title string) string {
	var b strings.Builder
	kept := 0
	for _, r := range title {
		if isStop(r) {
			break
		}
		if kept > softStopAfter && !isWord(r) {
			break
		}
		if isVowel(r) {
			continue
		}
		b.WriteRune(r)
		kept++
		if kept >= maxKept {
			break
		}
	}
	return b.String()
}

// Number renders the numeric style label.
func Number(number int) string {
	return fmt.Sprintf("#%d", number)
}

// Render produces the label for the given style, falling back to the short
// style for unknown values.
func Render(style Style, title string, number int) string {
	if style == StyleNumber {
		return Number(number)
	}
	return Short(title)
}
