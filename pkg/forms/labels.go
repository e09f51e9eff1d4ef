package forms

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Label converts a field name into a human-friendly label: underscores,
// dashes and camelCase boundaries become word breaks, and every word is
// title-cased. "authorName" and "author_name" both yield "Author Name".
func Label(name string) string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case i > 0 && isWordBoundary(runes[i-1], r):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
	}
	return strings.Join(words, " ")
}

func isWordBoundary(prev, r rune) bool {
	return (isLower(prev) && isUpper(r)) ||
		(isLetter(prev) && isDigit(r)) ||
		(isDigit(prev) && isLetter(r))
}

func isUpper(r rune) bool  { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool  { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return isUpper(r) || isLower(r) }
