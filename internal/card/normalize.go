package card

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// ContentKey reduces card text to the key used for content deduplication:
// 1. Trim leading/trailing whitespace
// 2. Case-fold to lowercase
// 3. Collapse internal whitespace to single spaces
//
// Cards whose texts collapse to the same non-empty key are content
// duplicates. An empty key marks the card as having no content at all.
func ContentKey(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ToLower(text)
	return whitespaceRegex.ReplaceAllString(text, " ")
}

// CountChars returns the character count as runes (not bytes).
// This correctly handles multi-byte UTF-8 characters.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
