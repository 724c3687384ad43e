package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	titleMaxWords = 5
	titleEllipsis = "..."
)

// DeriveTitle labels a conversation with the first five words of message, capitalized,
// followed by an ellipsis when words were dropped.
func DeriveTitle(message string) string {
	words := strings.Fields(message)
	if len(words) == 0 {
		return ""
	}

	n := min(len(words), titleMaxWords)
	title := strings.Join(words[:n], " ")
	if len(words) > titleMaxWords {
		title += titleEllipsis
	}

	first, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(first)) + title[size:]
}
