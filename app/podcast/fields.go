package podcast

import (
	"strconv"
	"strings"
)

// squashWhitespace collapses interior whitespace runs to single spaces and
// trims the ends.
func squashWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// parseLength interprets an enclosure length attribute. Declared lengths of
// zero are treated as unknown, matching feeds that emit length="0" when they
// do not know the size.
func parseLength(text string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || n <= 0 {
		return UnknownFileSize
	}
	return n
}

// parseType validates a declared MIME type, falling back to the generic
// binary default when the value is empty or not a type/subtype pair.
func parseType(text string) string {
	if text == "" || !strings.Contains(text, "/") {
		return DefaultMimeType
	}
	return text
}
