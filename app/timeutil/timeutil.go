package timeutil

import (
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// ParseDuration converts podcast duration notation (HH:MM:SS, MM:SS or bare
// seconds) into whole seconds. Unparseable input yields 0.
func ParseDuration(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}

	return total
}

// ParseDate converts a feed timestamp into Unix epoch seconds. Feeds carry
// everything from RFC 1123 to bare ISO dates, so parsing is delegated to
// dateparse. Unparseable input yields 0.
func ParseDate(text string) int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	t, err := dateparse.ParseAny(text)
	if err != nil {
		return 0
	}

	return t.Unix()
}
