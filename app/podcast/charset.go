package podcast

import (
	"io"

	"golang.org/x/text/encoding/htmlindex"
)

// newReaderLabel decodes non-UTF-8 documents for the pull parser using the
// WHATWG encoding label registry.
func newReaderLabel(label string, input io.Reader) (io.Reader, error) {
	conv, err := htmlindex.Get(label)
	if err != nil {
		return nil, err
	}

	name, err := htmlindex.Name(conv)
	if err == nil && name == "utf-8" {
		return input, nil
	}

	return conv.NewDecoder().Reader(input), nil
}
