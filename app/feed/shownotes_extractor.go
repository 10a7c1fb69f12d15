package feed

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/go-shiori/go-readability"
)

// ShownotesExtractor pulls the readable article body out of an episode's
// web page, for feeds whose descriptions are stubs pointing at full
// shownotes online.
type ShownotesExtractor struct{}

func NewShownotesExtractor() *ShownotesExtractor {
	return &ShownotesExtractor{}
}

func (e *ShownotesExtractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract shownotes: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no shownotes extracted from HTML data")
	}

	slog.Debug("Shownotes extracted successfully",
		"title", article.Title,
		"content_length", len(article.Content))

	return article.Content, nil
}
