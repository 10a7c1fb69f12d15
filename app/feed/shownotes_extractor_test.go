package feed

import (
	"strings"
	"testing"
)

func TestShownotesExtractor_ValidHTML(t *testing.T) {
	extractor := NewShownotesExtractor()

	htmlContent := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Episode 42 Shownotes</title>
	</head>
	<body>
		<header>
			<h1>Site Header</h1>
			<nav>Navigation</nav>
		</header>
		<main>
			<article>
				<h1>Episode 42: The Big Interview</h1>
				<p>In this episode we sit down with our guest to talk about the main content of the article. It contains several paragraphs of meaningful text that should be extracted by the readability algorithm.</p>
				<p>This is another paragraph with more content. The readability algorithm should identify this as the main content area and extract it properly.</p>
				<p>Here is some more substantial content to ensure we meet the character threshold. This paragraph adds more context and information that would be valuable to listeners.</p>
			</article>
		</main>
		<aside>
			<div>Advertisement</div>
			<div>Related Episodes</div>
		</aside>
		<footer>
			<p>Copyright 2024</p>
		</footer>
	</body>
	</html>
	`

	result, err := extractor.Run([]byte(htmlContent))

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if result == "" {
		t.Errorf("Expected non-empty result")
	}

	// Check that main content is included
	if !strings.Contains(result, "main content of the article") {
		t.Errorf("Expected extracted shownotes to contain main article text")
	}

	// Check that non-content elements are likely excluded
	if strings.Contains(result, "Advertisement") {
		t.Errorf("Expected extracted shownotes to exclude advertisement")
	}

	if strings.Contains(result, "Copyright 2024") {
		t.Errorf("Expected extracted shownotes to exclude footer")
	}
}

func TestShownotesExtractor_EmptyData(t *testing.T) {
	extractor := NewShownotesExtractor()

	result, err := extractor.Run([]byte{})

	if err == nil {
		t.Errorf("Expected error for empty data")
	}

	if result != "" {
		t.Errorf("Expected empty result for empty data")
	}

	expectedError := "HTML data is empty"
	if err.Error() != expectedError {
		t.Errorf("Expected error message '%s', got '%s'", expectedError, err.Error())
	}
}

func TestShownotesExtractor_NilData(t *testing.T) {
	extractor := NewShownotesExtractor()

	result, err := extractor.Run(nil)

	if err == nil {
		t.Errorf("Expected error for nil data")
	}

	if result != "" {
		t.Errorf("Expected empty result for nil data")
	}
}

func TestShownotesExtractor_InvalidHTML(t *testing.T) {
	extractor := NewShownotesExtractor()

	// Malformed HTML
	htmlContent := `<html><body><p>Unclosed paragraph<div>Malformed content</body>`

	result, err := extractor.Run([]byte(htmlContent))

	// The go-readability library should handle malformed HTML gracefully.
	// It might succeed with partial content or fail, both are acceptable.
	if err != nil {
		if result != "" {
			t.Errorf("Expected empty result when extraction fails")
		}
	} else {
		if result == "" {
			t.Errorf("Expected non-empty result when extraction succeeds")
		}
	}
}

func TestShownotesExtractor_LongArticle(t *testing.T) {
	extractor := NewShownotesExtractor()

	// Create a long article that definitely meets character threshold
	var paragraphs []string
	for i := 0; i < 10; i++ {
		paragraphs = append(paragraphs, `<p>This is paragraph number `+string(rune(i+48))+`. It contains substantial content that should be extracted by the readability algorithm. The content is meaningful and provides value to listeners who are interested in the topic being discussed.</p>`)
	}

	htmlContent := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Long Shownotes</title>
	</head>
	<body>
		<nav>Site Navigation</nav>
		<main>
			<article>
				<h1>Long Shownotes Title</h1>
				` + strings.Join(paragraphs, "\n") + `
			</article>
		</main>
		<aside>
			<div>Sidebar content</div>
		</aside>
		<footer>Footer content</footer>
	</body>
	</html>
	`

	result, err := extractor.Run([]byte(htmlContent))

	if err != nil {
		t.Errorf("Expected no error for long article, got: %v", err)
	}

	if result == "" {
		t.Errorf("Expected non-empty result for long article")
	}

	if !strings.Contains(result, "paragraph number") {
		t.Errorf("Expected extracted shownotes to contain article paragraphs")
	}

	if len(result) < 200 {
		t.Errorf("Expected extracted shownotes to be substantial, got %d characters", len(result))
	}
}

func TestShownotesExtractor_PreservesFormatting(t *testing.T) {
	extractor := NewShownotesExtractor()

	htmlContent := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Formatted Shownotes</title>
	</head>
	<body>
		<article>
			<h1>Shownotes with Formatting</h1>
			<p>This paragraph contains <strong>bold text</strong> and <em>italic text</em> that should be preserved.</p>
			<p>Here's a <a href="https://example.com">link to example</a> that should be maintained.</p>
			<ul>
				<li>First list item</li>
				<li>Second list item</li>
			</ul>
			<p>This paragraph follows the list and contains more content for the shownotes.</p>
		</article>
	</body>
	</html>
	`

	result, err := extractor.Run([]byte(htmlContent))

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if !strings.Contains(result, "<strong>") || !strings.Contains(result, "</strong>") {
		t.Errorf("Expected extracted shownotes to preserve bold formatting")
	}

	if !strings.Contains(result, "<em>") || !strings.Contains(result, "</em>") {
		t.Errorf("Expected extracted shownotes to preserve italic formatting")
	}

	if !strings.Contains(result, "<a href=") {
		t.Errorf("Expected extracted shownotes to preserve links")
	}
}

func TestShownotesExtractor_ScriptAndStyleRemoval(t *testing.T) {
	extractor := NewShownotesExtractor()

	htmlContent := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Shownotes with Scripts</title>
		<style>
			body { font-family: Arial; }
		</style>
	</head>
	<body>
		<script>
			console.log("This script should be removed");
			var trackingCode = "analytics";
		</script>
		<article>
			<h1>Clean Shownotes Content</h1>
			<p>This is the main content that should be extracted without any scripts or styles interfering. The article contains substantial text content that meets the readability algorithm's requirements.</p>
			<p>The extraction should focus on the meaningful text and ignore technical elements. This paragraph provides additional context and information for listeners.</p>
			<p>Here is more substantial content to ensure we meet the character threshold. This episode discusses important topics and provides valuable information to listeners who are interested in the subject matter.</p>
		</article>
	</body>
	</html>
	`

	result, err := extractor.Run([]byte(htmlContent))

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if !strings.Contains(result, "main content that should be extracted") {
		t.Errorf("Expected extracted shownotes to contain main article text")
	}

	if strings.Contains(result, "console.log") {
		t.Errorf("Expected extracted shownotes to exclude script content")
	}

	if strings.Contains(result, "font-family") {
		t.Errorf("Expected extracted shownotes to exclude style content")
	}
}
