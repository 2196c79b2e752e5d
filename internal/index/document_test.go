package index

import (
	"strings"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	doc := normalize(rawDocument{
		Title:   "  Hello  ",
		Content: "<p>Some <b>content</b> here</p>",
		URL:     "/hello/",
	}, 180)
	if doc.ID != "/hello/" {
		t.Fatalf("expected ID to default to URL, got %q", doc.ID)
	}
	if doc.Type != "page" {
		t.Fatalf("expected default type page, got %q", doc.Type)
	}
	if doc.Title != "Hello" {
		t.Fatalf("expected trimmed title, got %q", doc.Title)
	}
	if doc.Content != "Some content here" {
		t.Fatalf("expected stripped content, got %q", doc.Content)
	}
	if doc.Categories == nil {
		t.Fatalf("expected non-nil categories")
	}
}

func TestNormalizeSnippetFallbackChain(t *testing.T) {
	doc := normalize(rawDocument{
		URL:         "/a/",
		Content:     "full content body",
		Description: "  the description  ",
	}, 180)
	if doc.Snippet != "the description" {
		t.Fatalf("expected description as snippet, got %q", doc.Snippet)
	}

	doc = normalize(rawDocument{URL: "/b/", Content: "full content body"}, 180)
	if doc.Snippet != "full content body" {
		t.Fatalf("expected content-derived snippet, got %q", doc.Snippet)
	}
}

func TestNormalizeSnippetTruncation(t *testing.T) {
	long := strings.Repeat("x", 300)
	doc := normalize(rawDocument{URL: "/c/", Content: long}, 180)
	if !strings.HasSuffix(doc.Snippet, "...") {
		t.Fatalf("expected ellipsis on truncated snippet, got %q", doc.Snippet)
	}
	if len([]rune(doc.Snippet)) != 183 {
		t.Fatalf("expected 180 runes plus ellipsis, got %d", len([]rune(doc.Snippet)))
	}
}

func TestParseDateLayouts(t *testing.T) {
	for _, raw := range []string{
		"2024-03-15T10:30:00Z",
		"2024-03-15 10:30:00 +0000",
		"2024-03-15",
	} {
		if parseDate(raw).IsZero() {
			t.Fatalf("expected %q to parse", raw)
		}
	}
	if !parseDate("not a date").IsZero() {
		t.Fatalf("expected garbage date to be zero")
	}
	if !parseDate("").IsZero() {
		t.Fatalf("expected empty date to be zero")
	}
}
