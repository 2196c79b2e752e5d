package index

import (
	"strings"
	"time"
)

// Document is one searchable entry of the site index, normalized from the
// generator output. Fields are read-only after load.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Snippet     string    `json:"snippet"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	Categories  []string  `json:"categories"`
	Date        string    `json:"date,omitempty"`
	PublishedAt time.Time `json:"-"`
}

// rawDocument mirrors the JSON emitted by the site generator. Several
// generations of the index format are still in the wild, hence the
// description/summary/excerpt aliases.
type rawDocument struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Snippet     string   `json:"snippet"`
	Description string   `json:"description"`
	Summary     string   `json:"summary"`
	Excerpt     string   `json:"excerpt"`
	URL         string   `json:"url"`
	Type        string   `json:"type"`
	Categories  []string `json:"categories"`
	Date        string   `json:"date"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// normalize converts one raw index record into a Document, filling every
// optional field with its documented default.
func normalize(raw rawDocument, snippetLen int) Document {
	doc := Document{
		ID:         strings.TrimSpace(raw.ID),
		Title:      strings.TrimSpace(raw.Title),
		Content:    StripHTML(raw.Content),
		URL:        strings.TrimSpace(raw.URL),
		Type:       strings.TrimSpace(raw.Type),
		Categories: raw.Categories,
		Date:       strings.TrimSpace(raw.Date),
	}
	if doc.ID == "" {
		doc.ID = doc.URL
	}
	if doc.Type == "" {
		doc.Type = "page"
	}
	if doc.Categories == nil {
		doc.Categories = []string{}
	}
	doc.Snippet = firstNonEmpty(raw.Snippet, raw.Description, raw.Summary, raw.Excerpt)
	if doc.Snippet == "" {
		doc.Snippet = extractSnippet(doc.Content, snippetLen)
	} else {
		doc.Snippet = StripHTML(doc.Snippet)
	}
	doc.PublishedAt = parseDate(doc.Date)
	return doc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// extractSnippet truncates already-stripped content to at most length runes,
// appending an ellipsis marker when it had to cut.
func extractSnippet(content string, length int) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	runes := []rune(content)
	if len(runes) <= length {
		return content
	}
	return string(runes[:length]) + "..."
}
