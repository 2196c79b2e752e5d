package render

import (
	"time"

	"github.com/mohammad-safakhou/sitesearch/internal/navigation"
	"github.com/mohammad-safakhou/sitesearch/internal/search"
)

// DisplayResult is one search hit shaped for presentation: highlighted
// title and snippet, a human date and the bookmark state.
type DisplayResult struct {
	Title      string   `json:"title"`
	Snippet    string   `json:"snippet"`
	URL        string   `json:"url"`
	Type       string   `json:"type"`
	Categories []string `json:"categories,omitempty"`
	Date       string   `json:"date,omitempty"`
	Bookmarked bool     `json:"bookmarked"`
}

// BuildResults shapes ranked results for display. bookmarked may be nil.
func BuildResults(results []search.RankedResult, bookmarked map[string]bool) []DisplayResult {
	out := make([]DisplayResult, 0, len(results))
	for _, r := range results {
		doc := r.Document
		dr := DisplayResult{
			Title:      r.TitleHTML,
			Snippet:    r.SnippetHTML,
			URL:        doc.URL,
			Type:       doc.Type,
			Categories: doc.Categories,
			Bookmarked: bookmarked[doc.URL],
		}
		if !doc.PublishedAt.IsZero() {
			dr.Date = doc.PublishedAt.Format("January 2, 2006")
		} else if doc.Date != "" {
			dr.Date = doc.Date
		}
		out = append(out, dr)
	}
	return out
}

// NavigationItems derives the keyboard-navigable list from ranked results.
func NavigationItems(results []search.RankedResult) []navigation.Item {
	items := make([]navigation.Item, 0, len(results))
	for _, r := range results {
		items = append(items, navigation.Item{Label: r.Document.Title, URL: r.Document.URL})
	}
	return items
}

// FormatDate renders a document date for display, or "" when unset.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}
