package search

import (
	"log"
	"sort"
	"strings"

	"github.com/mohammad-safakhou/sitesearch/internal/index"
)

// SortMode selects result ordering.
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortDate      SortMode = "date"
)

// ParseSortMode maps a user-supplied string onto a SortMode, defaulting to
// relevance for anything unknown.
func ParseSortMode(s string) SortMode {
	if SortMode(strings.ToLower(strings.TrimSpace(s))) == SortDate {
		return SortDate
	}
	return SortRelevance
}

// RankedResult is one scored match. TitleHTML and SnippetHTML carry the
// per-term highlight markers; the underlying Document is never mutated.
type RankedResult struct {
	Document    index.Document `json:"document"`
	Score       int            `json:"score"`
	TitleHTML   string         `json:"title_html"`
	SnippetHTML string         `json:"snippet_html"`
}

// Engine executes queries against the index store.
type Engine struct {
	store      *index.Store
	maxResults int
	logger     *log.Logger
}

// NewEngine creates an Engine. maxResults <= 0 means unlimited.
func NewEngine(store *index.Store, maxResults int) *Engine {
	return &Engine{
		store:      store,
		maxResults: maxResults,
		logger:     log.New(log.Writer(), "[SEARCH] ", log.LstdFlags),
	}
}

// Search returns the ranked, highlighted matches for query under the active
// filters and sort mode. An empty or whitespace-only query returns nil, as
// does a not-yet-loaded index; callers distinguish the two via the store.
func (e *Engine) Search(query string, filters []string, mode SortMode) []RankedResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || !e.store.Ready() {
		return nil
	}

	docs := e.store.Documents()
	results := make([]RankedResult, 0, 16)
	highlighter := newHighlighter(query)
	for _, doc := range docs {
		if !matchesText(doc, query) {
			continue
		}
		if !matchesFilters(doc, filters) {
			continue
		}
		results = append(results, RankedResult{
			Document:    doc,
			Score:       relevanceScore(doc, query),
			TitleHTML:   highlighter.mark(doc.Title),
			SnippetHTML: highlighter.mark(doc.Snippet),
		})
	}

	sortResults(results, mode)
	if e.maxResults > 0 && len(results) > e.maxResults {
		results = results[:e.maxResults]
	}
	return results
}

// matchesText reports whether the query appears as a case-insensitive
// substring in title, content, snippet or any category.
func matchesText(doc index.Document, query string) bool {
	if strings.Contains(strings.ToLower(doc.Title), query) ||
		strings.Contains(strings.ToLower(doc.Content), query) ||
		strings.Contains(strings.ToLower(doc.Snippet), query) {
		return true
	}
	for _, cat := range doc.Categories {
		if strings.Contains(strings.ToLower(cat), query) {
			return true
		}
	}
	return false
}

// filterAliases maps UI filter names onto index document types.
var filterAliases = map[string]string{
	"blog": "post",
}

// matchesFilters applies the active category filters. An empty filter set
// means no filtering; "all" matches everything.
func matchesFilters(doc index.Document, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	docType := strings.ToLower(doc.Type)
	for _, f := range filters {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || f == "all" {
			return true
		}
		if f == docType {
			return true
		}
		if alias, ok := filterAliases[f]; ok && alias == docType {
			return true
		}
		for _, cat := range doc.Categories {
			if strings.EqualFold(cat, f) {
				return true
			}
		}
	}
	return false
}

// relevanceScore ranks a matching document: 10 for a title hit, 10 more for
// an exact title match, 5 for a title prefix, plus content occurrences
// capped at 5.
func relevanceScore(doc index.Document, query string) int {
	score := 0
	title := strings.ToLower(doc.Title)
	if strings.Contains(title, query) {
		score += 10
		if title == query {
			score += 10
		} else if strings.HasPrefix(title, query) {
			score += 5
		}
	}
	content := strings.ToLower(doc.Content)
	if occurrences := strings.Count(content, query); occurrences > 0 {
		if occurrences > 5 {
			occurrences = 5
		}
		score += occurrences
	}
	return score
}

// sortResults orders results in place. Both modes are stable so ties keep
// index order.
func sortResults(results []RankedResult, mode SortMode) {
	if mode == SortDate {
		sort.SliceStable(results, func(i, j int) bool {
			di, dj := results[i].Document.PublishedAt, results[j].Document.PublishedAt
			if di.IsZero() != dj.IsZero() {
				return !di.IsZero() // dated documents before undated ones
			}
			return di.After(dj)
		})
		return
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// Preview summarizes what a query would return while the user is still
// typing: the total match count plus up to three highlighted titles.
type Preview struct {
	Total  int      `json:"total"`
	Titles []string `json:"titles,omitempty"`
}

// PreviewFor returns the typing-time preview. Queries shorter than two
// characters produce an empty preview.
func (e *Engine) PreviewFor(query string) Preview {
	if len([]rune(strings.TrimSpace(query))) < 2 {
		return Preview{}
	}
	results := e.Search(query, nil, SortRelevance)
	p := Preview{Total: len(results)}
	for i, r := range results {
		if i == 3 {
			break
		}
		p.Titles = append(p.Titles, r.TitleHTML)
	}
	return p
}

// CategoryCounts tallies results per UI filter bucket (blog/project/page)
// so the filter badges can show live counts.
func CategoryCounts(results []RankedResult) map[string]int {
	counts := map[string]int{"blog": 0, "project": 0, "page": 0}
	for _, r := range results {
		switch strings.ToLower(r.Document.Type) {
		case "post", "blog":
			counts["blog"]++
		case "project":
			counts["project"]++
		default:
			counts["page"]++
		}
	}
	return counts
}
