package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/sitesearch/config"
	"github.com/mohammad-safakhou/sitesearch/internal/index"
)

type testDoc struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	URL        string   `json:"url"`
	Type       string   `json:"type,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Date       string   `json:"date,omitempty"`
}

func loadedStore(t *testing.T, docs []testDoc) *index.Store {
	t.Helper()
	body, err := json.Marshal(docs)
	if err != nil {
		t.Fatalf("marshal docs: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	store := index.NewStore(config.IndexConfig{SourceURL: srv.URL, SnippetLength: 180}.Normalize())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return store
}

func siteDocs() []testDoc {
	return []testDoc{
		{Title: "CSS Grid Layout", Content: "A guide to css grid. css css css css css css.", URL: "/css-grid/", Type: "post", Date: "2024-02-01"},
		{Title: "css", Content: "all about css, css everywhere", URL: "/css/", Type: "post", Date: "2024-01-01"},
		{Title: "About Me", Content: "I write about css sometimes", URL: "/about/", Type: "page"},
		{Title: "Terminal Portfolio", Content: "a project built in javascript", URL: "/projects/terminal/", Type: "project", Categories: []string{"javascript"}},
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 50)
	if got := e.Search("", nil, SortRelevance); got != nil {
		t.Fatalf("expected nil for empty query, got %d results", len(got))
	}
	if got := e.Search("   ", nil, SortRelevance); got != nil {
		t.Fatalf("expected nil for whitespace query, got %d results", len(got))
	}
}

func TestSearchNotReadyStore(t *testing.T) {
	store := index.NewStore(config.IndexConfig{SourceURL: "http://127.0.0.1:0/none", SnippetLength: 180}.Normalize())
	e := NewEngine(store, 50)
	if got := e.Search("css", nil, SortRelevance); got != nil {
		t.Fatalf("expected nil before first load, got %d results", len(got))
	}
}

func TestSearchRelevanceOrdering(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 50)
	results := e.Search("css", nil, SortRelevance)
	if len(results) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(results))
	}
	// Exact title match (10+10, +2 content) beats prefix title
	// (10+5, +5 capped content) beats content-only (1).
	if results[0].Document.URL != "/css/" {
		t.Fatalf("expected exact title match first, got %s", results[0].Document.URL)
	}
	if results[1].Document.URL != "/css-grid/" {
		t.Fatalf("expected title prefix match second, got %s", results[1].Document.URL)
	}
	if results[2].Document.URL != "/about/" {
		t.Fatalf("expected content-only match last, got %s", results[2].Document.URL)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("scores not descending at %d", i)
		}
	}
}

func TestContentOccurrencesCapped(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 50)
	results := e.Search("css", nil, SortRelevance)
	// /css-grid/ mentions css seven times in content; the content
	// contribution caps at 5, plus 10 title and 5 prefix.
	if results[1].Score != 20 {
		t.Fatalf("expected capped score 20, got %d", results[1].Score)
	}
}

func TestSearchHighlighting(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 50)
	results := e.Search("grid", nil, SortRelevance)
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %d", len(results))
	}
	if !strings.Contains(results[0].TitleHTML, "<mark>Grid</mark>") {
		t.Fatalf("expected case-preserving highlight, got %q", results[0].TitleHTML)
	}
}

func TestSearchRegexMetacharacters(t *testing.T) {
	docs := append(siteDocs(), testDoc{Title: "Why I like C++", Content: "notes on c++", URL: "/cpp/", Type: "post"})
	e := NewEngine(loadedStore(t, docs), 50)
	results := e.Search("c++", nil, SortRelevance)
	if len(results) != 1 {
		t.Fatalf("expected 1 match for c++, got %d", len(results))
	}
	if !strings.Contains(results[0].TitleHTML, "<mark>C++</mark>") {
		t.Fatalf("expected literal highlight, got %q", results[0].TitleHTML)
	}
}

func TestBlogFilterAliasesPostType(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 50)
	results := e.Search("css", []string{"blog"}, SortRelevance)
	for _, r := range results {
		if r.Document.Type != "post" {
			t.Fatalf("blog filter leaked type %q", r.Document.Type)
		}
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 post matches, got %d", len(results))
	}
}

func TestAllFilterMatchesEverything(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 50)
	if got, want := len(e.Search("css", []string{"all"}, SortRelevance)), 3; got != want {
		t.Fatalf("expected %d results under all filter, got %d", want, got)
	}
}

func TestCategoryFilter(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 50)
	results := e.Search("javascript", []string{"javascript"}, SortRelevance)
	if len(results) != 1 || results[0].Document.URL != "/projects/terminal/" {
		t.Fatalf("expected the project match, got %v", results)
	}
}

func TestDateSortPutsUndatedLast(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 50)
	results := e.Search("css", nil, SortDate)
	if len(results) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(results))
	}
	if results[0].Document.URL != "/css-grid/" || results[1].Document.URL != "/css/" {
		t.Fatalf("expected newest first, got %s then %s", results[0].Document.URL, results[1].Document.URL)
	}
	if results[2].Document.URL != "/about/" {
		t.Fatalf("expected undated document last, got %s", results[2].Document.URL)
	}
}

func TestMaxResultsCap(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 2)
	if got := len(e.Search("css", nil, SortRelevance)); got != 2 {
		t.Fatalf("expected capped result count 2, got %d", got)
	}
}

func TestParseSortMode(t *testing.T) {
	if ParseSortMode("date") != SortDate {
		t.Fatalf("expected date mode")
	}
	if ParseSortMode(" DATE ") != SortDate {
		t.Fatalf("expected trimmed case-insensitive date mode")
	}
	if ParseSortMode("nonsense") != SortRelevance {
		t.Fatalf("expected fallback to relevance")
	}
}

func TestPreviewFor(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 50)
	p := e.PreviewFor("css")
	if p.Total != 3 {
		t.Fatalf("expected preview total 3, got %d", p.Total)
	}
	if len(p.Titles) != 3 {
		t.Fatalf("expected 3 preview titles, got %v", p.Titles)
	}
	if !strings.Contains(p.Titles[0], "<mark>") {
		t.Fatalf("expected highlighted preview title, got %q", p.Titles[0])
	}
	if got := e.PreviewFor("c"); got.Total != 0 || got.Titles != nil {
		t.Fatalf("expected empty preview below minimum length, got %+v", got)
	}
}

func TestCategoryCounts(t *testing.T) {
	e := NewEngine(loadedStore(t, siteDocs()), 50)
	counts := CategoryCounts(e.Search("css", nil, SortRelevance))
	if counts["blog"] != 2 || counts["page"] != 1 || counts["project"] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
