package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mohammad-safakhou/sitesearch/config"
	"github.com/mohammad-safakhou/sitesearch/internal/history"
	"github.com/mohammad-safakhou/sitesearch/internal/index"
	"github.com/mohammad-safakhou/sitesearch/internal/navigation"
	"github.com/mohammad-safakhou/sitesearch/internal/search"
	"github.com/mohammad-safakhou/sitesearch/internal/session"
	"github.com/mohammad-safakhou/sitesearch/internal/suggest"
)

type recordingNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (r *recordingNavigator) NavigateTo(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
}

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) TrackEvent(name string, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recordingSink) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func loadedStore(t *testing.T) *index.Store {
	t.Helper()
	docs := []map[string]interface{}{
		{"title": "CSS Grid Layout", "content": "a guide to css grid", "url": "/css-grid/", "type": "post", "date": "2024-02-01"},
		{"title": "About Me", "content": "I write about css sometimes", "url": "/about/", "type": "page"},
	}
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

func testDeps(t *testing.T, store *index.Store) session.Deps {
	t.Helper()
	hist := history.NewStore(history.NewMemoryStorage(), 10)
	return session.Deps{
		Index:           store,
		Search:          search.NewEngine(store, 50),
		Suggest:         suggest.NewEngine(store, hist, nil, 5),
		History:         hist,
		SearchDebounce:  20 * time.Millisecond,
		SuggestDebounce: 10 * time.Millisecond,
	}
}

func TestSearchNowStatuses(t *testing.T) {
	store := loadedStore(t)
	s := session.New(testDeps(t, store), "")
	defer s.Close()
	ctx := context.Background()

	if snap := s.SearchNow(ctx, ""); snap.Status != session.StatusEmptyQuery {
		t.Fatalf("expected empty-query, got %s", snap.Status)
	}
	if snap := s.SearchNow(ctx, "css"); snap.Status != session.StatusOK || snap.Total != 2 {
		t.Fatalf("expected ok with 2 results, got %s/%d", snap.Status, snap.Total)
	}
	snap := s.SearchNow(ctx, "zzzzz")
	if snap.Status != session.StatusNoResults {
		t.Fatalf("expected no-results, got %s", snap.Status)
	}
}

func TestLoadingStatusBeforeFirstLoad(t *testing.T) {
	store := index.NewStore(config.IndexConfig{SourceURL: "http://127.0.0.1:0/none", SnippetLength: 180}.Normalize())
	s := session.New(testDeps(t, store), "")
	defer s.Close()
	if snap := s.SearchNow(context.Background(), "css"); snap.Status != session.StatusLoading {
		t.Fatalf("expected loading, got %s", snap.Status)
	}
}

func TestDebouncedInputLastKeystrokeWins(t *testing.T) {
	store := loadedStore(t)
	s := session.New(testDeps(t, store), "")
	defer s.Close()

	s.Input("c")
	s.Input("cs")
	s.Input("css")
	time.Sleep(150 * time.Millisecond)

	snap := s.Snapshot(context.Background())
	if snap.State.RawQuery != "css" {
		t.Fatalf("expected final query css, got %q", snap.State.RawQuery)
	}
	if snap.Status != session.StatusOK || snap.Total != 2 {
		t.Fatalf("expected debounced search to run once with results, got %s/%d", snap.Status, snap.Total)
	}
}

func TestDebouncedSuggestions(t *testing.T) {
	store := loadedStore(t)
	s := session.New(testDeps(t, store), "")
	defer s.Close()

	s.Input("css")
	time.Sleep(150 * time.Millisecond)
	suggestions := s.Suggestions()
	if len(suggestions) == 0 {
		t.Fatalf("expected title suggestions for css")
	}
	if suggestions[0] != "CSS Grid Layout" {
		t.Fatalf("expected title suggestion first, got %v", suggestions)
	}
}

func TestSearchRecordsHistory(t *testing.T) {
	store := loadedStore(t)
	deps := testDeps(t, store)
	s := session.New(deps, "")
	defer s.Close()
	ctx := context.Background()

	s.SearchNow(ctx, "css")
	entries := deps.History.GetRecent(ctx, 10)
	if len(entries) != 1 || entries[0].Query != "css" || entries[0].ResultCount != 2 {
		t.Fatalf("expected committed search recorded, got %+v", entries)
	}
}

func TestUpdateOptionsDoesNotSearch(t *testing.T) {
	store := loadedStore(t)
	s := session.New(testDeps(t, store), "")
	defer s.Close()
	ctx := context.Background()

	s.UpdateOptions([]string{"blog"}, search.SortDate)
	snap := s.Snapshot(ctx)
	if snap.Status != session.StatusEmptyQuery {
		t.Fatalf("option changes must not execute a search, got status %s", snap.Status)
	}
	if snap.State.SortMode != search.SortDate || len(snap.State.ActiveFilters) != 1 {
		t.Fatalf("expected options recorded, got %+v", snap.State)
	}

	// The next search picks the recorded options up.
	snap = s.SearchNow(ctx, "css")
	if snap.Status != session.StatusOK || snap.Total != 1 {
		t.Fatalf("expected blog filter applied on next search, got %s/%d", snap.Status, snap.Total)
	}
}

func TestFilterChangeSkipsHistory(t *testing.T) {
	store := loadedStore(t)
	deps := testDeps(t, store)
	s := session.New(deps, "")
	defer s.Close()
	ctx := context.Background()

	s.SearchNow(ctx, "css")
	snap := s.SetFilters(ctx, []string{"blog"})
	if snap.Total != 1 {
		t.Fatalf("expected filter to narrow to 1, got %d", snap.Total)
	}
	if entries := deps.History.GetRecent(ctx, 10); len(entries) != 1 {
		t.Fatalf("filter changes must not add history entries, got %+v", entries)
	}
}

func TestSortChangeRerunsImmediately(t *testing.T) {
	store := loadedStore(t)
	s := session.New(testDeps(t, store), "")
	defer s.Close()
	ctx := context.Background()

	s.SearchNow(ctx, "css")
	snap := s.SetSort(ctx, search.SortDate)
	if snap.State.SortMode != search.SortDate {
		t.Fatalf("expected sort mode recorded, got %s", snap.State.SortMode)
	}
	if len(snap.Results) != 2 || snap.Results[0].URL != "/css-grid/" {
		t.Fatalf("expected dated document first after re-sort, got %+v", snap.Results)
	}
}

func TestRelatedTermsOnNoResults(t *testing.T) {
	store := loadedStore(t)
	s := session.New(testDeps(t, store), "")
	defer s.Close()

	snap := s.SearchNow(context.Background(), "grids")
	if snap.Status != session.StatusNoResults {
		t.Fatalf("expected no-results, got %s", snap.Status)
	}
	if len(snap.RelatedTerms) == 0 {
		t.Fatalf("expected related terms for a near-miss query")
	}
}

func TestKeyboardNavigationAndActivation(t *testing.T) {
	store := loadedStore(t)
	deps := testDeps(t, store)
	nav := &recordingNavigator{}
	sink := &recordingSink{}
	deps.Navigator = nav
	deps.Events = sink
	s := session.New(deps, "")
	defer s.Close()
	ctx := context.Background()

	s.SearchNow(ctx, "css")
	if !s.HandleKey(navigation.KeyArrowDown) {
		t.Fatalf("expected arrow key consumed")
	}
	if msg := s.LastAnnouncement(); msg != "Result 1 of 2: CSS Grid Layout" {
		t.Fatalf("unexpected announcement %q", msg)
	}
	if !s.HandleKey(navigation.KeyEnter) {
		t.Fatalf("expected enter consumed")
	}
	if s.NavigatedURL() != "/css-grid/" {
		t.Fatalf("expected navigation to first result, got %q", s.NavigatedURL())
	}
	nav.mu.Lock()
	gotNav := len(nav.urls)
	nav.mu.Unlock()
	if gotNav != 1 {
		t.Fatalf("expected one navigation, got %d", gotNav)
	}

	found := false
	for _, name := range sink.names() {
		if name == "result_click" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected result_click event, got %v", sink.names())
	}
}

func TestInitialQueryRunsImmediately(t *testing.T) {
	store := loadedStore(t)
	s := session.New(testDeps(t, store), "css")
	defer s.Close()

	snap := s.Snapshot(context.Background())
	if snap.Status != session.StatusOK || snap.Total != 2 {
		t.Fatalf("expected immediate search for seeded query, got %s/%d", snap.Status, snap.Total)
	}
}

func TestCloseCancelsPendingSearch(t *testing.T) {
	store := loadedStore(t)
	s := session.New(testDeps(t, store), "")

	s.Input("css")
	s.Close()
	time.Sleep(100 * time.Millisecond)

	snap := s.Snapshot(context.Background())
	if snap.Status != session.StatusEmptyQuery {
		t.Fatalf("expected no search after close, got %s", snap.Status)
	}
}
