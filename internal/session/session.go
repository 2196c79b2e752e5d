package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/sitesearch/internal/history"
	"github.com/mohammad-safakhou/sitesearch/internal/index"
	"github.com/mohammad-safakhou/sitesearch/internal/navigation"
	"github.com/mohammad-safakhou/sitesearch/internal/render"
	"github.com/mohammad-safakhou/sitesearch/internal/search"
	"github.com/mohammad-safakhou/sitesearch/internal/suggest"
)

// Status describes what the result area should show.
type Status string

const (
	// StatusLoading means the index has not finished its first load.
	StatusLoading Status = "loading"
	// StatusUnavailable means the index failed to load and nothing older
	// is available.
	StatusUnavailable Status = "unavailable"
	// StatusEmptyQuery means there is no query to run.
	StatusEmptyQuery Status = "empty-query"
	// StatusOK means the last search produced results.
	StatusOK Status = "ok"
	// StatusNoResults means the last search matched nothing.
	StatusNoResults Status = "no-results"
)

// Announcer receives live-region announcements for assistive tech.
type Announcer interface {
	Announce(message string)
}

// Navigator is told where to go when a result is activated.
type Navigator interface {
	NavigateTo(url string)
}

// EventSink receives analytics events. Implementations must not block.
type EventSink interface {
	TrackEvent(name string, payload map[string]string)
}

// QueryState is the user-visible input state of a session.
type QueryState struct {
	RawQuery      string          `json:"query"`
	ActiveFilters []string        `json:"filters"`
	SortMode      search.SortMode `json:"sort"`
	CursorIndex   int             `json:"cursor"`
}

// Snapshot is the full renderable state after an operation.
type Snapshot struct {
	State        QueryState             `json:"state"`
	Status       Status                 `json:"status"`
	Results      []render.DisplayResult `json:"results"`
	Suggestions  []string               `json:"suggestions,omitempty"`
	RelatedTerms []string               `json:"related_terms,omitempty"`
	Total        int                    `json:"total"`
}

// Deps are the collaborators a session operates over.
type Deps struct {
	Index     *index.Store
	Search    *search.Engine
	Suggest   *suggest.Engine
	History   *history.Store
	Announcer Announcer
	Navigator Navigator
	Events    EventSink

	SearchDebounce  time.Duration
	SuggestDebounce time.Duration
}

// Session drives one user's search interaction: debounced input, filter and
// sort changes, suggestions, keyboard navigation and history recording.
// Methods are safe for concurrent use.
type Session struct {
	id   string
	deps Deps

	mu           sync.Mutex
	state        QueryState
	status       Status
	results      []search.RankedResult
	suggestions  []string
	related      []string
	navigated    string
	announced    string
	nav          *navigation.Controller
	searchTimer  *time.Timer
	suggestTimer *time.Timer
	closed       bool

	logger *log.Logger
}

// New creates a session. An initial query, when non-empty, runs immediately
// without debouncing, matching a page opened via a ?q= link.
func New(deps Deps, initialQuery string) *Session {
	if deps.SearchDebounce <= 0 {
		deps.SearchDebounce = 300 * time.Millisecond
	}
	if deps.SuggestDebounce <= 0 {
		deps.SuggestDebounce = 200 * time.Millisecond
	}
	s := &Session{
		id:     uuid.NewString(),
		deps:   deps,
		status: StatusEmptyQuery,
		state:  QueryState{CursorIndex: navigation.Idle, ActiveFilters: []string{}},
		logger: log.New(log.Writer(), "[SESSION] ", log.LstdFlags),
	}
	s.nav = navigation.NewController(announcerFunc(s.recordAnnouncement), s.activate, s.cancelNavigation)
	if initialQuery != "" {
		s.state.RawQuery = initialQuery
		s.runSearch(context.Background(), true)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Input registers a keystroke's new query text. The search runs after the
// search debounce window and suggestions after the suggest debounce window;
// each keystroke cancels and restarts both timers independently.
func (s *Session) Input(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.RawQuery = query
	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	if s.suggestTimer != nil {
		s.suggestTimer.Stop()
	}
	s.searchTimer = time.AfterFunc(s.deps.SearchDebounce, func() {
		s.runSearch(context.Background(), true)
	})
	s.suggestTimer = time.AfterFunc(s.deps.SuggestDebounce, func() {
		s.runSuggest(context.Background())
	})
}

// SearchNow runs the current query immediately, bypassing the debounce.
// Used for explicit submits and the request/response API surface.
func (s *Session) SearchNow(ctx context.Context, query string) Snapshot {
	s.mu.Lock()
	if s.closed {
		defer s.mu.Unlock()
		return s.snapshotLocked()
	}
	s.state.RawQuery = query
	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	if s.suggestTimer != nil {
		s.suggestTimer.Stop()
	}
	s.mu.Unlock()

	s.runSearch(ctx, true)
	return s.Snapshot(ctx)
}

// UpdateOptions replaces the active filters and sort mode without running
// the search; the next search picks them up. Used by request/response
// callers that execute the query right after.
func (s *Session) UpdateOptions(filters []string, mode search.SortMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if filters == nil {
		filters = []string{}
	}
	s.state.ActiveFilters = filters
	s.state.SortMode = mode
}

// SetFilters replaces the active filters and re-runs the search immediately.
func (s *Session) SetFilters(ctx context.Context, filters []string) Snapshot {
	s.mu.Lock()
	if filters == nil {
		filters = []string{}
	}
	s.state.ActiveFilters = filters
	s.mu.Unlock()
	// Filter changes re-rank what is already on screen, so they skip both
	// the debounce and history recording.
	s.runSearch(ctx, false)
	return s.Snapshot(ctx)
}

// SetSort switches the sort mode and re-runs the search immediately.
func (s *Session) SetSort(ctx context.Context, mode search.SortMode) Snapshot {
	s.mu.Lock()
	s.state.SortMode = mode
	s.mu.Unlock()
	s.runSearch(ctx, false)
	return s.Snapshot(ctx)
}

// HandleKey feeds one key press to the navigation controller and reports
// whether it was consumed.
func (s *Session) HandleKey(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.HandleKey(key)
}

// Suggestions returns the latest suggestion list.
func (s *Session) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestions
}

// LastAnnouncement returns the most recent live-region message.
func (s *Session) LastAnnouncement() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.announced
}

// NavigatedURL returns the URL of the last activated result, or "".
func (s *Session) NavigatedURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigated
}

// Snapshot returns the current renderable state.
func (s *Session) Snapshot(ctx context.Context) Snapshot {
	var bookmarked map[string]bool
	if s.deps.History != nil {
		bookmarked = s.deps.History.BookmarkedURLs(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshotLocked()
	snap.Results = render.BuildResults(s.results, bookmarked)
	return snap
}

// Close stops the pending debounce timers. Further input is ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	if s.suggestTimer != nil {
		s.suggestTimer.Stop()
	}
}

func (s *Session) snapshotLocked() Snapshot {
	s.state.CursorIndex = s.nav.Cursor()
	return Snapshot{
		State:        s.state,
		Status:       s.status,
		Suggestions:  s.suggestions,
		RelatedTerms: s.related,
		Total:        len(s.results),
	}
}

// runSearch executes the current query and updates status, navigation items
// and, when record is set and the query is non-empty, the search history.
func (s *Session) runSearch(ctx context.Context, record bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	query := s.state.RawQuery
	filters := s.state.ActiveFilters
	mode := s.state.SortMode
	s.mu.Unlock()

	status, results := s.evaluate(query, filters, mode)

	var related []string
	if status == StatusNoResults && s.deps.Suggest != nil {
		related = s.deps.Suggest.RelatedTerms(ctx, query)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.results = results
	s.related = related
	s.nav.SetItems(render.NavigationItems(results))
	s.mu.Unlock()

	s.announceOutcome(status, query, len(results))
	if record && query != "" && (status == StatusOK || status == StatusNoResults) {
		if s.deps.History != nil {
			s.deps.History.AddSearch(ctx, query, len(results))
		}
		s.track("search", map[string]string{
			"query":   query,
			"results": fmt.Sprintf("%d", len(results)),
		})
		if status == StatusNoResults {
			s.track("search_zero_results", map[string]string{"query": query})
		}
	}
}

// evaluate maps the query and index state onto the status taxonomy.
func (s *Session) evaluate(query string, filters []string, mode search.SortMode) (Status, []search.RankedResult) {
	if query == "" {
		return StatusEmptyQuery, nil
	}
	if s.deps.Index == nil || !s.deps.Index.Ready() {
		if s.deps.Index != nil && s.deps.Index.Err() != nil {
			return StatusUnavailable, nil
		}
		return StatusLoading, nil
	}
	results := s.deps.Search.Search(query, filters, mode)
	if len(results) == 0 {
		return StatusNoResults, nil
	}
	return StatusOK, results
}

func (s *Session) runSuggest(ctx context.Context) {
	s.mu.Lock()
	if s.closed || s.deps.Suggest == nil {
		s.mu.Unlock()
		return
	}
	partial := s.state.RawQuery
	s.mu.Unlock()

	suggestions := s.deps.Suggest.Suggest(ctx, partial)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.suggestions = suggestions
	s.mu.Unlock()

	if len(suggestions) > 0 {
		s.track("suggestions", map[string]string{"partial": partial})
	}
}

func (s *Session) announceOutcome(status Status, query string, count int) {
	var msg string
	switch status {
	case StatusOK:
		msg = fmt.Sprintf("%d results for %s", count, query)
	case StatusNoResults:
		msg = fmt.Sprintf("No results for %s", query)
	case StatusUnavailable:
		msg = "Search is currently unavailable"
	default:
		return
	}
	s.mu.Lock()
	s.recordAnnouncement(msg)
	s.mu.Unlock()
}

// recordAnnouncement requires s.mu to be held.
func (s *Session) recordAnnouncement(msg string) {
	s.announced = msg
	if s.deps.Announcer != nil {
		s.deps.Announcer.Announce(msg)
	}
}

// activate handles Enter on a focused result: record the click-through,
// emit the analytics event and hand the URL to the navigator.
func (s *Session) activate(item navigation.Item, _ int) {
	query := s.state.RawQuery
	s.navigated = item.URL
	if s.deps.History != nil {
		go s.deps.History.TrackResultClick(context.Background(), query, item.URL)
	}
	s.track("result_click", map[string]string{"query": query, "url": item.URL})
	if s.deps.Navigator != nil {
		s.deps.Navigator.NavigateTo(item.URL)
	}
}

func (s *Session) cancelNavigation() {
	s.suggestions = nil
}

func (s *Session) track(name string, payload map[string]string) {
	if s.deps.Events != nil {
		s.deps.Events.TrackEvent(name, payload)
	}
}

// announcerFunc adapts a function to the navigation package's interface.
type announcerFunc func(string)

func (f announcerFunc) Announce(message string) { f(message) }
