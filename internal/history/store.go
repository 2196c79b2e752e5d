package history

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	historyKey   = "sitesearch:history"
	clicksKey    = "sitesearch:clicks"
	bookmarksKey = "sitesearch:bookmarks"

	// DefaultMaxEntries caps the recent-search list. The browser variants
	// of this feature used values between 5 and 10; 10 is the documented
	// choice.
	DefaultMaxEntries = 10

	// maxClickQueries caps the number of distinct query keys in the click
	// log; the oldest key is evicted on overflow.
	maxClickQueries = 50
)

// Entry is one committed search.
type Entry struct {
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// Click is one recorded result click-through.
type Click struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// Bookmark is a saved result, unique by URL.
type Bookmark struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Trend compares the average result count of the five most recent searches
// against the five before them.
type Trend struct {
	Direction  string `json:"direction"` // up, down or neutral
	Percentage int    `json:"percentage"`
}

// Stats is the aggregate summary surfaced on the admin dashboard.
type Stats struct {
	Count          int     `json:"count"`
	MostCommonTerm string  `json:"most_common_term"`
	AverageResults float64 `json:"average_results"`
}

// clickLog keeps insertion order next to the click map so the oldest query
// key can be evicted deterministically.
type clickLog struct {
	Order  []string           `json:"order"`
	Clicks map[string][]Click `json:"clicks"`
}

// Store persists search history, click-throughs and bookmarks. Every
// operation degrades instead of failing: storage errors and corrupt values
// are logged and callers receive empty defaults, never an error or a panic.
type Store struct {
	storage    Storage
	maxEntries int
	logger     *log.Logger
	now        func() time.Time
}

// NewStore creates a Store over the given storage. maxEntries <= 0 selects
// DefaultMaxEntries.
func NewStore(storage Storage, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		storage:    storage,
		maxEntries: maxEntries,
		logger:     log.New(log.Writer(), "[HISTORY] ", log.LstdFlags),
		now:        time.Now,
	}
}

// AddSearch records a committed search. A repeated query moves to the front
// with its new result count rather than duplicating; the list is truncated
// to the configured maximum.
func (s *Store) AddSearch(ctx context.Context, query string, resultCount int) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	entries := s.loadEntries(ctx)
	kept := entries[:0]
	for _, e := range entries {
		if e.Query != query {
			kept = append(kept, e)
		}
	}
	entries = append([]Entry{{Query: query, ResultCount: resultCount, Timestamp: s.now()}}, kept...)
	if len(entries) > s.maxEntries {
		entries = entries[:s.maxEntries]
	}
	s.saveJSON(ctx, historyKey, entries)
}

// GetRecent returns up to n entries, most recent first.
func (s *Store) GetRecent(ctx context.Context, n int) []Entry {
	entries := s.loadEntries(ctx)
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// CommonTerms returns the most frequent history queries, frequency
// descending, ties broken by recency.
func (s *Store) CommonTerms(ctx context.Context, limit int) []string {
	entries := s.loadEntries(ctx)
	counts := make(map[string]int, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := counts[e.Query]; !ok {
			order = append(order, e.Query)
		}
		counts[e.Query]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if limit >= 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}

// SuccessRate returns the percentage of recorded searches that found at
// least one result, rounded to the nearest whole percent.
func (s *Store) SuccessRate(ctx context.Context) int {
	entries := s.loadEntries(ctx)
	if len(entries) == 0 {
		return 0
	}
	successful := 0
	for _, e := range entries {
		if e.ResultCount > 0 {
			successful++
		}
	}
	return int(math.Round(float64(successful) / float64(len(entries)) * 100))
}

// GetTrend compares the most recent five searches against the five before
// them. With no previous window the trend is neutral.
func (s *Store) GetTrend(ctx context.Context) Trend {
	entries := s.loadEntries(ctx)
	if len(entries) < 2 {
		return Trend{Direction: "neutral"}
	}
	recent := entries
	if len(recent) > 5 {
		recent = recent[:5]
	}
	var previous []Entry
	if len(entries) > 5 {
		previous = entries[5:]
		if len(previous) > 5 {
			previous = previous[:5]
		}
	}
	if len(previous) == 0 {
		return Trend{Direction: "neutral"}
	}
	recentAvg := averageResults(recent)
	prevAvg := averageResults(previous)
	if prevAvg == 0 {
		return Trend{Direction: "neutral"}
	}
	change := int(math.Round((recentAvg - prevAvg) / prevAvg * 100))
	switch {
	case change > 0:
		return Trend{Direction: "up", Percentage: change}
	case change < 0:
		return Trend{Direction: "down", Percentage: -change}
	default:
		return Trend{Direction: "neutral"}
	}
}

// GetStats summarizes the current history.
func (s *Store) GetStats(ctx context.Context) Stats {
	entries := s.loadEntries(ctx)
	if len(entries) == 0 {
		return Stats{}
	}
	common := s.CommonTerms(ctx, 1)
	stats := Stats{
		Count:          len(entries),
		AverageResults: averageResults(entries),
	}
	if len(common) > 0 {
		stats.MostCommonTerm = common[0]
	}
	return stats
}

// Clear removes all persisted search history.
func (s *Store) Clear(ctx context.Context) {
	if err := s.storage.Del(ctx, historyKey); err != nil {
		s.logger.Printf("clear history: %v", err)
	}
}

// TrackResultClick appends a click-through to the per-query click log,
// evicting the oldest query key once more than maxClickQueries are tracked.
func (s *Store) TrackResultClick(ctx context.Context, query, url string) {
	query = strings.TrimSpace(query)
	if query == "" || url == "" {
		return
	}
	logData := s.loadClicks(ctx)
	if _, ok := logData.Clicks[query]; !ok {
		logData.Order = append(logData.Order, query)
	}
	logData.Clicks[query] = append(logData.Clicks[query], Click{URL: url, Timestamp: s.now()})
	for len(logData.Order) > maxClickQueries {
		oldest := logData.Order[0]
		logData.Order = logData.Order[1:]
		delete(logData.Clicks, oldest)
	}
	s.saveJSON(ctx, clicksKey, logData)
}

// ClicksFor returns the recorded click-throughs for a query.
func (s *Store) ClicksFor(ctx context.Context, query string) []Click {
	return s.loadClicks(ctx).Clicks[query]
}

// ClickedQueries returns the tracked query keys, oldest first.
func (s *Store) ClickedQueries(ctx context.Context) []string {
	return s.loadClicks(ctx).Order
}

// ToggleBookmark adds the bookmark when absent and removes it when present,
// keyed by URL. Reports whether the bookmark exists after the call.
func (s *Store) ToggleBookmark(ctx context.Context, url, title string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return false
	}
	bookmarks := s.Bookmarks(ctx)
	kept := bookmarks[:0]
	removed := false
	for _, b := range bookmarks {
		if b.URL == url {
			removed = true
			continue
		}
		kept = append(kept, b)
	}
	if !removed {
		kept = append(kept, Bookmark{URL: url, Title: strings.TrimSpace(title)})
	}
	s.saveJSON(ctx, bookmarksKey, kept)
	return !removed
}

// Bookmarks returns all saved bookmarks in insertion order.
func (s *Store) Bookmarks(ctx context.Context) []Bookmark {
	var bookmarks []Bookmark
	s.loadJSON(ctx, bookmarksKey, &bookmarks)
	if bookmarks == nil {
		bookmarks = []Bookmark{}
	}
	return bookmarks
}

// BookmarkedURLs returns the bookmark URL set for quick membership checks.
func (s *Store) BookmarkedURLs(ctx context.Context) map[string]bool {
	set := make(map[string]bool)
	for _, b := range s.Bookmarks(ctx) {
		set[b.URL] = true
	}
	return set
}

func (s *Store) loadEntries(ctx context.Context) []Entry {
	var entries []Entry
	s.loadJSON(ctx, historyKey, &entries)
	if entries == nil {
		entries = []Entry{}
	}
	return entries
}

func (s *Store) loadClicks(ctx context.Context) clickLog {
	var logData clickLog
	s.loadJSON(ctx, clicksKey, &logData)
	if logData.Clicks == nil {
		logData.Clicks = make(map[string][]Click)
	}
	return logData
}

// loadJSON reads and decodes one key. A missing key, a storage failure or a
// corrupt value all leave dest untouched; corruption in one key never
// affects the others.
func (s *Store) loadJSON(ctx context.Context, key string, dest interface{}) {
	raw, err := s.storage.Get(ctx, key)
	if err != nil {
		s.logger.Printf("read %s: %v", key, err)
		return
	}
	if raw == "" {
		return
	}
	if !json.Valid([]byte(raw)) {
		s.logger.Printf("corrupt value at %s, treating as empty", key)
		return
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.logger.Printf("corrupt value at %s, treating as empty: %v", key, err)
	}
}

func (s *Store) saveJSON(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Printf("encode %s: %v", key, err)
		return
	}
	if err := s.storage.Set(ctx, key, string(data)); err != nil {
		s.logger.Printf("write %s: %v", key, err)
	}
}

func averageResults(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	total := 0
	for _, e := range entries {
		total += e.ResultCount
	}
	return float64(total) / float64(len(entries))
}
