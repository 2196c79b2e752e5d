package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/mohammad-safakhou/sitesearch/config"
)

// Store holds the in-memory search index. Documents are replaced as a single
// atomic swap on every successful load; readers never observe a partial
// update. A failed load keeps the previous documents and records the error.
type Store struct {
	mu      sync.RWMutex
	docs    []Document
	loaded  bool
	loadErr error

	sourceURL  string
	snippetLen int
	client     *http.Client
	logger     *log.Logger
	onReload   func(error)
}

// SetReloadObserver registers a callback invoked after every load attempt
// with its outcome. Must be set before the first Load.
func (s *Store) SetReloadObserver(fn func(error)) {
	s.onReload = fn
}

// NewStore creates a Store that loads from cfg.SourceURL.
func NewStore(cfg config.IndexConfig) *Store {
	return &Store{
		sourceURL:  cfg.SourceURL,
		snippetLen: cfg.SnippetLength,
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		logger:     log.New(log.Writer(), "[INDEX] ", log.LstdFlags),
	}
}

// Load fetches the JSON index, normalizes every record and swaps it in.
// On any failure the prior in-memory index is left untouched and the error
// state is retained until a later Load succeeds.
func (s *Store) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sourceURL, nil)
	if err != nil {
		return s.fail(fmt.Errorf("build index request: %w", err))
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return s.fail(fmt.Errorf("fetch search index: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return s.fail(fmt.Errorf("fetch search index: unexpected status %d", resp.StatusCode))
	}

	var raws []rawDocument
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return s.fail(fmt.Errorf("decode search index: %w", err))
	}

	docs := make([]Document, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		doc := normalize(raw, s.snippetLen)
		if doc.URL == "" {
			continue
		}
		// The generator has been seen emitting a page twice; first wins.
		if _, dup := seen[doc.URL]; dup {
			continue
		}
		seen[doc.URL] = struct{}{}
		docs = append(docs, doc)
	}

	s.mu.Lock()
	s.docs = docs
	s.loaded = true
	s.loadErr = nil
	s.mu.Unlock()

	s.logger.Printf("search index loaded with %d entries", len(docs))
	if s.onReload != nil {
		s.onReload(nil)
	}
	return nil
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
	s.logger.Printf("search index load failed: %v", err)
	if s.onReload != nil {
		s.onReload(err)
	}
	return err
}

// Documents returns the current index snapshot. The returned slice must be
// treated as read-only.
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs
}

// Ready reports whether at least one load has succeeded. An empty-but-valid
// index is ready; a never-loaded or failed-only index is not.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Err returns the most recent load error, or nil after a successful load.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Count returns the number of indexed documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
