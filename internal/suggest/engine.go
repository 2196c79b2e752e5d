package suggest

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/mohammad-safakhou/sitesearch/internal/index"
)

const minQueryLength = 2

// CommonTermSource supplies the rolling list of historical search terms.
// The history store implements it; failures surface as an empty list.
type CommonTermSource interface {
	CommonTerms(ctx context.Context, limit int) []string
}

// Engine produces autocomplete suggestions and, for searches that came back
// empty, related alternative terms.
type Engine struct {
	store   *index.Store
	history CommonTermSource
	topics  []string
	limit   int
	logger  *log.Logger

	mu      sync.Mutex
	fuzzy   bleve.Index
	indexed int
}

// NewEngine creates an Engine. topics seed the related-term vocabulary with
// site-wide subjects; limit caps every returned list.
func NewEngine(store *index.Store, history CommonTermSource, topics []string, limit int) *Engine {
	if limit <= 0 {
		limit = 5
	}
	return &Engine{
		store:   store,
		history: history,
		topics:  topics,
		limit:   limit,
		logger:  log.New(log.Writer(), "[SUGGEST] ", log.LstdFlags),
	}
}

// Suggest returns up to limit completions for a partial query: document
// titles containing it first, then matching historical terms. Queries
// shorter than two characters always return nil.
func (e *Engine) Suggest(ctx context.Context, partial string) []string {
	partial = strings.TrimSpace(partial)
	if len([]rune(partial)) < minQueryLength {
		return nil
	}
	lowered := strings.ToLower(partial)

	out := make([]string, 0, e.limit)
	seen := make(map[string]struct{})
	add := func(s string) bool {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" {
			return len(out) < e.limit
		}
		if _, dup := seen[key]; dup {
			return len(out) < e.limit
		}
		seen[key] = struct{}{}
		out = append(out, s)
		return len(out) < e.limit
	}

	for _, doc := range e.store.Documents() {
		if strings.Contains(strings.ToLower(doc.Title), lowered) {
			if !add(doc.Title) {
				return out
			}
		}
	}
	if e.history != nil {
		for _, term := range e.history.CommonTerms(ctx, e.limit) {
			if strings.Contains(strings.ToLower(term), lowered) {
				if !add(term) {
					return out
				}
			}
		}
	}
	return out
}

// RelatedTerms derives alternative queries for a search that matched
// nothing: leading words of multi-word queries, simple morphological
// variants of single words, and fuzzy/prefix candidates from indexed titles,
// categories and site topics. Deterministic for a fixed index; capped at the
// engine limit.
func (e *Engine) RelatedTerms(ctx context.Context, query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	terms := splitTerms(query)
	if len(terms) == 0 {
		return nil
	}

	out := make([]string, 0, e.limit)
	seen := map[string]struct{}{query: {}}
	add := func(s string) bool {
		s = strings.TrimSpace(s)
		if s == "" {
			return len(out) < e.limit
		}
		if _, dup := seen[s]; dup {
			return len(out) < e.limit
		}
		seen[s] = struct{}{}
		out = append(out, s)
		return len(out) < e.limit
	}

	if len(terms) > 1 {
		for _, t := range terms[:2] {
			if !add(t) {
				return out
			}
		}
	} else {
		for _, v := range morphologicalVariants(terms[0]) {
			if !add(v) {
				return out
			}
		}
	}

	for _, t := range terms {
		for _, candidate := range e.fuzzyCandidates(t) {
			if !add(candidate) {
				return out
			}
		}
	}
	return out
}

// splitTerms keeps whitespace-delimited terms longer than one character.
func splitTerms(query string) []string {
	fields := strings.Fields(query)
	terms := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			terms = append(terms, f)
		}
	}
	return terms
}

// morphologicalVariants applies the simple plural/tense transformations the
// related-term heuristic relies on.
func morphologicalVariants(term string) []string {
	if len(term) <= 3 {
		return nil
	}
	switch {
	case strings.HasSuffix(term, "ing"):
		return []string{term[:len(term)-3]}
	case strings.HasSuffix(term, "ed"):
		return []string{term[:len(term)-2]}
	case strings.HasSuffix(term, "s"):
		return []string{term[:len(term)-1]}
	default:
		return []string{term + "s"}
	}
}
