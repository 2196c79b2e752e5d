package suggest

import (
	"sort"
	"strings"

	"github.com/blevesearch/bleve"
)

// vocabularyEntry is what gets indexed for fuzzy lookup: one term per
// document, keyed by the term itself.
type vocabularyEntry struct {
	Term string `json:"term"`
}

// fuzzyCandidates looks the term up in the mem-only vocabulary index using a
// fuzzy query plus a prefix query on the term's first characters. Hits come
// back sorted so the output is deterministic for a fixed index.
func (e *Engine) fuzzyCandidates(term string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureVocabulary(); err != nil {
		e.logger.Printf("vocabulary index unavailable: %v", err)
		return nil
	}
	if e.fuzzy == nil {
		return nil
	}

	fq := bleve.NewFuzzyQuery(term)
	fq.SetField("term")
	fq.SetFuzziness(1)
	prefix := term
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	pq := bleve.NewPrefixQuery(prefix)
	pq.SetField("term")

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(fq, pq), 2*e.limit, 0, false)
	res, err := e.fuzzy.Search(req)
	if err != nil {
		e.logger.Printf("fuzzy lookup failed: %v", err)
		return nil
	}
	candidates := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if hit.ID != term {
			candidates = append(candidates, hit.ID)
		}
	}
	sort.Strings(candidates)
	return candidates
}

// ensureVocabulary rebuilds the fuzzy index when the document count changed
// since the last build. Held under e.mu by the caller.
func (e *Engine) ensureVocabulary() error {
	docs := e.store.Documents()
	if e.fuzzy != nil && e.indexed == len(docs) {
		return nil
	}
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return err
	}

	terms := make(map[string]struct{})
	for _, topic := range e.topics {
		terms[strings.ToLower(strings.TrimSpace(topic))] = struct{}{}
	}
	for _, doc := range docs {
		for _, word := range strings.Fields(strings.ToLower(doc.Title)) {
			word = strings.Trim(word, ".,:;!?\"'()[]")
			if len([]rune(word)) > 3 {
				terms[word] = struct{}{}
			}
		}
		for _, cat := range doc.Categories {
			terms[strings.ToLower(strings.TrimSpace(cat))] = struct{}{}
		}
	}
	delete(terms, "")

	batch := idx.NewBatch()
	for term := range terms {
		if err := batch.Index(term, vocabularyEntry{Term: term}); err != nil {
			return err
		}
	}
	if err := idx.Batch(batch); err != nil {
		return err
	}
	if e.fuzzy != nil {
		_ = e.fuzzy.Close()
	}
	e.fuzzy = idx
	e.indexed = len(docs)
	return nil
}
