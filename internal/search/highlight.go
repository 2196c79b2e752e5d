package search

import (
	"regexp"
	"sort"
	"strings"
)

// highlighter wraps query terms in <mark> tags. Multi-word queries are
// highlighted term by term; terms of length one are skipped. All regexp
// metacharacters in user input are escaped, so a query like "c++" can never
// produce a pattern error.
type highlighter struct {
	re *regexp.Regexp
}

func newHighlighter(query string) highlighter {
	terms := make([]string, 0, 4)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(term)) > 1 {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return highlighter{}
	}
	// Alternation is leftmost-first, so longer terms go first: a term that
	// prefixes another ("go" vs "golang") must not shadow the longer match.
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })
	for i, term := range terms {
		terms[i] = regexp.QuoteMeta(term)
	}
	// One alternation pass over the text so a replacement can never be
	// re-matched by a later term.
	return highlighter{re: regexp.MustCompile(`(?i)(` + strings.Join(terms, "|") + `)`)}
}

func (h highlighter) mark(text string) string {
	if h.re == nil || text == "" {
		return text
	}
	return h.re.ReplaceAllString(text, "<mark>$1</mark>")
}
