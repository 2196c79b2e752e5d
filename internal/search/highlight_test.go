package search

import "testing"

func TestHighlightMarksEachTerm(t *testing.T) {
	h := newHighlighter("grid layout")
	got := h.mark("CSS Grid Layout basics")
	if got != "CSS <mark>Grid</mark> <mark>Layout</mark> basics" {
		t.Fatalf("unexpected highlight %q", got)
	}
}

func TestHighlightPrefixTermDoesNotShadowLonger(t *testing.T) {
	h := newHighlighter("go golang")
	got := h.mark("golang tips for go")
	if got != "<mark>golang</mark> tips for <mark>go</mark>" {
		t.Fatalf("expected the longer term marked in full, got %q", got)
	}
}

func TestHighlightSkipsSingleCharTerms(t *testing.T) {
	h := newHighlighter("a go")
	got := h.mark("a go board")
	if got != "a <mark>go</mark> board" {
		t.Fatalf("unexpected highlight %q", got)
	}
}

func TestHighlightEmptyQuery(t *testing.T) {
	h := newHighlighter("  ")
	if got := h.mark("anything"); got != "anything" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestHighlightEscapesMetacharacters(t *testing.T) {
	h := newHighlighter("c++ (notes)")
	got := h.mark("my c++ (notes) page")
	if got != "my <mark>c++</mark> <mark>(notes)</mark> page" {
		t.Fatalf("unexpected highlight %q", got)
	}
}
