package index

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// strictHTMLPolicy returns a singleton bluemonday policy that strips every
// HTML element and attribute, leaving plain indexable text.
func strictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// StripHTML removes every HTML tag from s and collapses the whitespace the
// removed tags leave behind. Script and style payloads are dropped entirely.
func StripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	clean := strictHTMLPolicy().Sanitize(s)
	return strings.Join(strings.Fields(clean), " ")
}
