package report

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	notePolicyOnce sync.Once
	notePolicy     *bluemonday.Policy
	textPolicy     = bluemonday.StrictPolicy()
)

// sanitizeNote keeps a small set of inline formatting for HTML reports.
func sanitizeNote(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(noteSanitizer().Sanitize(trimmed))
}

// sanitizeText strips all markup and returns plain text; HTML templates
// escape it again on output.
func sanitizeText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(strings.TrimSpace(raw))))
}

func noteSanitizer() *bluemonday.Policy {
	notePolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("b", "strong", "i", "em", "br", "p", "ul", "ol", "li", "code")
		policy.AllowStandardURLs()
		policy.AllowAttrs("href").OnElements("a")
		policy.RequireNoFollowOnLinks(true)
		notePolicy = policy
	})
	return notePolicy
}
