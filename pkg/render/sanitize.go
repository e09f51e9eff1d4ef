package render

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	helpPolicyOnce sync.Once
	helpPolicy     *bluemonday.Policy
)

// sanitizeHelp strips help text down to a small inline-markup subset so
// schema-supplied strings cannot inject script into rendered forms.
func sanitizeHelp(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(helpSanitizer().Sanitize(trimmed))
}

func helpSanitizer() *bluemonday.Policy {
	helpPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("a", "b", "strong", "i", "em", "code", "br")
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.AllowStandardURLs()
		helpPolicy = policy
	})
	return helpPolicy
}
