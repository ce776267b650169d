package clipboard

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	classPattern = regexp.MustCompile(`^[\w\- ]+$`)
	langPattern  = regexp.MustCompile(`^[\w\-+#.]+$`)
	alignPattern = regexp.MustCompile(`^(?i)(left|center|right|justify)$`)
)

// NewSanitizer returns the policy applied to the text/html representation.
// It keeps the attributes the GFM rules read, so pasting the HTML back into
// a converter gives the same markup.
func NewSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classPattern).Globally()
	p.AllowAttrs("lang").Matching(langPattern).Globally()
	p.AllowAttrs("align").Matching(alignPattern).OnElements("th", "td")
	p.AllowStyles("text-align").MatchingEnum("left", "center", "right", "justify").OnElements("th", "td")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowElements("input")
	return p
}

// Sanitize cleans markup with policy. A nil policy leaves it untouched.
func Sanitize(policy *bluemonday.Policy, markup string) string {
	if policy == nil {
		return markup
	}
	return policy.Sanitize(markup)
}
