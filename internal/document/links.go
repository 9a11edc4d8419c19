package document

import (
	"net/url"
	"slices"
	"strings"
)

// DefaultRedirectHosts lists hosts whose /url endpoint wraps the real link
// target in a query parameter. Exported diagrams from document editors
// route every outbound link through one of these.
var DefaultRedirectHosts = []string{"google.com"}

// UnwrapRedirect returns the real destination of a redirect-wrapped href:
// https://www.google.com/url?q=https%3A%2F%2Fexample.com%2F&sa=D becomes
// https://example.com/. Exactly one layer is unwrapped. Hrefs that are not
// redirect wrappers, or whose wrapped target is not an absolute http(s)
// URL, are returned unchanged.
func UnwrapRedirect(href string, hosts []string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || u.Host == "" {
		return href
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if !slices.Contains(hosts, host) || u.Path != "/url" {
		return href
	}

	q := u.Query()
	target := q.Get("q")
	if target == "" {
		target = q.Get("url")
	}

	t, err := url.Parse(target)
	if err != nil || t.Host == "" || (t.Scheme != "http" && t.Scheme != "https") {
		return href
	}
	return target
}
