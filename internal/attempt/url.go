package attempt

import (
	"net/url"
	"strings"
)

// NormalizeURL trims u and prefixes https:// when it has no http(s) scheme.
// Empty input stays empty. Normalizing twice yields the same value.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "https://" + u
}

// ValidURL reports whether a normalized URL can be navigated to.
func ValidURL(u string) bool {
	if u == "" {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Host != ""
}
