package urlutil

import (
	"net/url"
	"strings"
)

// Scheme shortcuts seen in the wild for podcast subscriptions.
var schemeAliases = map[string]string{
	"feed": "http",
	"itpc": "http",
	"itms": "http",
}

// NormalizeFeedURL brings a feed or enclosure URL into canonical form:
// scheme aliases expanded, missing scheme defaulted to http, host
// lowercased, empty path replaced with "/". Returns "" for values that
// cannot be interpreted as a fetchable URL.
func NormalizeFeedURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	if alias, ok := schemeAliases[scheme]; ok {
		scheme = alias
	}

	switch scheme {
	case "http", "https", "ftp", "file":
	default:
		return ""
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	if u.Host != "" && u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// Join resolves ref against base the way a browser would. Either side
// failing to parse leaves ref untouched.
func Join(base, ref string) string {
	if base == "" {
		return ref
	}

	b, err := url.Parse(base)
	if err != nil {
		return ref
	}

	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	return b.ResolveReference(r).String()
}
