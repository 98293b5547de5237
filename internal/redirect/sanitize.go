package redirect

import (
	"net/url"
	"strings"
)

// Sanitize validates a client-supplied "where to go next" string and returns
// a safe same-origin path, or "" when the candidate cannot be trusted.
//
// Every redirect in the impersonation flow is attacker-influenced (query
// parameter or form field), so anything that is not a path-rooted relative
// reference is rejected: absolute URLs, protocol-relative //host prefixes,
// backslash variants browsers normalize to slashes, and values carrying
// control characters that could split headers.
func Sanitize(candidate string) string {
	if candidate == "" {
		return ""
	}

	for _, r := range candidate {
		if r < 0x20 || r == 0x7f {
			return ""
		}
	}

	if !strings.HasPrefix(candidate, "/") {
		return ""
	}
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return ""
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	if u.Scheme != "" || u.Host != "" || u.User != nil {
		return ""
	}

	return candidate
}

// FirstSafe returns the first candidate that survives Sanitize, falling back
// to def. def is trusted configuration, not client input.
func FirstSafe(def string, candidates ...string) string {
	for _, c := range candidates {
		if safe := Sanitize(c); safe != "" {
			return safe
		}
	}
	return def
}
