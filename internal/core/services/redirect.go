package services

import (
	"net/url"
	"strings"
)

// ParseRedirectURI extracts the parameters carried by a redirect URI.
//
// Parameters are read from the query, or from the fragment when the query is
// empty. Segments without "=" or with an empty key are skipped, as are
// segments that fail to percent-decode. The last occurrence of a key wins.
// A malformed URI yields an empty map; the result is never nil.
func ParseRedirectURI(uri string) map[string]string {
	params := make(map[string]string)

	u, err := url.Parse(uri)
	if err != nil {
		return params
	}

	raw := u.RawQuery
	if raw == "" {
		raw = u.EscapedFragment()
	}
	if raw == "" {
		return params
	}

	for _, segment := range strings.Split(raw, "&") {
		rawKey, rawValue, ok := strings.Cut(segment, "=")
		if !ok || rawKey == "" {
			continue
		}
		key, err := url.QueryUnescape(rawKey)
		if err != nil || key == "" {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		params[key] = value
	}
	return params
}
