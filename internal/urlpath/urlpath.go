// Package urlpath expands ":name" path templates and joins URI segments.
package urlpath

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	placeholder = regexp.MustCompile(`:([A-Za-z0-9_]+)`)
	slashes     = regexp.MustCompile(`/{2,}`)
)

// Expand replaces every ":name" token in template with the path-escaped value
// of params[name]. Tokens without a matching param are left as they are.
func Expand(template string, params map[string]string) string {
	if len(params) == 0 {
		return template
	}

	return placeholder.ReplaceAllStringFunc(template, func(token string) string {
		value, ok := params[token[1:]]
		if !ok {
			return token
		}

		return url.PathEscape(value)
	})
}

// Placeholders lists the names of the ":name" tokens in template, in order.
func Placeholders(template string) []string {
	matches := placeholder.FindAllStringSubmatch(template, -1)

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, match[1])
	}

	return names
}

// Join concatenates host and segments with "/" and collapses repeated
// slashes. The "//" that follows a URL scheme is kept. A query string on host
// is moved after the joined path and merged with any query the segments carry.
func Join(host string, segments ...string) string {
	base, hostQuery, hostFragment := splitSuffix(host)

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, base)
	parts = append(parts, segments...)

	joined := strings.Join(parts, "/")

	scheme := ""
	if idx := strings.Index(joined, "://"); idx >= 0 {
		scheme, joined = joined[:idx+3], joined[idx+3:]
	}

	path, query, fragment := splitSuffix(joined)

	path = slashes.ReplaceAllString(path, "/")

	switch {
	case hostQuery == "":
	case query == "":
		query = hostQuery
	default:
		query = hostQuery + "&" + query[1:]
	}

	if fragment == "" {
		fragment = hostFragment
	}

	// a slash right before the query string is dropped: "/a/?x" -> "/a?x"
	if query != "" || fragment != "" {
		path = strings.TrimSuffix(path, "/")
	}

	return scheme + path + query + fragment
}

// splitSuffix cuts s into its path, its "?query" and its "#fragment".
func splitSuffix(s string) (path, query, fragment string) {
	if idx := strings.IndexByte(s, '#'); idx >= 0 {
		s, fragment = s[:idx], s[idx:]
	}

	if idx := strings.IndexByte(s, '?'); idx >= 0 {
		s, query = s[:idx], s[idx:]
	}

	return s, query, fragment
}
