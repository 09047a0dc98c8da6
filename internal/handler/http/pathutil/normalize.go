package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern maps a dynamic route to its label template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/profiles/\d+$`), Template: "/profiles/:id"},
	{Pattern: regexp.MustCompile(`^/profiles/\d+/bind$`), Template: "/profiles/:id/bind"},
}

// NormalizePath replaces ids in known routes so that metric labels stay
// bounded: /profiles/42/bind becomes /profiles/:id/bind. Query strings and a
// trailing slash are dropped; unknown paths are returned unchanged.
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
