package guard

import "strings"

// Matcher decides which paths are handed to the guard at all. Patterns
// ending in "/*" match the prefix itself and anything below it; other
// patterns match exactly. Comparison ignores case.
type Matcher struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewMatcher compiles a static match list.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		p = strings.ToLower(p)
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			m.prefixes = append(m.prefixes, prefix)
			continue
		}
		m.exact[p] = struct{}{}
	}
	return m
}

// Match reports whether path is covered by the match list. path must
// already be in canonical form, see CanonicalPath.
func (m *Matcher) Match(path string) bool {
	path = strings.ToLower(path)
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
