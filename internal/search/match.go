package search

import (
	"strings"
	"unicode"
)

// ExcerptRadius is the number of runes kept on each side of a match.
const ExcerptRadius = 30

// MatchRange is a half-open rune range [Start, End) of one occurrence.
type MatchRange struct {
	Start int
	End   int
}

// fold lowercases s rune by rune so indices line up with []rune(s).
func fold(s string) []rune {
	r := []rune(s)
	for i, c := range r {
		r[i] = unicode.ToLower(c)
	}
	return r
}

// matcher finds case-insensitive occurrences of a trimmed query.
type matcher struct {
	q []rune
}

func newMatcher(query string) matcher {
	return matcher{q: fold(strings.TrimSpace(query))}
}

func (m matcher) empty() bool { return len(m.q) == 0 }

// indexFrom returns the rune index of the first occurrence at or after from in
// the folded text, or -1.
func (m matcher) indexFrom(text []rune, from int) int {
	n := len(m.q)
	for i := from; i+n <= len(text); i++ {
		j := 0
		for j < n && text[i+j] == m.q[j] {
			j++
		}
		if j == n {
			return i
		}
	}
	return -1
}

// contains reports whether text holds the query, ignoring case.
func (m matcher) contains(text string) bool {
	return !m.empty() && m.indexFrom(fold(text), 0) >= 0
}

// ranges returns every non-overlapping occurrence of the query in text.
func (m matcher) ranges(text string) []MatchRange {
	if m.empty() {
		return nil
	}
	folded := fold(text)
	var out []MatchRange
	for start := 0; ; {
		i := m.indexFrom(folded, start)
		if i < 0 {
			return out
		}
		out = append(out, MatchRange{Start: i, End: i + len(m.q)})
		start = i + len(m.q)
	}
}

// excerpt returns the window of text around the first occurrence of the
// query, with "..." marking each truncated end. ok is false without a match.
func (m matcher) excerpt(text string) (string, bool) {
	if m.empty() {
		return "", false
	}
	i := m.indexFrom(fold(text), 0)
	if i < 0 {
		return "", false
	}

	runes := []rune(text)
	start := max(0, i-ExcerptRadius)
	end := min(len(runes), i+len(m.q)+ExcerptRadius)

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(runes[start:end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String(), true
}

// Excerpt returns the excerpt of text around the first case-insensitive
// occurrence of query, or "" when query does not occur.
func Excerpt(text, query string) string {
	s, _ := newMatcher(query).excerpt(text)
	return s
}
