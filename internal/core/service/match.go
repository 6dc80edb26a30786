package service

import (
	"strings"

	"golang.org/x/text/cases"
)

// matcher compares strings under Unicode case folding, so "ÉLEVAGE"
// matches "élevage".
type matcher struct {
	folded string
}

func newMatcher(query string) matcher {
	return matcher{folded: fold(query)}
}

func (m matcher) containedIn(s string) bool {
	return strings.Contains(fold(s), m.folded)
}

func (m matcher) containedInPtr(s *string) bool {
	if s == nil {
		return m.folded == ""
	}
	return m.containedIn(*s)
}

func (m matcher) equals(s string) bool {
	return fold(s) == m.folded
}

// cases.Caser keeps state, a new one is needed per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

func filter[T any](vs []T, keep func(T) bool) []T {
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
