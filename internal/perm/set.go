package perm

import "sort"

// Set is a collection of permission tokens computed for one user in one
// evaluation context. Sets are derived values: recomputed per request,
// never persisted.
type Set map[string]struct{}

// NewSet builds a set from the given tokens, collapsing duplicates.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether the set contains the token. Comparison is exact string
// equality; there is no hierarchy or wildcard matching.
func (s Set) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Union returns a fresh set containing the tokens of both operands. Neither
// operand is mutated; catalog sets are treated as immutable.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for t := range s {
		out[t] = struct{}{}
	}
	for t := range other {
		out[t] = struct{}{}
	}
	return out
}

// Tokens returns the members in sorted order, for logging and API responses.
func (s Set) Tokens() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
