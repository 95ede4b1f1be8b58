package search

import "strings"

// Matches reports whether at least one token is a substring of value.
// Case-sensitive, whole-field substring test; an absent value never matches.
// Empty tokens are ignored.
func Matches(tokens []string, value string, present bool) bool {
	if !present {
		return false
	}
	for _, tok := range tokens {
		if tok != "" && strings.Contains(value, tok) {
			return true
		}
	}
	return false
}
