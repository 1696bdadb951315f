package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeToken trims and case-folds a single skill or preference token.
func NormalizeToken(token string) string {
	return cases.Fold().String(strings.TrimSpace(token))
}

// NormalizeTokens returns the trimmed, case-folded, deduplicated tokens sorted
// in ascending order. Empty tokens are dropped. A nil or empty input yields nil.
func NormalizeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	set := NewTokenSet(tokens)
	if set.Len() == 0 {
		return nil
	}

	return set.Tokens()
}

// TokenSet is a set of normalized tokens.
type TokenSet map[string]struct{}

// NewTokenSet normalizes the provided tokens into a set.
func NewTokenSet(tokens []string) TokenSet {
	set := make(TokenSet, len(tokens))
	for _, token := range tokens {
		normalized := NormalizeToken(token)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

// Has reports whether the token, normalized, is part of the set.
func (s TokenSet) Has(token string) bool {
	_, ok := s[NormalizeToken(token)]
	return ok
}

func (s TokenSet) Len() int {
	return len(s)
}

// Tokens returns the set members sorted.
func (s TokenSet) Tokens() []string {
	out := make([]string, 0, len(s))
	for token := range s {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// Split partitions tokens by membership in s. Both lists keep the input order
// and the first spelling of each token, trimmed. Empty and repeated tokens are
// dropped.
func (s TokenSet) Split(tokens []string) (present, absent []string) {
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		key := NormalizeToken(token)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if _, ok := s[key]; ok {
			present = append(present, strings.TrimSpace(token))
			continue
		}
		absent = append(absent, strings.TrimSpace(token))
	}
	return present, absent
}
