// Package filter evaluates declarative filter criteria against tokens.
package filter

import (
	"slices"
	"strings"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
)

// Filter returns the tokens that satisfy every predicate in c, in input
// order.
func Filter(tokens []domain.Token, c domain.FilterCriteria) []domain.Token {
	m := Compile(c)
	out := make([]domain.Token, 0, len(tokens))
	for i := range tokens {
		if m.Match(&tokens[i]) {
			out = append(out, tokens[i])
		}
	}
	return out
}

// Matches reports whether a single token satisfies c.
func Matches(t *domain.Token, c domain.FilterCriteria) bool {
	return Compile(c).Match(t)
}

// ParseKeywords splits a comma-separated keyword list into lowercase,
// trimmed, non-empty keywords.
func ParseKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(strings.ToLower(s), ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Matcher is a compiled form of FilterCriteria. Keyword parsing happens once
// per recomputation rather than once per token.
type Matcher struct {
	include   []string
	exclude   []string
	protocols []string
	quotes    []string

	minLiquidity, maxLiquidity *float64
	minVolume, maxVolume       *float64
}

// Compile prepares c for repeated matching.
func Compile(c domain.FilterCriteria) *Matcher {
	return &Matcher{
		include:      ParseKeywords(c.Keywords),
		exclude:      ParseKeywords(c.ExcludeKeywords),
		protocols:    c.DeselectedProtocols,
		quotes:       c.DeselectedQuoteTokens,
		minLiquidity: c.MinLiquidity,
		maxLiquidity: c.MaxLiquidity,
		minVolume:    c.MinVolume,
		maxVolume:    c.MaxVolume,
	}
}

// Match reports whether t passes all predicates.
func (m *Matcher) Match(t *domain.Token) bool {
	if len(m.include) > 0 || len(m.exclude) > 0 {
		name := strings.ToLower(t.Name)
		symbol := strings.ToLower(t.Symbol)

		if len(m.include) > 0 && !containsAny(name, symbol, m.include) {
			return false
		}
		if len(m.exclude) > 0 && containsAny(name, symbol, m.exclude) {
			return false
		}
	}

	if slices.Contains(m.protocols, t.Protocol) {
		return false
	}
	if slices.Contains(m.quotes, t.QuoteToken) {
		return false
	}

	return within(t.Liquidity, m.minLiquidity, m.maxLiquidity) &&
		within(t.Volume24h, m.minVolume, m.maxVolume)
}

func containsAny(name, symbol string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(name, k) || strings.Contains(symbol, k) {
			return true
		}
	}
	return false
}

func within(v float64, lo, hi *float64) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}
