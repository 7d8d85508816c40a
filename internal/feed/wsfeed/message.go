// Package wsfeed carries market updates over WebSocket.
//
// The client sends a scope message whenever its active tokens change:
//
//	{"type":"scope","tokens":[{"id":"sol-1","price":0.004,"priceChange24h":12}]}
//
// and receives update batches for tokens in scope:
//
//	{"type":"updates","updates":[{"tokenId":"sol-1","price":0.0041,"priceChange24h":12.3}]}
package wsfeed

import "github.com/SurajNatekar28/token-trading-table/internal/domain"

// Message types.
const (
	TypeScope   = "scope"
	TypeUpdates = "updates"
)

// Message is the envelope exchanged in both directions.
type Message struct {
	Type    string                `json:"type"`
	Tokens  []ScopeEntry          `json:"tokens,omitempty"`
	Updates []domain.MarketUpdate `json:"updates,omitempty"`
}

// ScopeEntry identifies an active token and its current quote.
type ScopeEntry struct {
	ID             string  `json:"id"`
	Price          float64 `json:"price"`
	PriceChange24h float64 `json:"priceChange24h"`
}

func scopeOf(tokens []domain.Token) []ScopeEntry {
	entries := make([]ScopeEntry, len(tokens))
	for i, t := range tokens {
		entries[i] = ScopeEntry{ID: t.ID, Price: t.Price, PriceChange24h: t.PriceChange24h}
	}
	return entries
}

func tokensOf(entries []ScopeEntry) []domain.Token {
	tokens := make([]domain.Token, len(entries))
	for i, e := range entries {
		tokens[i] = domain.Token{ID: e.ID, Price: e.Price, PriceChange24h: e.PriceChange24h}
	}
	return tokens
}
