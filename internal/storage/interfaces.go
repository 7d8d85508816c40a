package storage

import "github.com/SurajNatekar28/token-trading-table/internal/domain"

// WorkingSet holds the ordered tokens of the active chain.
// Position 0 is the most recently added token.
type WorkingSet interface {
	// Replace installs tokens wholesale, dropping everything held before.
	// Returns ErrDuplicateKey if tokens repeat an id; the set is left
	// unchanged in that case.
	Replace(tokens []domain.Token) error

	// Prepend inserts t at the front. Returns ErrDuplicateKey if t.ID exists.
	Prepend(t domain.Token) error

	// Get returns a copy of the token. Returns ErrNotFound if not exists.
	Get(id string) (domain.Token, error)

	// Update runs fn on the stored token. Returns ErrNotFound if not exists.
	// fn must not change the id.
	Update(id string, fn func(*domain.Token)) error

	// Map replaces every token with fn(token), keeping order.
	Map(fn func(domain.Token) domain.Token)

	// All returns copies of all tokens in order.
	All() []domain.Token

	// EvictCategory keeps the first keep tokens of category c and removes
	// the rest. Returns the removed ids.
	EvictCategory(c domain.Category, keep int) []string

	// Len returns the number of tokens held.
	Len() int
}
