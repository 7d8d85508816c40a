package memory

import (
	"slices"
	"sync"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/storage"
)

// WorkingSet is an in-memory implementation of storage.WorkingSet.
type WorkingSet struct {
	mu    sync.RWMutex
	order []string                 // newest first
	data  map[string]*domain.Token // keyed by token id
}

// NewWorkingSet creates an empty working set.
func NewWorkingSet() *WorkingSet {
	return &WorkingSet{
		data: make(map[string]*domain.Token),
	}
}

// Replace installs tokens wholesale.
func (s *WorkingSet) Replace(tokens []domain.Token) error {
	order := make([]string, 0, len(tokens))
	data := make(map[string]*domain.Token, len(tokens))
	for i := range tokens {
		id := tokens[i].ID
		if id == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := data[id]; exists {
			return storage.ErrDuplicateKey
		}
		tokenCopy := tokens[i]
		data[id] = &tokenCopy
		order = append(order, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = order
	s.data = data
	return nil
}

// Prepend inserts t at the front.
func (s *WorkingSet) Prepend(t domain.Token) error {
	if t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	tokenCopy := t
	s.data[t.ID] = &tokenCopy
	s.order = slices.Insert(s.order, 0, t.ID)
	return nil
}

// Get returns a copy of the token with the given id.
func (s *WorkingSet) Get(id string) (domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return domain.Token{}, storage.ErrNotFound
	}
	return *t, nil
}

// Update runs fn on the stored token.
func (s *WorkingSet) Update(id string, fn func(*domain.Token)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	fn(t)
	t.ID = id
	return nil
}

// Map replaces every token with fn(token).
func (s *WorkingSet) Map(fn func(domain.Token) domain.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		next := fn(*s.data[id])
		next.ID = id
		*s.data[id] = next
	}
}

// All returns copies of all tokens, newest first.
func (s *WorkingSet) All() []domain.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Token, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, *s.data[id])
	}
	return result
}

// EvictCategory keeps the first keep tokens of category c.
func (s *WorkingSet) EvictCategory(c domain.Category, keep int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		seen    int
		evicted []string
	)
	s.order = slices.DeleteFunc(s.order, func(id string) bool {
		if s.data[id].Category != c {
			return false
		}
		seen++
		if seen <= keep {
			return false
		}
		evicted = append(evicted, id)
		delete(s.data, id)
		return true
	})
	return evicted
}

// Len returns the number of tokens held.
func (s *WorkingSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

var _ storage.WorkingSet = (*WorkingSet)(nil)
