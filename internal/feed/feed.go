// Package feed defines the market update transport contract and the
// subscriber registry shared by its implementations.
package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
)

// ErrNotConnected is returned when an operation needs an open transport.
var ErrNotConnected = errors.New("feed not connected")

// Callback receives a batch of updates. Implementations call it from their
// own goroutine; it must not block for long.
type Callback func(updates []domain.MarketUpdate)

// Transport delivers partial market updates for the active tokens.
type Transport interface {
	// Connect starts delivery. Calling Connect on a connected transport is a no-op.
	Connect(ctx context.Context) error

	// Disconnect stops delivery and waits for background goroutines.
	Disconnect() error

	// Subscribe registers cb and returns a function that removes it.
	Subscribe(cb Callback) (unsubscribe func())

	// SetActiveEntities narrows delivery to the given tokens.
	SetActiveEntities(tokens []domain.Token)
}

// Hub is a registry of subscriber callbacks keyed by subscription id.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Callback
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[uuid.UUID]Callback),
	}
}

// Subscribe registers cb. The returned function is idempotent.
func (h *Hub) Subscribe(cb Callback) (unsubscribe func()) {
	id := uuid.New()

	h.mu.Lock()
	h.subs[id] = cb
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers updates to every subscriber. Callbacks run outside the lock.
func (h *Hub) Publish(updates []domain.MarketUpdate) {
	if len(updates) == 0 {
		return
	}

	h.mu.RLock()
	cbs := make([]Callback, 0, len(h.subs))
	for _, cb := range h.subs {
		cbs = append(cbs, cb)
	}
	h.mu.RUnlock()

	for _, cb := range cbs {
		cb(updates)
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ActiveSet is a concurrency-safe set of token ids.
type ActiveSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// Set replaces the set with the ids of tokens.
func (a *ActiveSet) Set(tokens []domain.Token) {
	ids := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		ids[t.ID] = struct{}{}
	}

	a.mu.Lock()
	a.ids = ids
	a.mu.Unlock()
}

// Contains reports whether id is active.
func (a *ActiveSet) Contains(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.ids[id]
	return ok
}

// Len returns the number of active ids.
func (a *ActiveSet) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.ids)
}

// Keep returns the updates whose ids are active.
func (a *ActiveSet) Keep(updates []domain.MarketUpdate) []domain.MarketUpdate {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := updates[:0:0]
	for _, u := range updates {
		if _, ok := a.ids[u.TokenID]; ok {
			out = append(out, u)
		}
	}
	return out
}
