// Package coalesce buffers partial market updates between frames so that
// each token receives at most one update per flush.
package coalesce

import (
	"errors"
	"sync"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/storage"
)

// Coalescer collects updates keyed by token id. The last update pushed for
// an id before a flush wins. Safe for concurrent use.
type Coalescer struct {
	mu      sync.Mutex
	pending map[string]domain.MarketUpdate
}

// New creates an empty coalescer.
func New() *Coalescer {
	return &Coalescer{
		pending: make(map[string]domain.MarketUpdate),
	}
}

// Push buffers updates. It returns how many of them replaced an update
// already pending for the same id.
func (c *Coalescer) Push(updates ...domain.MarketUpdate) (coalesced int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, u := range updates {
		if u.TokenID == "" {
			continue
		}
		if _, exists := c.pending[u.TokenID]; exists {
			coalesced++
		}
		c.pending[u.TokenID] = u
	}
	return coalesced
}

// Flush takes the buffered updates and leaves the buffer empty.
// Returns an empty map when nothing is pending.
func (c *Coalescer) Flush() map[string]domain.MarketUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return map[string]domain.MarketUpdate{}
	}

	out := c.pending
	c.pending = make(map[string]domain.MarketUpdate, len(out))
	return out
}

// Reset drops everything pending.
func (c *Coalescer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.pending)
}

// Pending returns the number of ids with a buffered update.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Apply merges flushed updates into ws. Only price and 24h change are
// overwritten; updates for ids not in ws are discarded.
func Apply(ws storage.WorkingSet, flushed map[string]domain.MarketUpdate) (applied, discarded int, err error) {
	for id, u := range flushed {
		err := ws.Update(id, func(t *domain.Token) {
			t.Price = u.Price
			t.PriceChange24h = u.PriceChange24h
		})
		switch {
		case err == nil:
			applied++
		case errors.Is(err, storage.ErrNotFound):
			discarded++
		default:
			return applied, discarded, err
		}
	}
	return applied, discarded, nil
}
