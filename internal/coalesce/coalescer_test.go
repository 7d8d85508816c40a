package coalesce

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/storage/memory"
)

func TestCoalescer_LastWriteWins(t *testing.T) {
	c := New()

	n := c.Push(
		domain.MarketUpdate{TokenID: "sol-1", Price: 1},
		domain.MarketUpdate{TokenID: "sol-2", Price: 5},
	)
	assert.Equal(t, 0, n)

	n = c.Push(
		domain.MarketUpdate{TokenID: "sol-1", Price: 2},
		domain.MarketUpdate{TokenID: "sol-1", Price: 3, PriceChange24h: -4},
	)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c.Pending())

	flushed := c.Flush()
	require.Len(t, flushed, 2)
	assert.Equal(t, domain.MarketUpdate{TokenID: "sol-1", Price: 3, PriceChange24h: -4}, flushed["sol-1"])
	assert.Equal(t, 5.0, flushed["sol-2"].Price)

	// Buffer is empty after flush.
	assert.Equal(t, 0, c.Pending())
	empty := c.Flush()
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestCoalescer_FlushedMapDetached(t *testing.T) {
	c := New()
	c.Push(domain.MarketUpdate{TokenID: "sol-1", Price: 1})
	flushed := c.Flush()

	c.Push(domain.MarketUpdate{TokenID: "sol-1", Price: 9})
	assert.Equal(t, 1.0, flushed["sol-1"].Price)
}

func TestCoalescer_IgnoresEmptyID(t *testing.T) {
	c := New()
	c.Push(domain.MarketUpdate{Price: 1})
	assert.Equal(t, 0, c.Pending())
}

func TestCoalescer_Reset(t *testing.T) {
	c := New()
	c.Push(domain.MarketUpdate{TokenID: "sol-1", Price: 1})
	c.Reset()
	assert.Equal(t, 0, c.Pending())
	assert.Empty(t, c.Flush())
}

func TestCoalescer_ConcurrentProducers(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Push(domain.MarketUpdate{TokenID: fmt.Sprintf("sol-%d", i%20), Price: float64(p)})
			}
		}(p)
	}
	wg.Wait()

	flushed := c.Flush()
	assert.Len(t, flushed, 20)
}

func TestApply_MergeScoping(t *testing.T) {
	ws := memory.NewWorkingSet()
	require.NoError(t, ws.Replace([]domain.Token{
		{ID: "sol-1", Symbol: "AAA", Price: 1, PriceChange24h: 1, Volume24h: 500, Holders: 10, Category: domain.CategoryNew},
		{ID: "sol-2", Symbol: "BBB", Price: 2, PriceChange24h: 2, Volume24h: 600, Holders: 20, Category: domain.CategoryMigrated},
	}))

	flushed := map[string]domain.MarketUpdate{
		"sol-1":  {TokenID: "sol-1", Price: 1.5, PriceChange24h: -3},
		"bnb-7":  {TokenID: "bnb-7", Price: 99},
		"sol-99": {TokenID: "sol-99", Price: 42},
	}

	applied, discarded, err := Apply(ws, flushed)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 2, discarded)

	got, err := ws.Get("sol-1")
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.Price)
	assert.Equal(t, -3.0, got.PriceChange24h)
	// untouched fields
	assert.Equal(t, "AAA", got.Symbol)
	assert.Equal(t, 500.0, got.Volume24h)
	assert.Equal(t, 10, got.Holders)
	assert.Equal(t, domain.CategoryNew, got.Category)

	other, _ := ws.Get("sol-2")
	assert.Equal(t, 2.0, other.Price)
	assert.Equal(t, 2, ws.Len(), "unknown ids must not be inserted")
}
