package sim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
)

func scope(n int) []domain.Token {
	tokens := make([]domain.Token, n)
	for i := range tokens {
		tokens[i] = domain.Token{ID: fmt.Sprintf("sol-%d", i), Price: 1, PriceChange24h: 10}
	}
	return tokens
}

func TestNext_EmptyScope(t *testing.T) {
	tr := New(Options{Rand: rand.New(rand.NewPCG(1, 2))})
	assert.Nil(t, tr.next())
}

func TestNext_BatchBoundsAndDrift(t *testing.T) {
	tr := New(Options{Rand: rand.New(rand.NewPCG(1, 2))})
	tr.SetActiveEntities(scope(20))

	for round := 0; round < 200; round++ {
		before := make(map[string]quote, len(tr.quotes))
		for id, q := range tr.quotes {
			before[id] = q
		}

		batch := tr.next()
		require.NotEmpty(t, batch)
		require.LessOrEqual(t, len(batch), DefaultMaxBatch)

		seen := make(map[string]bool)
		for _, u := range batch {
			require.False(t, seen[u.TokenID], "duplicate id in batch")
			seen[u.TokenID] = true

			prev := before[u.TokenID]
			ratio := u.Price / prev.price
			assert.InDelta(t, 1.0, ratio, maxPriceDrift+1e-9)
			assert.InDelta(t, prev.change, u.PriceChange24h, maxChangeDrift+1e-9)
			assert.GreaterOrEqual(t, u.Price, domain.PriceFloor)
		}
	}
}

func TestNext_OnlyActiveIDs(t *testing.T) {
	tr := New(Options{Rand: rand.New(rand.NewPCG(3, 4))})
	tr.SetActiveEntities(scope(5))
	tr.SetActiveEntities([]domain.Token{{ID: "bnb-1", Price: 2}})

	for i := 0; i < 20; i++ {
		for _, u := range tr.next() {
			assert.Equal(t, "bnb-1", u.TokenID)
		}
	}
}

func TestSetActiveEntities_KeepsDriftedQuote(t *testing.T) {
	tr := New(Options{Rand: rand.New(rand.NewPCG(5, 6)), MaxBatch: 1})
	tr.SetActiveEntities([]domain.Token{{ID: "sol-1", Price: 1}})

	u := tr.next()
	require.Len(t, u, 1)

	tr.SetActiveEntities([]domain.Token{{ID: "sol-1", Price: 1}, {ID: "sol-2", Price: 3}})
	assert.Equal(t, u[0].Price, tr.quotes["sol-1"].price)
	assert.Equal(t, 3.0, tr.quotes["sol-2"].price)
}

func TestConnect_Delivers(t *testing.T) {
	tr := New(Options{Interval: 5 * time.Millisecond})
	tr.SetActiveEntities(scope(3))

	got := make(chan []domain.MarketUpdate, 16)
	unsub := tr.Subscribe(func(u []domain.MarketUpdate) {
		select {
		case got <- u:
		default:
		}
	})
	defer unsub()

	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Connect(context.Background()), "second connect is a no-op")

	select {
	case batch := <-got:
		assert.NotEmpty(t, batch)
	case <-time.After(time.Second):
		t.Fatal("no updates delivered")
	}

	require.NoError(t, tr.Disconnect())
	require.NoError(t, tr.Disconnect())
}
