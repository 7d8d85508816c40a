package redisfeed

import (
	"context"
	"net"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/feed/sim"
)

func testOptions(t *testing.T) Options {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return Options{
		Addr:   mr.Addr(),
		Stream: "test:updates",
		Block:  50 * time.Millisecond,
	}
}

type collector struct {
	mu      sync.Mutex
	updates []domain.MarketUpdate
}

func (c *collector) add(u []domain.MarketUpdate) {
	c.mu.Lock()
	c.updates = append(c.updates, u...)
	c.mu.Unlock()
}

func (c *collector) snapshot() []domain.MarketUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.MarketUpdate(nil), c.updates...)
}

func TestConsumer_DeliversActiveUpdates(t *testing.T) {
	opts := testOptions(t)
	ctx := context.Background()

	consumer := NewConsumer(opts)
	var got collector
	consumer.Subscribe(got.add)
	require.NoError(t, consumer.Connect(ctx))
	defer consumer.Disconnect()

	consumer.SetActiveEntities([]domain.Token{{ID: "sol-1", Price: 1}})

	pub := NewPublisher(opts)
	defer pub.Close()

	require.NoError(t, pub.Publish(ctx, []domain.MarketUpdate{
		{TokenID: "sol-1", Price: 1.25, PriceChange24h: -2.5},
		{TokenID: "bnb-2", Price: 9},
	}))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)

	u := got.snapshot()[0]
	assert.Equal(t, domain.MarketUpdate{TokenID: "sol-1", Price: 1.25, PriceChange24h: -2.5}, u)
	assert.NotEqual(t, "0-0", consumer.LastID())
}

func TestConsumer_StartsAfterExistingEntries(t *testing.T) {
	opts := testOptions(t)
	ctx := context.Background()

	pub := NewPublisher(opts)
	defer pub.Close()
	require.NoError(t, pub.Publish(ctx, []domain.MarketUpdate{{TokenID: "sol-1", Price: 1}}))

	consumer := NewConsumer(opts)
	var got collector
	consumer.Subscribe(got.add)
	consumer.SetActiveEntities([]domain.Token{{ID: "sol-1"}})
	require.NoError(t, consumer.Connect(ctx))
	defer consumer.Disconnect()

	require.NoError(t, pub.Publish(ctx, []domain.MarketUpdate{{TokenID: "sol-1", Price: 2}}))

	require.Eventually(t, func() bool { return len(got.snapshot()) > 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	updates := got.snapshot()
	require.Len(t, updates, 1)
	assert.Equal(t, 2.0, updates[0].Price)
}

func TestConsumer_SkipsMalformedEntries(t *testing.T) {
	opts := testOptions(t)
	ctx := context.Background()

	consumer := NewConsumer(opts)
	var got collector
	consumer.Subscribe(got.add)
	consumer.SetActiveEntities([]domain.Token{{ID: "sol-1"}})
	require.NoError(t, consumer.Connect(ctx))
	defer consumer.Disconnect()

	rdb := redis.NewClient(&redis.Options{Addr: opts.Addr})
	defer rdb.Close()
	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: opts.Stream,
		Values: map[string]interface{}{"id": "sol-1", "price": "abc", "change": "0"},
	}).Err())
	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: opts.Stream,
		Values: map[string]interface{}{"id": "sol-1", "price": "3", "change": "1"},
	}).Err())

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3.0, got.snapshot()[0].Price)
}

func TestScopeRoundTrip(t *testing.T) {
	opts := testOptions(t)
	ctx := context.Background()

	consumer := NewConsumer(opts)
	defer consumer.Disconnect()
	pub := NewPublisher(opts)
	defer pub.Close()

	consumer.SetActiveEntities([]domain.Token{
		{ID: "sol-1", Price: 0.5, PriceChange24h: 10},
		{ID: "sol-2", Price: 1.5, PriceChange24h: -1},
	})

	var tokens []domain.Token
	require.Eventually(t, func() bool {
		var err error
		tokens, err = pub.Scope(ctx)
		return err == nil && len(tokens) == 2
	}, 2*time.Second, 10*time.Millisecond)
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID < tokens[j].ID })

	assert.Equal(t, domain.Token{ID: "sol-1", Price: 0.5, PriceChange24h: 10}, tokens[0])
	assert.Equal(t, 1.5, tokens[1].Price)

	// A new scope replaces the old one.
	consumer.SetActiveEntities([]domain.Token{{ID: "bnb-1", Price: 2}})
	require.Eventually(t, func() bool {
		tokens, err := pub.Scope(ctx)
		return err == nil && len(tokens) == 1 && tokens[0].ID == "bnb-1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsumer_SetActiveEntitiesWhileRedisStalls(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accepted <- conn
		}
	}()

	consumer := NewConsumer(Options{Addr: ln.Addr().String()})
	defer consumer.Disconnect()

	consumer.SetActiveEntities([]domain.Token{{ID: "sol-1", Price: 1}})

	// The writer is now blocked on a server that never replies.
	var held net.Conn
	select {
	case held = <-accepted:
		defer held.Close()
	case <-time.After(time.Second):
		t.Fatal("scope writer never dialed")
	}

	start := time.Now()
	for i := 0; i < 10; i++ {
		consumer.SetActiveEntities([]domain.Token{{ID: "sol-2", Price: float64(i + 1)}})
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.True(t, consumer.active.Contains("sol-2"))
	assert.False(t, consumer.active.Contains("sol-1"))
}

func TestPublisher_RunForwardsScopedSimulation(t *testing.T) {
	opts := testOptions(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewConsumer(opts)
	var got collector
	consumer.Subscribe(got.add)
	require.NoError(t, consumer.Connect(ctx))
	defer consumer.Disconnect()
	consumer.SetActiveEntities([]domain.Token{{ID: "sol-7", Price: 3}})

	pub := NewPublisher(opts)
	defer pub.Close()

	done := make(chan error, 1)
	go func() {
		done <- pub.Run(ctx, sim.New(sim.Options{Interval: 5 * time.Millisecond}), 10*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return len(got.snapshot()) >= 3 }, 3*time.Second, 10*time.Millisecond)
	for _, u := range got.snapshot() {
		assert.Equal(t, "sol-7", u.TokenID)
		assert.InDelta(t, 3.0, u.Price, 1.0)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestConsumer_ConnectFails(t *testing.T) {
	consumer := NewConsumer(Options{Addr: "127.0.0.1:1"})
	defer consumer.Disconnect()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.Error(t, consumer.Connect(ctx))
}
