// Package sim is an in-process feed that drifts the prices of the active
// tokens at a fixed interval.
package sim

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/feed"
)

// Defaults.
const (
	DefaultInterval = 500 * time.Millisecond
	DefaultMaxBatch = 8

	maxPriceDrift  = 0.01 // ±1% per update
	maxChangeDrift = 1.0  // ±1 point per update
)

// Rand is the random source used to pick and drift tokens.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Options configures the simulated transport.
type Options struct {
	Interval time.Duration
	MaxBatch int
	Rand     Rand
	Logger   *zap.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxBatch <= 0 {
		o.MaxBatch = DefaultMaxBatch
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

type quote struct {
	price  float64
	change float64
}

// Transport implements feed.Transport with generated updates.
type Transport struct {
	opts Options
	hub  *feed.Hub

	mu     sync.Mutex
	quotes map[string]quote
	ids    []string // active ids in scope order
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a simulated transport.
func New(opts Options) *Transport {
	opts.defaults()
	return &Transport{
		opts:   opts,
		hub:    feed.NewHub(),
		quotes: make(map[string]quote),
	}
}

// Connect starts the emit loop. It stops when ctx is done or on Disconnect.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.loop(ctx)

	t.opts.Logger.Debug("simulated feed connected", zap.Duration("interval", t.opts.Interval))
	return nil
}

// Disconnect stops the emit loop.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
	return nil
}

// Subscribe registers cb for update batches.
func (t *Transport) Subscribe(cb feed.Callback) func() {
	return t.hub.Subscribe(cb)
}

// SetActiveEntities scopes emission to tokens. Ids already in scope keep
// their drifted quote; new ids start from the token's current values.
func (t *Transport) SetActiveEntities(tokens []domain.Token) {
	t.mu.Lock()
	defer t.mu.Unlock()

	quotes := make(map[string]quote, len(tokens))
	ids := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, dup := quotes[tok.ID]; dup {
			continue
		}
		q, ok := t.quotes[tok.ID]
		if !ok {
			q = quote{price: tok.Price, change: tok.PriceChange24h}
		}
		quotes[tok.ID] = q
		ids = append(ids, tok.ID)
	}
	t.quotes = quotes
	t.ids = ids
}

func (t *Transport) loop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.hub.Publish(t.next())
		}
	}
}

// next picks up to MaxBatch distinct active ids and drifts their quotes.
func (t *Transport) next() []domain.MarketUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.ids) == 0 {
		return nil
	}

	n := 1 + t.opts.Rand.IntN(min(t.opts.MaxBatch, len(t.ids)))
	pool := append([]string(nil), t.ids...)

	updates := make([]domain.MarketUpdate, 0, n)
	for i := 0; i < n; i++ {
		j := i + t.opts.Rand.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		id := pool[i]

		q := t.quotes[id]
		q.price *= 1 + (2*t.opts.Rand.Float64()-1)*maxPriceDrift
		if q.price < domain.PriceFloor {
			q.price = domain.PriceFloor
		}
		q.change += (2*t.opts.Rand.Float64() - 1) * maxChangeDrift
		t.quotes[id] = q

		updates = append(updates, domain.MarketUpdate{
			TokenID:        id,
			Price:          q.price,
			PriceChange24h: q.change,
		})
	}
	return updates
}

var _ feed.Transport = (*Transport)(nil)
