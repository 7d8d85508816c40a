package redisfeed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/feed"
	"github.com/SurajNatekar28/token-trading-table/internal/observability"
)

const scopeWriteTimeout = 2 * time.Second

// Consumer implements feed.Transport by reading a Redis stream.
type Consumer struct {
	opts   Options
	rdb    *redis.Client
	hub    *feed.Hub
	active feed.ActiveSet
	logger *zap.Logger

	// scopeCh holds at most the latest unwritten scope.
	scopeCh   chan []domain.Token
	stopScope context.CancelFunc
	scopeWG   sync.WaitGroup

	mu     sync.Mutex
	lastID string
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// NewConsumer creates a consumer and starts its scope writer. Stream reads
// begin at Connect; Disconnect stops both.
func NewConsumer(opts Options) *Consumer {
	opts.defaults()

	ctx, stop := context.WithCancel(context.Background())
	c := &Consumer{
		opts:      opts,
		rdb:       newClient(opts),
		hub:       feed.NewHub(),
		logger:    opts.Logger.Named("redisfeed"),
		scopeCh:   make(chan []domain.Token, 1),
		stopScope: stop,
	}

	c.scopeWG.Add(1)
	go c.scopeLoop(ctx)
	return c
}

// Connect checks the connection, positions after the newest stream entry
// and starts reading.
func (c *Consumer) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return nil
	}

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	last, err := c.rdb.XRevRangeN(ctx, c.opts.Stream, "+", "-", 1).Result()
	if err != nil {
		return fmt.Errorf("read stream tail: %w", err)
	}
	c.lastID = "0-0"
	if len(last) > 0 {
		c.lastID = last[0].ID
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go c.readLoop(ctx, c.lastID)

	c.logger.Info("connected", zap.String("stream", c.opts.Stream), zap.String("from", c.lastID))
	return nil
}

// Disconnect stops reading and the scope writer, then closes the client.
func (c *Consumer) Disconnect() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		cancel := c.cancel
		c.cancel = nil
		c.mu.Unlock()

		if cancel != nil {
			cancel()
			c.wg.Wait()
		}
		c.stopScope()
		c.scopeWG.Wait()
		c.closeErr = c.rdb.Close()
	})
	return c.closeErr
}

// Subscribe registers cb for update batches.
func (c *Consumer) Subscribe(cb feed.Callback) func() {
	return c.hub.Subscribe(cb)
}

// SetActiveEntities filters delivery to tokens and queues the scope for
// scopeLoop. It never waits on Redis; a newer scope replaces an unwritten
// one.
func (c *Consumer) SetActiveEntities(tokens []domain.Token) {
	c.active.Set(tokens)

	scope := slices.Clone(tokens)
	for {
		select {
		case c.scopeCh <- scope:
			return
		default:
		}
		select {
		case <-c.scopeCh:
		default:
		}
	}
}

func (c *Consumer) scopeLoop(ctx context.Context) {
	defer c.scopeWG.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case tokens := <-c.scopeCh:
			wctx, cancel := context.WithTimeout(ctx, scopeWriteTimeout)
			if err := c.writeScope(wctx, tokens); err != nil && ctx.Err() == nil {
				c.logger.Debug("write scope failed", zap.Error(err), zap.Int("tokens", len(tokens)))
			}
			cancel()
		}
	}
}

func (c *Consumer) writeScope(ctx context.Context, tokens []domain.Token) error {
	key := c.opts.scopeKey()

	fields := make(map[string]interface{}, len(tokens))
	for _, t := range tokens {
		v, err := encodeScope(t)
		if err != nil {
			return err
		}
		fields[t.ID] = v
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields)
		}
		return nil
	})
	return err
}

func (c *Consumer) readLoop(ctx context.Context, lastID string) {
	defer c.wg.Done()

	backoff := 100 * time.Millisecond

	for {
		if ctx.Err() != nil {
			return
		}

		streams, err := c.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{c.opts.Stream, lastID},
			Count:   c.opts.Count,
			Block:   c.opts.Block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("xread failed", zap.Error(err), zap.Duration("retry_in", backoff))
			observability.RecordFeedReconnect("redis")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, 5*time.Second)
			continue
		}
		backoff = 100 * time.Millisecond

		for _, s := range streams {
			updates := make([]domain.MarketUpdate, 0, len(s.Messages))
			for _, m := range s.Messages {
				lastID = m.ID
				u, err := decodeUpdate(m)
				if err != nil {
					c.logger.Debug("skip entry", zap.Error(err))
					continue
				}
				updates = append(updates, u)
			}
			c.hub.Publish(c.active.Keep(updates))
		}

		c.mu.Lock()
		c.lastID = lastID
		c.mu.Unlock()
	}
}

// LastID returns the id of the last stream entry read.
func (c *Consumer) LastID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastID
}

var _ feed.Transport = (*Consumer)(nil)
