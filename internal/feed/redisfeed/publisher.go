package redisfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/feed"
)

// Publisher writes market updates to a Redis stream.
type Publisher struct {
	opts   Options
	rdb    *redis.Client
	logger *zap.Logger
}

// NewPublisher creates a publisher.
func NewPublisher(opts Options) *Publisher {
	opts.defaults()
	return &Publisher{
		opts:   opts,
		rdb:    newClient(opts),
		logger: opts.Logger.Named("redisfeed-publisher"),
	}
}

// Publish appends updates to the stream.
func (p *Publisher) Publish(ctx context.Context, updates []domain.MarketUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	_, err := p.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, u := range updates {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: p.opts.Stream,
				MaxLen: p.opts.MaxLen,
				Approx: true,
				Values: encodeUpdate(u),
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

// Scope reads the tokens consumers currently want updates for.
func (p *Publisher) Scope(ctx context.Context) ([]domain.Token, error) {
	m, err := p.rdb.HGetAll(ctx, p.opts.scopeKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("read scope: %w", err)
	}

	tokens := make([]domain.Token, 0, len(m))
	for id, raw := range m {
		var v scopeValue
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			p.logger.Debug("skip scope entry", zap.String("id", id), zap.Error(err))
			continue
		}
		tokens = append(tokens, domain.Token{ID: id, Price: v.Price, PriceChange24h: v.Change})
	}
	return tokens, nil
}

// Run forwards every batch from src to the stream and rescopes src from
// the consumers' scope every refresh. Blocks until ctx is done.
func (p *Publisher) Run(ctx context.Context, src feed.Transport, refresh time.Duration) error {
	unsubscribe := src.Subscribe(func(updates []domain.MarketUpdate) {
		if err := p.Publish(ctx, updates); err != nil && ctx.Err() == nil {
			p.logger.Warn("publish failed", zap.Error(err))
		}
	})
	defer unsubscribe()

	if err := src.Connect(ctx); err != nil {
		return fmt.Errorf("connect source: %w", err)
	}
	defer src.Disconnect()

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		tokens, err := p.Scope(ctx)
		if err != nil && ctx.Err() == nil {
			p.logger.Warn("scope refresh failed", zap.Error(err))
		} else if err == nil {
			src.SetActiveEntities(tokens)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
