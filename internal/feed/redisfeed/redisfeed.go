// Package redisfeed carries market updates over a Redis stream.
//
// Publishers XADD one entry per update with fields id, price and change.
// Consumers publish their active tokens to the hash <stream>:scope so a
// publisher knows which ids to emit.
package redisfeed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
)

// Defaults.
const (
	DefaultStream = "pulse:updates"
	DefaultBlock  = time.Second
	DefaultCount  = 200
	DefaultMaxLen = 10000
)

// Options configures a Redis connection and stream.
type Options struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Block    time.Duration // XREAD block time
	Count    int64         // XREAD batch size
	MaxLen   int64         // approximate stream cap for XADD
	Logger   *zap.Logger
}

func (o *Options) defaults() {
	if o.Stream == "" {
		o.Stream = DefaultStream
	}
	if o.Block <= 0 {
		o.Block = DefaultBlock
	}
	if o.Count <= 0 {
		o.Count = DefaultCount
	}
	if o.MaxLen <= 0 {
		o.MaxLen = DefaultMaxLen
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

func (o *Options) scopeKey() string {
	return o.Stream + ":scope"
}

func newClient(o Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		DB:       o.DB,
		Password: o.Password,
	})
}

type scopeValue struct {
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
}

func encodeUpdate(u domain.MarketUpdate) map[string]interface{} {
	return map[string]interface{}{
		"id":     u.TokenID,
		"price":  strconv.FormatFloat(u.Price, 'g', -1, 64),
		"change": strconv.FormatFloat(u.PriceChange24h, 'g', -1, 64),
	}
}

func decodeUpdate(m redis.XMessage) (domain.MarketUpdate, error) {
	id, _ := m.Values["id"].(string)
	if id == "" {
		return domain.MarketUpdate{}, fmt.Errorf("entry %s: missing id", m.ID)
	}

	price, err := parseField(m, "price")
	if err != nil {
		return domain.MarketUpdate{}, err
	}
	change, err := parseField(m, "change")
	if err != nil {
		return domain.MarketUpdate{}, err
	}

	return domain.MarketUpdate{TokenID: id, Price: price, PriceChange24h: change}, nil
}

func parseField(m redis.XMessage, field string) (float64, error) {
	s, ok := m.Values[field].(string)
	if !ok {
		return 0, fmt.Errorf("entry %s: missing %s", m.ID, field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("entry %s: parse %s: %w", m.ID, field, err)
	}
	return v, nil
}

func encodeScope(t domain.Token) (string, error) {
	b, err := json.Marshal(scopeValue{Price: t.Price, Change: t.PriceChange24h})
	return string(b), err
}
