// Package generator produces synthetic tokens for the pulse feed: seeded
// batches at startup or chain switch, and single new arrivals.
package generator

import (
	"fmt"
	"time"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/idhash"
)

// Rand is the random source the generator consumes. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
	Uint64() uint64
}

// DefaultMaxArrivalDelay bounds the random delay between arrivals.
const DefaultMaxArrivalDelay = 15 * time.Second

// Counts is the number of tokens per category in a seeded batch.
type Counts struct {
	New          int
	FinalStretch int
	Migrated     int
}

// DefaultCounts returns the batch layout used for a fresh working set.
func DefaultCounts() Counts {
	return Counts{New: 20, FinalStretch: 18, Migrated: 18}
}

// Total returns the batch size.
func (c Counts) Total() int {
	return c.New + c.FinalStretch + c.Migrated
}

// Options configures a Generator.
type Options struct {
	Rand            Rand
	Now             func() time.Time // Default: time.Now
	MaxArrivalDelay time.Duration    // Default: 15s
}

// Generator builds structurally valid tokens with plausible random values.
// It is not safe for concurrent use; the dataset controller calls it from
// its event loop only.
type Generator struct {
	rng             Rand
	now             func() time.Time
	maxArrivalDelay time.Duration
}

// New creates a generator.
func New(opts Options) *Generator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	maxDelay := opts.MaxArrivalDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxArrivalDelay
	}

	return &Generator{
		rng:             opts.Rand,
		now:             now,
		maxArrivalDelay: maxDelay,
	}
}

// GenerateBatch returns a fresh working set for chain: new tokens first
// (most recent first), then final stretch, then migrated.
func (g *Generator) GenerateBatch(chain domain.Chain, counts Counts, seq *idhash.Sequence) ([]domain.Token, error) {
	if err := checkSequence(chain, seq); err != nil {
		return nil, err
	}

	now := g.now()
	tokens := make([]domain.Token, 0, counts.Total())

	layout := []struct {
		category domain.Category
		n        int
	}{
		{domain.CategoryNew, counts.New},
		{domain.CategoryFinalStretch, counts.FinalStretch},
		{domain.CategoryMigrated, counts.Migrated},
	}

	for _, l := range layout {
		age := batchAges[l.category]
		for i := 0; i < l.n; i++ {
			offsetMs := float64(i+1)*age.Step + g.rng.Float64()*age.Jitter
			createdAt := now.Add(-time.Duration(offsetMs) * time.Millisecond)

			t, err := g.build(chain, l.category, seq, createdAt)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, t)
		}
	}

	return tokens, nil
}

// GenerateOne returns a single token of category created now.
func (g *Generator) GenerateOne(chain domain.Chain, category domain.Category, seq *idhash.Sequence) (domain.Token, error) {
	if err := checkSequence(chain, seq); err != nil {
		return domain.Token{}, err
	}
	return g.build(chain, category, seq, g.now())
}

func checkSequence(chain domain.Chain, seq *idhash.Sequence) error {
	if !chain.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownChain, chain)
	}
	if seq == nil || seq.Chain() != chain {
		return fmt.Errorf("sequence does not belong to chain %s", chain)
	}
	return nil
}

func (g *Generator) build(chain domain.Chain, category domain.Category, seq *idhash.Sequence, createdAt time.Time) (domain.Token, error) {
	ranges, ok := RangesFor(chain, category)
	if !ok {
		return domain.Token{}, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, category)
	}

	id, n := seq.Next()
	names := vocabulary[chain]
	info := names[n%uint64(len(names))]

	protocols := chain.Protocols()
	quotes := chain.QuoteTokens()

	t := domain.Token{
		ID:             id,
		Chain:          chain,
		Symbol:         info.Symbol,
		Name:           info.Name,
		LogoURL:        fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=%s", info.Symbol, info.BG),
		Protocol:       protocols[g.rng.IntN(len(protocols))],
		QuoteToken:     quotes[g.rng.IntN(len(quotes))],
		Audit:          "passed",
		Price:          max(ranges.Price.draw(g.rng), domain.PriceFloor),
		PriceChange24h: ranges.PriceChange24h.drawFloor(g.rng),
		Volume24h:      ranges.Volume24h.drawFloor(g.rng),
		MarketCap:      ranges.MarketCap.drawFloor(g.rng),
		Liquidity:      ranges.Liquidity.drawFloor(g.rng),
		Holders:        int(ranges.Holders.drawFloor(g.rng)),
		Txns:           int(ranges.Txns.drawFloor(g.rng)),
		UserCount:      int(ranges.UserCount.drawFloor(g.rng)),
		ChartCount:     int(ranges.ChartCount.drawFloor(g.rng)),
		Category:       category,
		CreatedAt:      createdAt,
		Badges:         g.badges(),
	}

	switch chain {
	case domain.ChainSOL:
		addr, err := solAddress(g.rng)
		if err != nil {
			return domain.Token{}, err
		}
		t.Address = addr
		t.ContractID = solContractID(info.Symbol)
	case domain.ChainBNB:
		t.Address = bnbAddress(g.rng)
		t.ContractID = bnbContractID(g.rng)
	}

	return t, nil
}

func (g *Generator) badges() [domain.BadgeCount]domain.Badge {
	var out [domain.BadgeCount]domain.Badge
	for i := range out {
		color := domain.BadgeRed
		if g.rng.Float64() > 0.6 {
			color = domain.BadgeGreen
		}
		out[i] = domain.Badge{
			Value: g.rng.IntN(domain.MaxBadgeValue),
			Color: color,
		}
	}
	return out
}
