package generator

import "github.com/SurajNatekar28/token-trading-table/internal/domain"

// Span is a half-open random range [Min, Min+Width).
type Span struct {
	Min   float64
	Width float64
}

// Contains reports whether v lies inside the span. The upper bound is
// inclusive to tolerate float rounding on Min+Width.
func (s Span) Contains(v float64) bool {
	return v >= s.Min && v <= s.Min+s.Width
}

func (s Span) draw(r Rand) float64 {
	return s.Min + r.Float64()*s.Width
}

// drawFloor draws an integral value: floor(rand*Width) + Min.
func (s Span) drawFloor(r Rand) float64 {
	return s.Min + float64(int64(r.Float64()*s.Width))
}

// Ranges are the simulation ranges for one chain and category.
// New tokens get much smaller volume, liquidity and holder ranges than
// migrated ones so the three columns look different.
type Ranges struct {
	Price          Span
	PriceChange24h Span
	Volume24h      Span
	MarketCap      Span
	Liquidity      Span
	Holders        Span
	Txns           Span
	UserCount      Span
	ChartCount     Span
}

// RangesFor returns the ranges for chain and category. ok is false for an
// unknown combination.
func RangesFor(chain domain.Chain, category domain.Category) (Ranges, bool) {
	byCategory, ok := profiles[chain]
	if !ok {
		return Ranges{}, false
	}
	r, ok := byCategory[category]
	return r, ok
}

var profiles = map[domain.Chain]map[domain.Category]Ranges{
	domain.ChainSOL: {
		domain.CategoryNew: {
			Price:          Span{0, 0.1},
			PriceChange24h: Span{0, 80},
			Volume24h:      Span{0, 5000},
			MarketCap:      Span{2000, 10000},
			Liquidity:      Span{2000, 8000},
			Holders:        Span{0, 20},
			Txns:           Span{1, 50},
			UserCount:      Span{0, 15},
			ChartCount:     Span{0, 5},
		},
		domain.CategoryFinalStretch: {
			Price:          Span{0.5, 15},
			PriceChange24h: Span{0, 80},
			Volume24h:      Span{50000, 500000},
			MarketCap:      Span{30000, 600000},
			Liquidity:      Span{30000, 500000},
			Holders:        Span{100, 600},
			Txns:           Span{500, 6000},
			UserCount:      Span{10, 100},
			ChartCount:     Span{10, 150},
		},
		domain.CategoryMigrated: {
			Price:          Span{1, 50},
			PriceChange24h: Span{0, 80},
			Volume24h:      Span{100000, 800000},
			MarketCap:      Span{30000, 200000},
			Liquidity:      Span{30000, 150000},
			Holders:        Span{200, 1000},
			Txns:           Span{1000, 10000},
			UserCount:      Span{20, 300},
			ChartCount:     Span{50, 1000},
		},
	},
	domain.ChainBNB: {
		domain.CategoryNew: {
			Price:          Span{0, 0.01},
			PriceChange24h: Span{0, 60},
			Volume24h:      Span{0, 3000},
			MarketCap:      Span{1000, 8000},
			Liquidity:      Span{1000, 5000},
			Holders:        Span{0, 15},
			Txns:           Span{1, 40},
			UserCount:      Span{0, 10},
			ChartCount:     Span{0, 3},
		},
		domain.CategoryFinalStretch: {
			Price:          Span{0.1, 5},
			PriceChange24h: Span{0, 60},
			Volume24h:      Span{30000, 300000},
			MarketCap:      Span{20000, 400000},
			Liquidity:      Span{20000, 300000},
			Holders:        Span{50, 400},
			Txns:           Span{300, 4000},
			UserCount:      Span{5, 80},
			ChartCount:     Span{5, 100},
		},
		domain.CategoryMigrated: {
			Price:          Span{0.5, 20},
			PriceChange24h: Span{0, 60},
			Volume24h:      Span{80000, 500000},
			MarketCap:      Span{20000, 150000},
			Liquidity:      Span{20000, 100000},
			Holders:        Span{100, 800},
			Txns:           Span{800, 8000},
			UserCount:      Span{15, 200},
			ChartCount:     Span{30, 800},
		},
	},
}

// ageSpan is the creation-time offset into the past for the i-th token of a
// category in a seeded batch: (i+1)*Step + U[0, Jitter).
type ageSpan struct {
	Step   float64 // ms
	Jitter float64 // ms
}

var batchAges = map[domain.Category]ageSpan{
	domain.CategoryNew:          {Step: 5_000, Jitter: 10_000},
	domain.CategoryFinalStretch: {Step: 3_600_000, Jitter: 7_200_000},
	domain.CategoryMigrated:     {Step: 1_800_000, Jitter: 3_600_000},
}
