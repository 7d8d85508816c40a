// Package mutation simulates organic market drift on a token's volatile
// fields.
package mutation

import (
	"time"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
)

// DefaultInterval is the cadence the dataset controller mutates the whole
// working set at.
const DefaultInterval = 2 * time.Second

// Drift bounds.
const (
	MaxPriceDrift    = 0.10 // ±10% per step
	MaxVolumeDrift   = 0.20 // ±20% per step
	BadgeToggleProb  = 0.20
	maxTxnsIncrement = 5 // exclusive
)

// Rand is the random source used for drift. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Mutate returns a copy of t with its volatile fields perturbed. Identity,
// category, creation time and descriptive fields are never changed; all
// results are clamped into their valid ranges.
func Mutate(r Rand, t domain.Token) domain.Token {
	out := t

	priceChange := (r.Float64()*2 - 1) * MaxPriceDrift
	out.Price = max(domain.PriceFloor, t.Price*(1+priceChange))

	volumeChange := (r.Float64()*2 - 1) * MaxVolumeDrift
	out.Volume24h = max(0, t.Volume24h*(1+volumeChange))

	out.Txns = t.Txns + r.IntN(maxTxnsIncrement)
	out.UserCount = max(0, t.UserCount+r.IntN(7)-3)
	out.ChartCount = max(0, t.ChartCount+r.IntN(5)-2)

	for i, b := range t.Badges {
		value := clamp(b.Value+r.IntN(20)-10, 0, domain.MaxBadgeValue)
		color := b.Color
		if r.Float64() < BadgeToggleProb {
			color = color.Toggle()
		}
		out.Badges[i] = domain.Badge{Value: value, Color: color}
	}

	return out
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
