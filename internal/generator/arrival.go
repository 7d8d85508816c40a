package generator

import (
	"time"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/idhash"
)

// Arrival is a brand-new token together with the delay after which it
// should be inserted.
type Arrival struct {
	Token domain.Token
	Delay time.Duration
}

// NextArrival draws the next arrival for chain. The delay is uniform in
// [0, MaxArrivalDelay); the token is always in the new category and is
// stamped as created at the moment the delay elapses. The caller inserts it
// when the delay fires and re-stamps CreatedAt with the actual fire time.
func (g *Generator) NextArrival(chain domain.Chain, seq *idhash.Sequence) (Arrival, error) {
	delay := time.Duration(g.rng.Float64() * float64(g.maxArrivalDelay))

	if err := checkSequence(chain, seq); err != nil {
		return Arrival{}, err
	}
	t, err := g.build(chain, domain.CategoryNew, seq, g.now().Add(delay))
	if err != nil {
		return Arrival{}, err
	}

	return Arrival{Token: t, Delay: delay}, nil
}
