package dataset

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/feed"
	"github.com/SurajNatekar28/token-trading-table/internal/generator"
	"github.com/SurajNatekar28/token-trading-table/internal/mutation"
	"github.com/SurajNatekar28/token-trading-table/internal/rank"
	"github.com/SurajNatekar28/token-trading-table/internal/storage"
	"github.com/SurajNatekar28/token-trading-table/internal/storage/memory"
)

// Default cadences.
const (
	DefaultFrameInterval    = 16 * time.Millisecond
	DefaultMutationInterval = mutation.DefaultInterval
	DefaultDebounceDelay    = 150 * time.Millisecond
	DefaultLoadingDelay     = 400 * time.Millisecond
)

// Options contains configuration for creating a Controller.
type Options struct {
	Chain     domain.Chain       // Default: SOL
	Transport feed.Transport     // optional update feed
	Store     storage.WorkingSet // Default: in-memory
	Rand      generator.Rand     // Default: PCG seeded from Seed
	Seed      uint64             // 0 seeds from the clock
	Now       func() time.Time   // Default: time.Now

	Counts          generator.Counts // Default: 20/18/18
	Capacity        int              // Default and ceiling: 12
	MaxPerCategory  int              // 0 keeps every token
	MaxArrivalDelay time.Duration    // Default: 15s

	FrameInterval    time.Duration // Default: 16ms
	MutationInterval time.Duration // Default: 2s
	DebounceDelay    time.Duration // Default: 150ms
	LoadingDelay     time.Duration // Default: 400ms

	Logger *zap.Logger
}

func (o *Options) defaults() {
	if !o.Chain.IsValid() {
		o.Chain = domain.ChainSOL
	}
	if o.Store == nil {
		o.Store = memory.NewWorkingSet()
	}
	if o.Rand == nil {
		seed := o.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		o.Rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Counts.Total() == 0 {
		o.Counts = generator.DefaultCounts()
	}
	if o.Capacity <= 0 || o.Capacity > rank.DefaultCapacity {
		o.Capacity = rank.DefaultCapacity
	}
	if o.MaxPerCategory < 0 {
		o.MaxPerCategory = 0
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = DefaultFrameInterval
	}
	if o.MutationInterval <= 0 {
		o.MutationInterval = DefaultMutationInterval
	}
	if o.DebounceDelay <= 0 {
		o.DebounceDelay = DefaultDebounceDelay
	}
	if o.LoadingDelay <= 0 {
		o.LoadingDelay = DefaultLoadingDelay
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}
