// Package dataset owns the working set of the active chain and keeps the
// three category views current as updates, mutation ticks, arrivals and
// criteria edits arrive.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/coalesce"
	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/feed"
	"github.com/SurajNatekar28/token-trading-table/internal/filter"
	"github.com/SurajNatekar28/token-trading-table/internal/generator"
	"github.com/SurajNatekar28/token-trading-table/internal/idhash"
	"github.com/SurajNatekar28/token-trading-table/internal/mutation"
	"github.com/SurajNatekar28/token-trading-table/internal/observability"
	"github.com/SurajNatekar28/token-trading-table/internal/rank"
	"github.com/SurajNatekar28/token-trading-table/internal/storage"
)

// ErrStopped is returned by commands sent after Run has returned.
var ErrStopped = errors.New("dataset controller stopped")

// pendingArrival is a scheduled arrival tagged with the epoch it was
// drawn in.
type pendingArrival struct {
	arrival generator.Arrival
	chain   domain.Chain
	epoch   uint64
}

// Controller runs the event loop that owns the working set.
//
// All state below the channels is touched only by the loop goroutine.
// Other goroutines talk to it through commands, the coalescer, and the
// published snapshots.
type Controller struct {
	opts      Options
	gen       *generator.Generator
	store     storage.WorkingSet
	coalescer *coalesce.Coalescer
	transport feed.Transport
	logger    *zap.Logger

	cmds    chan func()
	stopped chan struct{}

	views    atomic.Pointer[Views]
	criteria atomic.Pointer[Criteria]

	chain     domain.Chain
	installed bool
	seqs      map[domain.Chain]*idhash.Sequence
	epoch     uint64

	filter        domain.FilterCriteria
	sorts         domain.SortSpecs
	pendingFilter *domain.FilterCriteria

	loading bool
	dirty   bool
	version uint64

	arrival       *pendingArrival
	arrivalTimer  *time.Timer
	loadingTimer  *time.Timer
	debounceTimer *time.Timer
}

// New creates a controller. Call Run to start it.
func New(opts Options) *Controller {
	opts.defaults()

	c := &Controller{
		opts: opts,
		gen: generator.New(generator.Options{
			Rand:            opts.Rand,
			Now:             opts.Now,
			MaxArrivalDelay: opts.MaxArrivalDelay,
		}),
		store:     opts.Store,
		coalescer: coalesce.New(),
		transport: opts.Transport,
		logger:    opts.Logger.Named("dataset"),
		cmds:      make(chan func()),
		stopped:   make(chan struct{}),
		chain:     opts.Chain,
		seqs:      make(map[domain.Chain]*idhash.Sequence, len(domain.Chains)),
		sorts:     domain.DefaultSortSpecs(),
		loading:   true,
	}
	for _, chain := range domain.Chains {
		c.seqs[chain] = idhash.NewSequence(chain, 1)
	}

	c.views.Store(&Views{
		Chain:        opts.Chain,
		New:          []domain.Token{},
		FinalStretch: []domain.Token{},
		Migrated:     []domain.Token{},
		Loading:      true,
	})
	c.publishCriteria()
	return c
}

// Run installs the initial working set and processes events until ctx is
// cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.stopped)

	c.logger.Info("starting",
		zap.Stringer("chain", c.chain),
		zap.Duration("frame_interval", c.opts.FrameInterval),
		zap.Duration("mutation_interval", c.opts.MutationInterval))

	if c.transport != nil {
		unsubscribe := c.transport.Subscribe(c.onUpdates)
		defer unsubscribe()

		if err := c.transport.Connect(ctx); err != nil {
			return fmt.Errorf("connect feed: %w", err)
		}
		defer c.transport.Disconnect()
	}

	if err := c.install(c.chain); err != nil {
		return err
	}
	c.recompute()

	frame := time.NewTicker(c.opts.FrameInterval)
	defer frame.Stop()

	mutate := time.NewTicker(c.opts.MutationInterval)
	defer mutate.Stop()

	defer c.stopTimers()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopping")
			return ctx.Err()

		case fn := <-c.cmds:
			fn()

		case <-frame.C:
			c.applyFlush()

		case <-mutate.C:
			c.tick()

		case <-timerC(c.arrivalTimer):
			c.arrivalTimer = nil
			c.handleArrival(c.arrival)

		case <-timerC(c.loadingTimer):
			c.loadingTimer = nil
			c.finishLoading()

		case <-timerC(c.debounceTimer):
			c.debounceTimer = nil
			c.commitFilter()
		}

		if c.dirty {
			c.recompute()
		}
	}
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (c *Controller) stopTimers() {
	stopTimer(&c.arrivalTimer)
	stopTimer(&c.loadingTimer)
	stopTimer(&c.debounceTimer)
}

// do runs fn on the loop goroutine and waits for it.
func (c *Controller) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}

	select {
	case c.cmds <- wrapped:
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SwitchChain replaces the working set with a fresh batch for chain.
// Switching to the active chain is a no-op.
func (c *Controller) SwitchChain(ctx context.Context, chain domain.Chain) error {
	if !chain.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownChain, chain)
	}

	var err error
	if cmdErr := c.do(ctx, func() { err = c.handleSwitch(chain) }); cmdErr != nil {
		return cmdErr
	}
	return err
}

// SetFilter stages criteria. They are committed once edits stop for the
// debounce delay; until then views report Pending.
func (c *Controller) SetFilter(ctx context.Context, criteria domain.FilterCriteria) error {
	staged := criteria.Clone()
	return c.do(ctx, func() { c.stageFilter(staged) })
}

// SetSort sets the sort for one category. It applies immediately.
func (c *Controller) SetSort(ctx context.Context, category domain.Category, spec domain.SortSpec) error {
	if !category.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, category)
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	if spec.Direction == "" {
		spec.Direction = domain.Desc
	}

	return c.do(ctx, func() {
		c.sorts[category] = spec
		c.publishCriteria()
		c.dirty = true
	})
}

// Views returns the latest published snapshot. Callers must not modify it.
func (c *Controller) Views() *Views {
	return c.views.Load()
}

// Criteria returns the committed filter and sort state.
func (c *Controller) Criteria() Criteria {
	cr := c.criteria.Load()
	return Criteria{
		Filter:  cr.Filter.Clone(),
		Sorts:   cr.Sorts.Clone(),
		Pending: cr.Pending,
	}
}

// onUpdates is the feed callback; it runs on the transport's goroutine.
func (c *Controller) onUpdates(updates []domain.MarketUpdate) {
	coalesced := c.coalescer.Push(updates...)
	observability.RecordUpdatesReceived(len(updates), coalesced)
}

// handleSwitch invalidates everything tied to the previous chain before
// installing the new working set.
func (c *Controller) handleSwitch(chain domain.Chain) error {
	if c.installed && chain == c.chain {
		return nil
	}

	from := c.chain
	if err := c.install(chain); err != nil {
		return err
	}

	observability.RecordChainSwitch(chain.String())
	c.logger.Info("chain switched", zap.Stringer("from", from), zap.Stringer("to", chain))
	return nil
}

func (c *Controller) install(chain domain.Chain) error {
	c.epoch++
	stopTimer(&c.arrivalTimer)
	c.arrival = nil
	c.coalescer.Reset()

	batch, err := c.gen.GenerateBatch(chain, c.opts.Counts, c.seqs[chain])
	if err != nil {
		return fmt.Errorf("generate %s batch: %w", chain, err)
	}
	if err := c.store.Replace(batch); err != nil {
		return fmt.Errorf("install %s batch: %w", chain, err)
	}

	c.chain = chain
	c.installed = true

	// A switch during loading restarts the wait.
	stopTimer(&c.loadingTimer)
	c.loading = true
	c.loadingTimer = time.NewTimer(c.opts.LoadingDelay)

	if c.transport != nil {
		c.transport.SetActiveEntities(batch)
	}

	c.dirty = true
	c.logger.Debug("working set installed",
		zap.Stringer("chain", chain),
		zap.Uint64("epoch", c.epoch),
		zap.Int("tokens", len(batch)))
	return nil
}

// finishLoading ends the loading state and starts arrivals.
func (c *Controller) finishLoading() {
	c.loading = false
	c.scheduleArrival()
	c.dirty = true
}

func (c *Controller) scheduleArrival() {
	next, err := c.gen.NextArrival(c.chain, c.seqs[c.chain])
	if err != nil {
		c.logger.Error("draw arrival", zap.Error(err))
		return
	}

	c.arrival = &pendingArrival{arrival: next, chain: c.chain, epoch: c.epoch}
	stopTimer(&c.arrivalTimer)
	c.arrivalTimer = time.NewTimer(next.Delay)
}

// handleArrival prepends a scheduled token and schedules the next one.
// Arrivals from an earlier epoch are dropped.
func (c *Controller) handleArrival(p *pendingArrival) {
	if p == nil || p.epoch != c.epoch || p.chain != c.chain {
		if p != nil {
			c.logger.Debug("stale arrival dropped",
				zap.String("id", p.arrival.Token.ID),
				zap.Uint64("epoch", p.epoch),
				zap.Uint64("current_epoch", c.epoch))
		}
		return
	}
	c.arrival = nil

	t := p.arrival.Token
	t.CreatedAt = c.opts.Now()

	if err := c.store.Prepend(t); err != nil {
		c.logger.Warn("arrival rejected", zap.String("id", t.ID), zap.Error(err))
	} else {
		c.logger.Debug("token arrived",
			zap.String("id", t.ID),
			zap.Bool("visible", filter.Matches(&t, c.filter)))
		observability.RecordArrival(c.chain.String())
		c.enforceRetention()
		if c.transport != nil {
			c.transport.SetActiveEntities(c.store.All())
		}
		c.dirty = true
	}

	c.scheduleArrival()
}

func (c *Controller) enforceRetention() {
	if c.opts.MaxPerCategory == 0 {
		return
	}
	evicted := c.store.EvictCategory(domain.CategoryNew, c.opts.MaxPerCategory)
	if len(evicted) > 0 {
		observability.RecordEvictions(domain.CategoryNew.String(), len(evicted))
	}
}

// applyFlush merges coalesced feed updates into the working set.
func (c *Controller) applyFlush() {
	flushed := c.coalescer.Flush()
	if len(flushed) == 0 {
		return
	}

	applied, discarded, err := coalesce.Apply(c.store, flushed)
	if err != nil {
		c.logger.Error("apply updates", zap.Error(err))
	}
	observability.RecordFlush(applied, discarded)

	if applied > 0 {
		c.dirty = true
	}
}

// tick drifts every token. Skipped while loading.
func (c *Controller) tick() {
	if c.loading {
		return
	}

	c.store.Map(func(t domain.Token) domain.Token {
		return mutation.Mutate(c.opts.Rand, t)
	})
	observability.RecordMutationTick()
	c.dirty = true
}

func (c *Controller) stageFilter(criteria domain.FilterCriteria) {
	c.pendingFilter = &criteria
	stopTimer(&c.debounceTimer)
	c.debounceTimer = time.NewTimer(c.opts.DebounceDelay)
	c.publishCriteria()
	c.dirty = true
}

func (c *Controller) commitFilter() {
	if c.pendingFilter == nil {
		return
	}
	c.filter = *c.pendingFilter
	c.pendingFilter = nil
	c.publishCriteria()
	c.dirty = true
}

func (c *Controller) publishCriteria() {
	c.criteria.Store(&Criteria{
		Filter:  c.filter.Clone(),
		Sorts:   c.sorts.Clone(),
		Pending: c.pendingFilter != nil,
	})
}

// recompute rebuilds the views from the working set and publishes them.
func (c *Controller) recompute() {
	start := time.Now()

	tokens := c.store.All()
	v := rank.BuildViews(tokens, c.filter, c.sorts, c.opts.Capacity)

	c.version++
	now := c.opts.Now()
	c.views.Store(&Views{
		Chain:        c.chain,
		New:          v.New,
		FinalStretch: v.FinalStretch,
		Migrated:     v.Migrated,
		Loading:      c.loading,
		Pending:      c.pendingFilter != nil,
		Version:      c.version,
		UpdatedAt:    now,
	})
	c.dirty = false

	observability.RecordRecompute(time.Since(start).Seconds(), now.Unix())
	observability.UpdateSizes(len(tokens), map[string]int{
		domain.CategoryNew.String():          len(v.New),
		domain.CategoryFinalStretch.String(): len(v.FinalStretch),
		domain.CategoryMigrated.String():     len(v.Migrated),
	})
}
