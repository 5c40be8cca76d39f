// Package stats maintains the registry counters shown on the dashboard.
//
// All recomputations go through one loop: at most one runs at a time, and any
// number of triggers that arrive while it runs collapse into a single trailing
// run. A snapshot is published only after every count succeeded.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/metrics"
	"citizen-registry/internal/repository"
)

const cacheKey = "dashboard:stats"

var ErrClosed = errors.New("stats engine closed")

// Refresher is what mutating services need: a recomputation whose counts
// observe every write completed before the call.
type Refresher interface {
	Refresh(ctx context.Context) (domain.Stats, error)
}

type Options struct {
	Timeout  time.Duration
	CacheTTL time.Duration
	Now      func() time.Time
}

type result struct {
	stats domain.Stats
	err   error
}

type Engine struct {
	regRepo    repository.RegistrationRepository
	userRepo   repository.UserRepository
	accessRepo repository.AccessRequestRepository
	redis      *redis.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
	opts       Options

	ctx    context.Context
	cancel context.CancelFunc

	current atomic.Pointer[domain.Stats]
	closed  atomic.Bool

	mu      sync.Mutex
	running bool
	pending bool
	waiters []chan result
	subs    map[int]func(domain.Stats)
	nextSub int
}

func NewEngine(
	regRepo repository.RegistrationRepository,
	userRepo repository.UserRepository,
	accessRepo repository.AccessRequestRepository,
	redis *redis.Client,
	logger *zap.Logger,
	m *metrics.Metrics,
	opts Options,
) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		regRepo:    regRepo,
		userRepo:   userRepo,
		accessRepo: accessRepo,
		redis:      redis,
		logger:     logger,
		metrics:    m,
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
		subs:       make(map[int]func(domain.Stats)),
	}
}

// Start seeds the snapshot from the cache when one is available and then runs
// the initial recomputation.
func (e *Engine) Start(ctx context.Context) error {
	if cached, ok := e.readCache(ctx); ok {
		e.current.CompareAndSwap(nil, &cached)
	}
	_, err := e.Refresh(ctx)
	return err
}

// Snapshot returns the last successfully computed stats.
func (e *Engine) Snapshot() domain.Stats {
	if s := e.current.Load(); s != nil {
		return *s
	}
	return domain.Stats{}
}

// Refresh waits for a recomputation that starts after the call. On failure the
// previous snapshot is returned along with the error.
func (e *Engine) Refresh(ctx context.Context) (domain.Stats, error) {
	if e.closed.Load() {
		return e.Snapshot(), ErrClosed
	}

	w := make(chan result, 1)
	e.trigger(w)

	select {
	case r := <-w:
		return r.stats, r.err
	case <-ctx.Done():
		return e.Snapshot(), ctx.Err()
	}
}

// Notify schedules a recomputation without waiting for it.
func (e *Engine) Notify() {
	if e.closed.Load() {
		return
	}
	e.trigger(nil)
}

// ChangeHandler returns a change-feed handler that schedules a recomputation
// for events on counted tables. Events from origin are skipped; that instance
// already refreshed when it made the change.
func (e *Engine) ChangeHandler(origin string) func(domain.ChangeEvent) {
	return func(ev domain.ChangeEvent) {
		if ev.Origin == origin || !ev.AffectsStats() {
			return
		}
		e.Notify()
	}
}

// Subscribe registers fn for every published snapshot.
func (e *Engine) Subscribe(fn func(domain.Stats)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Close stops the engine. Results of a computation still in flight are
// discarded and subscribers are not called again.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.cancel()

	e.mu.Lock()
	e.subs = make(map[int]func(domain.Stats))
	e.mu.Unlock()
}

func (e *Engine) trigger(w chan result) {
	e.mu.Lock()
	if w != nil {
		e.waiters = append(e.waiters, w)
	}
	if e.running {
		e.pending = true
		e.mu.Unlock()
		e.metrics.StatsRefreshes.WithLabelValues("coalesced").Inc()
		return
	}
	e.running = true
	e.mu.Unlock()

	go e.loop()
}

func (e *Engine) loop() {
	for {
		e.mu.Lock()
		batch := e.waiters
		e.waiters = nil
		e.pending = false
		e.mu.Unlock()

		r := e.compute()
		for _, w := range batch {
			w <- r
		}

		e.mu.Lock()
		if !e.pending || e.closed.Load() {
			e.running = false
			rest := e.waiters
			e.waiters = nil
			e.mu.Unlock()
			for _, w := range rest {
				w <- result{stats: e.Snapshot(), err: ErrClosed}
			}
			return
		}
		e.mu.Unlock()
	}
}

func (e *Engine) compute() result {
	if e.closed.Load() {
		return result{stats: e.Snapshot(), err: ErrClosed}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(e.ctx, e.opts.Timeout)
	defer cancel()

	var next domain.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		next.TotalRegistrations, err = e.countRegistrations(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		next.VerifiedIdentities, err = e.countRegistrations(gctx, statusPtr(domain.RegistrationVerified))
		return err
	})
	g.Go(func() (err error) {
		next.PendingReviews, err = e.countRegistrations(gctx, statusPtr(domain.RegistrationPending))
		return err
	})
	g.Go(func() (err error) {
		next.FlaggedProfiles, err = e.countRegistrations(gctx, statusPtr(domain.RegistrationFlagged))
		return err
	})
	g.Go(func() error {
		n, err := e.userRepo.CountActive(gctx)
		if err != nil {
			return fmt.Errorf("count active users: %w", err)
		}
		next.ActiveUsers = n
		return nil
	})
	g.Go(func() error {
		n, err := e.accessRepo.CountByStatus(gctx, domain.AccessPending)
		if err != nil {
			return fmt.Errorf("count pending access requests: %w", err)
		}
		next.PendingUserRequests = n
		return nil
	})

	err := g.Wait()
	e.metrics.StatsRefreshDuration.Observe(time.Since(start).Seconds())

	if e.closed.Load() {
		return result{stats: e.Snapshot(), err: ErrClosed}
	}
	if err != nil {
		e.metrics.StatsRefreshes.WithLabelValues("error").Inc()
		e.logger.Error("stats refresh failed, keeping previous snapshot", zap.Error(err))
		return result{stats: e.Snapshot(), err: domain.NewRemoteUnavailable("refresh stats", err)}
	}

	next.ComputedAt = e.opts.Now().UTC()
	e.current.Store(&next)
	e.metrics.StatsRefreshes.WithLabelValues("ok").Inc()

	e.writeCache(next)
	e.publish(next)
	return result{stats: next}
}

func (e *Engine) countRegistrations(ctx context.Context, status *domain.RegistrationStatus) (int64, error) {
	n, err := e.regRepo.CountByStatus(ctx, status)
	if err != nil {
		label := "all"
		if status != nil {
			label = string(*status)
		}
		return 0, fmt.Errorf("count registrations (%s): %w", label, err)
	}
	return n, nil
}

func (e *Engine) publish(s domain.Stats) {
	e.mu.Lock()
	subs := make([]func(domain.Stats), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		if e.closed.Load() {
			return
		}
		fn(s)
	}
}

func (e *Engine) readCache(ctx context.Context) (domain.Stats, bool) {
	if e.redis == nil {
		return domain.Stats{}, false
	}
	cached, err := e.redis.Get(ctx, cacheKey).Result()
	if err != nil {
		return domain.Stats{}, false
	}
	var s domain.Stats
	if json.Unmarshal([]byte(cached), &s) != nil {
		return domain.Stats{}, false
	}
	return s, true
}

func (e *Engine) writeCache(s domain.Stats) {
	if e.redis == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := e.redis.Set(e.ctx, cacheKey, data, e.opts.CacheTTL).Err(); err != nil {
		e.logger.Warn("failed to cache stats snapshot", zap.Error(err))
	}
}

func statusPtr(s domain.RegistrationStatus) *domain.RegistrationStatus {
	return &s
}
