package stats_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/metrics"
	"citizen-registry/internal/mocks/memstore"
	"citizen-registry/internal/service/stats"
)

// gatedRegistrations counts full recomputations and can hold them at the first
// registration count until the gate is opened.
type gatedRegistrations struct {
	*memstore.Registrations
	mu           sync.Mutex
	gate         chan struct{}
	computations atomic.Int32
}

func (g *gatedRegistrations) CountByStatus(ctx context.Context, status *domain.RegistrationStatus) (int64, error) {
	if status == nil {
		g.computations.Add(1)
		g.mu.Lock()
		gate := g.gate
		g.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
	}
	return g.Registrations.CountByStatus(ctx, status)
}

func (g *gatedRegistrations) hold() {
	g.mu.Lock()
	g.gate = make(chan struct{})
	g.mu.Unlock()
}

func (g *gatedRegistrations) release() {
	g.mu.Lock()
	if g.gate != nil {
		close(g.gate)
		g.gate = nil
	}
	g.mu.Unlock()
}

func newEngine(t *testing.T) (*stats.Engine, *memstore.Stores, *gatedRegistrations) {
	t.Helper()
	stores := memstore.New()
	regs := &gatedRegistrations{Registrations: stores.Registrations}
	engine := stats.NewEngine(regs, stores.Users, stores.AccessRequests, nil, zap.NewNop(), metrics.Noop(), stats.Options{})
	t.Cleanup(engine.Close)
	return engine, stores, regs
}

func seedRegistration(t *testing.T, stores *memstore.Stores, status domain.RegistrationStatus) {
	t.Helper()
	id := uuid.New()
	require.NoError(t, stores.Registrations.Create(context.Background(), &domain.Registration{
		ID:               id,
		RegistrationCode: "NG-" + id.String(),
		Kind:             domain.KindCitizen,
		Status:           status,
	}))
}

func TestEngine_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("Counts Every Category", func(t *testing.T) {
		engine, stores, _ := newEngine(t)
		seedRegistration(t, stores, domain.RegistrationPending)
		seedRegistration(t, stores, domain.RegistrationPending)
		seedRegistration(t, stores, domain.RegistrationVerified)
		seedRegistration(t, stores, domain.RegistrationFlagged)
		require.NoError(t, stores.Users.Create(ctx, &domain.UserAccount{ID: uuid.New(), IsActive: true}))
		require.NoError(t, stores.Users.Create(ctx, &domain.UserAccount{ID: uuid.New(), IsActive: false}))
		require.NoError(t, stores.AccessRequests.Create(ctx, &domain.AccessRequest{ID: uuid.New(), Email: "a@x.example", Status: domain.AccessPending}))

		s, err := engine.Refresh(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(4), s.TotalRegistrations)
		assert.Equal(t, int64(1), s.VerifiedIdentities)
		assert.Equal(t, int64(2), s.PendingReviews)
		assert.Equal(t, int64(1), s.FlaggedProfiles)
		assert.Equal(t, int64(1), s.ActiveUsers)
		assert.Equal(t, int64(1), s.PendingUserRequests)
		assert.False(t, s.ComputedAt.IsZero())
		assert.Equal(t, s, engine.Snapshot())
	})

	t.Run("Keeps Previous Snapshot On Failure", func(t *testing.T) {
		engine, stores, _ := newEngine(t)
		seedRegistration(t, stores, domain.RegistrationPending)

		before, err := engine.Refresh(ctx)
		require.NoError(t, err)

		stores.Users.CountErr = errors.New("connection reset")
		seedRegistration(t, stores, domain.RegistrationPending)

		got, err := engine.Refresh(ctx)
		assert.Error(t, err)
		assert.True(t, domain.IsRemoteUnavailable(err))
		assert.Equal(t, before, got)
		assert.Equal(t, before, engine.Snapshot())
	})

	t.Run("Observes Writes Completed Before The Call", func(t *testing.T) {
		engine, stores, regs := newEngine(t)
		regs.hold()
		engine.Notify()
		require.Eventually(t, func() bool { return regs.computations.Load() == 1 }, time.Second, time.Millisecond)

		// The in-flight computation may already have counted; this write must
		// still be reflected in what Refresh returns.
		seedRegistration(t, stores, domain.RegistrationPending)

		done := make(chan domain.Stats, 1)
		go func() {
			s, _ := engine.Refresh(ctx)
			done <- s
		}()
		time.Sleep(20 * time.Millisecond)
		regs.release()

		select {
		case s := <-done:
			assert.Equal(t, int64(1), s.TotalRegistrations)
		case <-time.After(2 * time.Second):
			t.Fatal("refresh did not return")
		}
	})
}

func TestEngine_Coalescing(t *testing.T) {
	engine, _, regs := newEngine(t)

	regs.hold()
	engine.Notify()
	require.Eventually(t, func() bool { return regs.computations.Load() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < 25; i++ {
		engine.Notify()
	}
	regs.release()

	require.Eventually(t, func() bool { return regs.computations.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), regs.computations.Load())
}

func TestEngine_ChangeHandler(t *testing.T) {
	engine, _, regs := newEngine(t)
	handle := engine.ChangeHandler("self")

	own := domain.NewChangeEvent(domain.TableRegistrations, domain.ChangeInsert, uuid.New())
	own.Origin = "self"
	handle(own)

	incident := domain.NewChangeEvent(domain.TableIncidents, domain.ChangeInsert, uuid.New())
	incident.Origin = "peer"
	handle(incident)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), regs.computations.Load())

	remote := domain.NewChangeEvent(domain.TableAccessRequests, domain.ChangeUpdate, uuid.New())
	remote.Origin = "peer"
	handle(remote)

	assert.Eventually(t, func() bool { return regs.computations.Load() == 1 }, time.Second, time.Millisecond)
}

func TestEngine_Subscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("Publishes Each Snapshot", func(t *testing.T) {
		engine, _, _ := newEngine(t)
		var calls atomic.Int32
		unsubscribe := engine.Subscribe(func(domain.Stats) { calls.Add(1) })

		_, err := engine.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())

		unsubscribe()
		_, err = engine.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("No Calls After Close", func(t *testing.T) {
		engine, _, regs := newEngine(t)
		var calls atomic.Int32
		engine.Subscribe(func(domain.Stats) { calls.Add(1) })

		regs.hold()
		engine.Notify()
		require.Eventually(t, func() bool { return regs.computations.Load() == 1 }, time.Second, time.Millisecond)

		engine.Close()
		regs.release()
		time.Sleep(30 * time.Millisecond)

		_, err := engine.Refresh(ctx)
		assert.ErrorIs(t, err, stats.ErrClosed)
		assert.Equal(t, int32(0), calls.Load())
	})
}
