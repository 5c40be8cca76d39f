package realtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/realtime"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (r *recorder) handle(ev domain.ChangeEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestLocalFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	feed := realtime.NewLocalFeed()
	rec := &recorder{}
	require.NoError(t, feed.Subscribe(ctx, rec.handle))

	ev := domain.NewChangeEvent(domain.TableRegistrations, domain.ChangeInsert, uuid.New())
	require.NoError(t, feed.Publish(ctx, ev))
	assert.Equal(t, 1, rec.len())

	cancel()
	require.Eventually(t, func() bool {
		before := rec.len()
		_ = feed.Publish(context.Background(), ev)
		return rec.len() == before
	}, time.Second, 5*time.Millisecond)
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingRefresher) Refresh(context.Context) (domain.Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return domain.Stats{}, c.err
}

func TestNotifier_Changed(t *testing.T) {
	ctx := context.Background()

	t.Run("Refreshes Before Publishing", func(t *testing.T) {
		feed := realtime.NewLocalFeed()
		refresher := &countingRefresher{}
		rec := &recorder{}
		require.NoError(t, feed.Subscribe(ctx, func(ev domain.ChangeEvent) {
			refresher.mu.Lock()
			assert.Equal(t, 1, refresher.calls)
			refresher.mu.Unlock()
			rec.handle(ev)
		}))
		n := realtime.NewNotifier(feed, refresher, "api-1", zap.NewNop())
		id := uuid.New()

		n.Changed(ctx, domain.TableAccessRequests, domain.ChangeUpdate, id)

		require.Equal(t, 1, rec.len())
		assert.Equal(t, "api-1", rec.events[0].Origin)
		assert.Equal(t, id, rec.events[0].RecordID)
	})

	t.Run("Incidents Do Not Refresh", func(t *testing.T) {
		refresher := &countingRefresher{}
		n := realtime.NewNotifier(realtime.NewLocalFeed(), refresher, "api-1", zap.NewNop())

		n.Changed(ctx, domain.TableIncidents, domain.ChangeInsert, uuid.New())

		assert.Zero(t, refresher.calls)
	})

	t.Run("Refresh Failure Still Publishes", func(t *testing.T) {
		feed := realtime.NewLocalFeed()
		rec := &recorder{}
		require.NoError(t, feed.Subscribe(ctx, rec.handle))
		n := realtime.NewNotifier(feed, &countingRefresher{err: errors.New("db down")}, "api-1", zap.NewNop())

		n.Changed(ctx, domain.TableRegistrations, domain.ChangeInsert, uuid.New())

		assert.Equal(t, 1, rec.len())
	})
}
