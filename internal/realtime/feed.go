// Package realtime carries row-change notifications between instances and
// pushes stats snapshots to connected dashboards.
package realtime

import (
	"context"
	"sync"

	"citizen-registry/internal/domain"
)

type Handler func(domain.ChangeEvent)

// Feed is a change-notification channel. Events only tell subscribers that
// something changed; they re-read the store for data.
type Feed interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
	// Subscribe delivers events to h until ctx is cancelled.
	Subscribe(ctx context.Context, h Handler) error
	Close() error
}

// LocalFeed delivers events to subscribers in the same process.
type LocalFeed struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{handlers: make(map[int]Handler)}
}

func (f *LocalFeed) Publish(_ context.Context, event domain.ChangeEvent) error {
	f.mu.RLock()
	handlers := make([]Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

func (f *LocalFeed) Subscribe(ctx context.Context, h Handler) error {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.handlers[id] = h
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.handlers, id)
		f.mu.Unlock()
	}()
	return nil
}

func (f *LocalFeed) Close() error {
	f.mu.Lock()
	f.handlers = make(map[int]Handler)
	f.mu.Unlock()
	return nil
}
