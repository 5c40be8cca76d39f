package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
)

const ChangeChannel = "registry:changes"

// RedisFeed fans change events out to every instance through Redis pub/sub.
type RedisFeed struct {
	client *redis.Client
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[*redis.PubSub]struct{}
	closed bool
}

func NewRedisFeed(client *redis.Client, logger *zap.Logger) *RedisFeed {
	return &RedisFeed{client: client, logger: logger, subs: make(map[*redis.PubSub]struct{})}
}

func (f *RedisFeed) Publish(ctx context.Context, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, ChangeChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, h Handler) error {
	sub := f.client.Subscribe(ctx, ChangeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", ChangeChannel, err)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		_ = sub.Close()
		return errors.New("change feed is closed")
	}
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	go func() {
		defer f.release(sub)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event domain.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					f.logger.Warn("dropping malformed change event", zap.String("payload", msg.Payload), zap.Error(err))
					continue
				}
				h(event)
			}
		}
	}()
	return nil
}

func (f *RedisFeed) release(sub *redis.PubSub) {
	f.mu.Lock()
	_, open := f.subs[sub]
	delete(f.subs, sub)
	f.mu.Unlock()
	if open {
		_ = sub.Close()
	}
}

// Close ends every subscription started by Subscribe. The Redis client itself
// is owned by the caller.
func (f *RedisFeed) Close() error {
	f.mu.Lock()
	f.closed = true
	subs := f.subs
	f.subs = make(map[*redis.PubSub]struct{})
	f.mu.Unlock()

	var errs []error
	for sub := range subs {
		if err := sub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
