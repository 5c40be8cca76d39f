package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/metrics"
)

const textMessage = 1

// Conn is the part of a websocket connection the hub uses.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

type client struct {
	send   chan []byte
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.done)
	})
}

// Hub keeps the connected stats clients and broadcasts every published snapshot.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	snapshot func() domain.Stats
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewHub(snapshot func() domain.Stats, logger *zap.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:  make(map[*client]struct{}),
		snapshot: snapshot,
		logger:   logger,
		metrics:  m,
	}
}

// Broadcast queues stats for every connected client. A client that cannot keep
// up is dropped.
func (h *Hub) Broadcast(stats domain.Stats) {
	data, err := json.Marshal(stats)
	if err != nil {
		h.logger.Error("failed to encode stats", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.closed.Load() {
			continue
		}
		select {
		case c.send <- data:
		default:
			c.close()
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve runs one client connection until it closes. It sends the current
// snapshot first.
func (h *Hub) Serve(conn Conn) {
	c := &client{send: make(chan []byte, 8), done: make(chan struct{})}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.StatsSubscribers.Inc()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		h.metrics.StatsSubscribers.Dec()
		_ = conn.Close()
	}()

	if initial, err := json.Marshal(h.snapshot()); err == nil {
		c.send <- initial
	}

	go func() {
		defer c.close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if c.closed.Load() {
				return
			}
			if err := conn.WriteMessage(textMessage, data); err != nil {
				h.logger.Debug("stats client write failed", zap.Error(err))
				c.close()
				return
			}
		}
	}
}
