package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"citizen-registry/internal/domain"
)

// Notifier records change notifications instead of publishing them.
type Notifier struct {
	mu     sync.Mutex
	Events []domain.ChangeEvent
}

func (n *Notifier) Changed(_ context.Context, table string, t domain.ChangeType, id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, domain.NewChangeEvent(table, t, id))
}

func (n *Notifier) Count(table string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, e := range n.Events {
		if e.Table == table {
			count++
		}
	}
	return count
}
