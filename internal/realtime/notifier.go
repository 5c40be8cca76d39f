package realtime

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
)

type Refresher interface {
	Refresh(ctx context.Context) (domain.Stats, error)
}

// Notifier is called by services after a successful write.
type Notifier interface {
	Changed(ctx context.Context, table string, t domain.ChangeType, id uuid.UUID)
}

type notifier struct {
	feed   Feed
	stats  Refresher
	origin string
	logger *zap.Logger
}

func NewNotifier(feed Feed, stats Refresher, origin string, logger *zap.Logger) Notifier {
	return &notifier{feed: feed, stats: stats, origin: origin, logger: logger}
}

// Changed refreshes the local stats before returning, then tells other
// instances. Neither failure is reported to the caller: the write already
// succeeded and the previous snapshot stays in place.
func (n *notifier) Changed(ctx context.Context, table string, t domain.ChangeType, id uuid.UUID) {
	event := domain.NewChangeEvent(table, t, id)
	event.Origin = n.origin

	if event.AffectsStats() {
		if _, err := n.stats.Refresh(ctx); err != nil {
			n.logger.Warn("stats refresh after write failed",
				zap.String("table", table), zap.String("record_id", id.String()), zap.Error(err))
		}
	}

	if err := n.feed.Publish(ctx, event); err != nil {
		n.logger.Warn("failed to publish change event",
			zap.String("table", table), zap.String("record_id", id.String()), zap.Error(err))
	}
}
