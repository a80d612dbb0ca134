package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"paideia/contexts/identity-access/profile-lifecycle-service/application"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
	"paideia/internal/shared/events"
)

// OutboxRelay publishes pending lifecycle events to the bus and
// acknowledges them.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("lifecycle outbox list failed",
			"event", "lifecycle_outbox_list_failed",
			"module", "identity-access/profile-lifecycle-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event events.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			return err
		}
		if err := r.Publisher.PublishLifecycleEvent(ctx, event); err != nil {
			logger.Error("lifecycle outbox publish failed",
				"event", "lifecycle_outbox_publish_failed",
				"module", "identity-access/profile-lifecycle-service",
				"layer", "worker",
				"outbox_id", row.ID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.ID, now); err != nil {
			return err
		}
	}
	return nil
}
