package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/service"
)

// publishTimeout bounds how long a flow waits on the event sink.
const publishTimeout = 2 * time.Second

// publishAuthEvent sends the event and only logs on failure; events never fail a flow.
func publishAuthEvent(ctx context.Context, publisher service.EventPublisher, logger *slog.Logger, event *service.AuthEvent) {
	if publisher == nil {
		return
	}

	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := publisher.PublishAuthEvent(publishCtx, event); err != nil {
		logger.Warn("Failed to publish auth event",
			slog.String("event_type", string(event.Type)),
			slog.Int64("userID", event.UserID),
			slog.Any("error", err),
		)
	}
}
