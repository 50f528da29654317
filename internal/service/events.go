package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/bizadmin/internal/mykafka"
	"github.com/Skotchmaster/bizadmin/pkg/logging"
)

const DefaultTopic = "account_events"

// publish never fails the caller; delivery problems are only logged.
func publish(ctx context.Context, p mykafka.Publisher, topic string, ev mykafka.AccountEvent) {
	if p == nil {
		return
	}
	if topic == "" {
		topic = DefaultTopic
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := p.PublishEvent(ctx, topic, ev.PrincipalID, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "event", ev.Type, "principal_id", ev.PrincipalID, "error", err)
	}
}
