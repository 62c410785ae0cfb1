package notify

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

var (
	sentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notification emails delivered, by event name.",
	}, []string{"event"})
	failedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Notification deliveries that errored, by event name.",
	}, []string{"event"})
	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dropped_total",
		Help: "Notification events acked without delivery (unknown name or no recipient).",
	})
)

// Consumer turns queued notification events into outbound mail. It is wired
// behind the rabbit router, so a returned error means "requeue and retry".
type Consumer struct {
	mailer Mailer
}

func NewConsumer(mailer Mailer) *Consumer {
	return &Consumer{mailer: mailer}
}

func (c *Consumer) Handle(ctx context.Context, ev usecase.NotificationEvent) error {
	log := logging.FromCtx(ctx).With("eventId", ev.ID, "event", ev.Name, "order", ev.OrderNumber)

	if ev.Email == "" {
		log.Warn("notification has no recipient, dropping")
		droppedTotal.Inc()
		return nil
	}
	msg, ok := Render(ev)
	if !ok {
		log.Warn("unknown notification event, dropping")
		droppedTotal.Inc()
		return nil
	}

	if err := c.mailer.Send(ctx, ev.Email, msg.Subject, msg.Body); err != nil {
		failedTotal.WithLabelValues(ev.Name).Inc()
		return fmt.Errorf("send %q to %s: %w", ev.Name, ev.Email, err)
	}

	sentTotal.WithLabelValues(ev.Name).Inc()
	log.Info("notification sent", "to", ev.Email)
	return nil
}
