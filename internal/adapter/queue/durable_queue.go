package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/repo"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

const outboxChannel = "order.notifications.v1"

// DurableQueue is the NotificationQueue the use cases see: publish to the
// broker, and park the job in the database outbox when the broker is down
// so the drain loop can redeliver it.
type DurableQueue struct {
	producer *RabbitProducer
	outbox   *repo.MySQLOutboxRepo
}

func NewDurableQueue(producer *RabbitProducer, outbox *repo.MySQLOutboxRepo) *DurableQueue {
	return &DurableQueue{producer: producer, outbox: outbox}
}

func (q *DurableQueue) Enqueue(ctx context.Context, ev usecase.NotificationEvent) error {
	if err := q.producer.Publish(ctx, ev); err != nil {
		logging.FromCtx(ctx).Warn("notification publish failed, parking in outbox",
			"event", ev.Name, "err", err)
		payload, merr := json.Marshal(ev)
		if merr != nil {
			return merr
		}
		return q.outbox.Insert(ctx, outboxChannel, payload)
	}
	return nil
}

var _ usecase.NotificationQueue = (*DurableQueue)(nil)

// OutboxDrainer periodically republishes parked notifications.
type OutboxDrainer struct {
	producer *RabbitProducer
	outbox   *repo.MySQLOutboxRepo
	interval time.Duration
	batch    int
}

func NewOutboxDrainer(producer *RabbitProducer, outbox *repo.MySQLOutboxRepo) *OutboxDrainer {
	return &OutboxDrainer{producer: producer, outbox: outbox, interval: time.Minute, batch: 100}
}

// Start runs the drain loop until ctx is cancelled. Non-blocking.
func (d *OutboxDrainer) Start(ctx context.Context) {
	l := logging.New("outbox-drainer")
	go func() {
		t := time.NewTicker(d.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				d.drain(ctx, l)
			}
		}
	}()
}

func (d *OutboxDrainer) drain(ctx context.Context, l *slog.Logger) {
	rows, err := d.outbox.FetchPending(ctx, d.batch)
	if err != nil {
		l.Warn("outbox fetch failed", "err", err)
		return
	}
	for _, row := range rows {
		var ev usecase.NotificationEvent
		if err := json.Unmarshal(row.Payload, &ev); err != nil {
			// Poison row: mark sent so it stops cycling.
			l.Warn("outbox poison payload", "id", row.ID, "err", err)
			_ = d.outbox.MarkSent(ctx, row.ID)
			continue
		}
		if err := d.producer.Publish(ctx, ev); err != nil {
			_ = d.outbox.MarkFailed(ctx, row.ID)
			continue
		}
		_ = d.outbox.MarkSent(ctx, row.ID)
	}
}
