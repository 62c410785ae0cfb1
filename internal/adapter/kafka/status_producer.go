package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

var publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "order_status_events_published_total",
	Help: "Status-changed events published to Kafka, by target status.",
}, []string{"to"})

// StatusProducer publishes one event per committed order status transition.
// Messages are keyed by order number so per-order ordering is preserved
// within a partition.
type StatusProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewStatusProducer(producer sarama.SyncProducer, topic string) *StatusProducer {
	return &StatusProducer{producer: producer, topic: topic}
}

func (p *StatusProducer) PublishStatusChanged(_ context.Context, msg usecase.StatusChangedMsg) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.OrderNumber),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish status event for %s: %w", msg.OrderNumber, err)
	}
	publishedTotal.WithLabelValues(msg.To).Inc()
	return nil
}

func (p *StatusProducer) Close() error { return p.producer.Close() }

var _ usecase.StatusPublisher = (*StatusProducer)(nil)
