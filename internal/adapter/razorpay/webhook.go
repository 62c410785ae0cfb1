package razorpay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
)

// WebhookEvent is the gateway's envelope. Payload shape varies per event
// type; Entity carries the fields the handlers need.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

type PaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Status           string `json:"status"`
	ErrorDescription string `json:"error_description"`
}

// WebhookHandlers are the per-event-type callbacks. Nil handlers are
// treated like unrecognized events: acknowledged, not processed.
type WebhookHandlers struct {
	PaymentAuthorized func(ctx context.Context, p PaymentEntity) error
	PaymentCaptured   func(ctx context.Context, p PaymentEntity) error
	PaymentFailed     func(ctx context.Context, p PaymentEntity) error
	OrderPaid         func(ctx context.Context, gatewayOrderID string) error
}

// Dispatcher authenticates and routes gateway webhooks.
type Dispatcher struct {
	client   *Client
	handlers WebhookHandlers
}

func NewDispatcher(client *Client, handlers WebhookHandlers) *Dispatcher {
	return &Dispatcher{client: client, handlers: handlers}
}

var ErrBadWebhookSignature = fmt.Errorf("webhook signature verification failed")

// Dispatch verifies the body signature and routes by event type. Unknown
// event types return nil so the gateway does not retry-storm on events this
// system doesn't yet understand.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte, signature string) error {
	if !d.client.VerifyWebhookSignature(body, signature) {
		return ErrBadWebhookSignature
	}

	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode webhook: %w", err)
	}
	l := logging.FromCtx(ctx).With("event", ev.Event)

	switch ev.Event {
	case "payment.authorized":
		if d.handlers.PaymentAuthorized != nil {
			return d.handlers.PaymentAuthorized(ctx, ev.Payload.Payment.Entity)
		}
	case "payment.captured":
		if d.handlers.PaymentCaptured != nil {
			return d.handlers.PaymentCaptured(ctx, ev.Payload.Payment.Entity)
		}
	case "payment.failed":
		if d.handlers.PaymentFailed != nil {
			return d.handlers.PaymentFailed(ctx, ev.Payload.Payment.Entity)
		}
	case "order.paid":
		if d.handlers.OrderPaid != nil {
			return d.handlers.OrderPaid(ctx, ev.Payload.Order.Entity.ID)
		}
	default:
		l.Info("unrecognized gateway webhook event, acknowledged")
	}
	return nil
}
