package notify

import (
	"fmt"

	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

type rendered struct {
	Subject string
	Body    string
}

type renderFunc func(ev usecase.NotificationEvent) rendered

var templates = map[string]renderFunc{
	usecase.EventOrderConfirmed: func(ev usecase.NotificationEvent) rendered {
		return rendered{
			Subject: fmt.Sprintf("Order %s confirmed", ev.OrderNumber),
			Body:    fmt.Sprintf("Your payment was received and order %s is now being processed.", ev.OrderNumber),
		}
	},
	usecase.EventOrderCancelled: func(ev usecase.NotificationEvent) rendered {
		body := fmt.Sprintf("Your order %s has been cancelled.", ev.OrderNumber)
		if r := ev.Data["reason"]; r != "" {
			body += " Reason: " + r
		}
		return rendered{Subject: fmt.Sprintf("Order %s cancelled", ev.OrderNumber), Body: body}
	},
	usecase.EventOrderShipped: func(ev usecase.NotificationEvent) rendered {
		return rendered{
			Subject: fmt.Sprintf("Order %s shipped", ev.OrderNumber),
			Body:    fmt.Sprintf("Order %s is on its way. Tracking number: %s.", ev.OrderNumber, ev.Data["awb"]),
		}
	},
	usecase.EventOrderOutForDelivery: func(ev usecase.NotificationEvent) rendered {
		return rendered{
			Subject: fmt.Sprintf("Order %s out for delivery", ev.OrderNumber),
			Body:    fmt.Sprintf("Order %s is out for delivery and should arrive today.", ev.OrderNumber),
		}
	},
	usecase.EventOrderDelivered: func(ev usecase.NotificationEvent) rendered {
		return rendered{
			Subject: fmt.Sprintf("Order %s delivered", ev.OrderNumber),
			Body:    fmt.Sprintf("Order %s was delivered. Thank you for shopping with us.", ev.OrderNumber),
		}
	},
	usecase.EventRefundProcessed: func(ev usecase.NotificationEvent) rendered {
		return rendered{
			Subject: fmt.Sprintf("Refund for order %s processed", ev.OrderNumber),
			Body: fmt.Sprintf("A refund of %s for order %s has been processed (reference %s). It should reflect in your account within 5-7 business days.",
				ev.Data["amount"], ev.OrderNumber, ev.Data["refundId"]),
		}
	},
	usecase.EventRefundPending: func(ev usecase.NotificationEvent) rendered {
		return rendered{
			Subject: fmt.Sprintf("Refund for order %s initiated", ev.OrderNumber),
			Body: fmt.Sprintf("A refund of %s for order %s has been initiated and is awaiting settlement by the payment provider.",
				ev.Data["amount"], ev.OrderNumber),
		}
	},
	usecase.EventRefundManualReview: func(ev usecase.NotificationEvent) rendered {
		return rendered{
			Subject: fmt.Sprintf("Refund for order %s under review", ev.OrderNumber),
			Body: fmt.Sprintf("The refund for order %s needs a manual check by our team. We will update you once it is resolved.",
				ev.OrderNumber),
		}
	},
	usecase.EventRefundFailed: func(ev usecase.NotificationEvent) rendered {
		return rendered{
			Subject: fmt.Sprintf("Refund for order %s needs attention", ev.OrderNumber),
			Body: fmt.Sprintf("We could not process the refund for order %s automatically. Our support team has been notified and will follow up.",
				ev.OrderNumber),
		}
	},
	usecase.EventShippingUpdate: func(ev usecase.NotificationEvent) rendered {
		return rendered{
			Subject: fmt.Sprintf("Shipping update for order %s", ev.OrderNumber),
			Body:    fmt.Sprintf("Order %s has a new shipping status: %s.", ev.OrderNumber, ev.Data["status"]),
		}
	},
	usecase.EventWeMissYou: func(ev usecase.NotificationEvent) rendered {
		name := ev.Data["name"]
		if name == "" {
			name = "there"
		}
		return rendered{
			Subject: "We miss you!",
			Body:    fmt.Sprintf("Hi %s, it has been a while since your last visit. Come back and see what is new.", name),
		}
	},
}

// Render resolves the template for an event. Unknown names return false so
// the consumer can ack and drop instead of requeueing forever.
func Render(ev usecase.NotificationEvent) (rendered, bool) {
	fn, ok := templates[ev.Name]
	if !ok {
		return rendered{}, false
	}
	return fn(ev), true
}
