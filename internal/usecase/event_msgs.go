package usecase

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
)

// Stable event names; each name has a fixed payload shape built by the
// constructors below. The notification consumer routes on Name.
const (
	EventOrderConfirmed      = "order confirmed"
	EventOrderCancelled      = "order cancelled"
	EventOrderShipped        = "order shipped"
	EventOrderOutForDelivery = "order out for delivery"
	EventOrderDelivered      = "order delivered"
	EventRefundProcessed     = "refund processed"
	EventRefundPending       = "refund pending"
	EventRefundManualReview  = "refund manual review"
	EventRefundFailed        = "refund failed"
	EventShippingUpdate      = "shipping status changed"
	EventWeMissYou           = "we miss you"
)

// NotificationEvent is the job payload put on the notifications exchange.
type NotificationEvent struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	OrderNumber string            `json:"orderNumber,omitempty"`
	Email       string            `json:"email"`
	Data        map[string]string `json:"data,omitempty"`
	At          time.Time         `json:"at"`
}

func newEvent(name, orderNumber, email string, data map[string]string) NotificationEvent {
	return NotificationEvent{
		ID:          uuid.NewString(),
		Name:        name,
		OrderNumber: orderNumber,
		Email:       email,
		Data:        data,
		At:          time.Now().UTC(),
	}
}

func CancelledEvent(orderNumber, email, reason string) NotificationEvent {
	return newEvent(EventOrderCancelled, orderNumber, email, map[string]string{"reason": reason})
}

func ConfirmedEvent(orderNumber, email string) NotificationEvent {
	return newEvent(EventOrderConfirmed, orderNumber, email, nil)
}

// refundEventNames maps every refund outcome to exactly one template.
var refundEventNames = map[domain.RefundStatus]string{
	domain.RefundProcessed:    EventRefundProcessed,
	domain.RefundPending:      EventRefundPending,
	domain.RefundManualReview: EventRefundManualReview,
	domain.RefundFailed:       EventRefundFailed,
}

func RefundEvent(orderNumber, email string, info *domain.RefundInfo) NotificationEvent {
	name := refundEventNames[info.Status]
	return newEvent(name, orderNumber, email, map[string]string{
		"refundId": info.RefundID,
		"amount":   formatAmountCents(info.AmountCents),
	})
}

// shippingEventNames: notification-worthy boundary crossings.
var shippingEventNames = map[domain.Status]string{
	domain.StatusShipped:        EventOrderShipped,
	domain.StatusOutForDelivery: EventOrderOutForDelivery,
	domain.StatusDelivered:      EventOrderDelivered,
}

// ShippingEvent returns the boundary event for status, or false when the
// status is not a notification boundary.
func ShippingEvent(orderNumber, email string, status domain.Status, awb string) (NotificationEvent, bool) {
	name, ok := shippingEventNames[status]
	if !ok {
		return NotificationEvent{}, false
	}
	return newEvent(name, orderNumber, email, map[string]string{"awb": awb}), true
}

func WeMissYouEvent(email, userName string) NotificationEvent {
	return newEvent(EventWeMissYou, "", email, map[string]string{"name": userName})
}

func formatAmountCents(cents int64) string {
	return strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
}

// StatusChangedMsg is published to Kafka on every committed transition.
type StatusChangedMsg struct {
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId"`
	From        string `json:"from"`
	To          string `json:"to"`
	At          string `json:"at"`
}
