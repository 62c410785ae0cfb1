package domain

import (
	"errors"
	"time"
)

type Status string

const (
	StatusUnconfirmed    Status = "unconfirmed"
	StatusProcessing     Status = "processing"
	StatusReadyToShip    Status = "ready_to_ship"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusReturned       Status = "returned"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentOption string

const (
	PayRazorpay       PaymentOption = "razorpay"
	PayCashOnDelivery PaymentOption = "cash-on-delivery"
)

type RefundStatus string

const (
	RefundPending      RefundStatus = "pending"
	RefundProcessed    RefundStatus = "processed"
	RefundFailed       RefundStatus = "failed"
	RefundManualReview RefundStatus = "manual_review"
)

var (
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrNotOwner          = errors.New("order does not belong to user")
)

// rank orders the forward path so webhook reconciliation can refuse to move
// an order backwards on stale or replayed events.
var rank = map[Status]int{
	StatusUnconfirmed:    0,
	StatusProcessing:     1,
	StatusReadyToShip:    2,
	StatusShipped:        3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
}

// Forward reports whether moving from to next advances along the forward
// path. Terminal side-exits (cancelled, returned) are not forward moves.
func Forward(from, to Status) bool {
	rf, okf := rank[from]
	rt, okt := rank[to]
	return okf && okt && rt > rf
}

// Item is an immutable snapshot taken when the order was placed.
type Item struct {
	ProductID  string `json:"productId"`
	VendorID   string `json:"vendorId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
	Size       string `json:"size,omitempty"`
}

// PaymentInfo is populated only after successful signature verification.
type PaymentInfo struct {
	GatewayOrderID   string    `json:"gatewayOrderId"`
	GatewayPaymentID string    `json:"gatewayPaymentId"`
	VerifiedAt       time.Time `json:"verifiedAt"`
}

type RefundInfo struct {
	RefundID    string       `json:"refundId,omitempty"`
	AmountCents int64        `json:"amountCents"`
	Status      RefundStatus `json:"status"`
	Reason      string       `json:"reason,omitempty"`
	Receipt     string       `json:"receipt"`
	InitiatedAt time.Time    `json:"initiatedAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// TrackingEvent is one entry in the append-only shipping history.
type TrackingEvent struct {
	Status   string    `json:"status"`
	Activity string    `json:"activity"`
	Location string    `json:"location"`
	Date     time.Time `json:"date"`
}

// ShippingInfo is written once by shipment creation, then mutated only by
// webhook reconciliation.
type ShippingInfo struct {
	CarrierOrderID string          `json:"carrierOrderId"`
	ShipmentID     string          `json:"shipmentId"`
	AWBCode        string          `json:"awbCode,omitempty"`
	Courier        string          `json:"courier,omitempty"`
	RawStatus      string          `json:"rawStatus,omitempty"`
	ETA            string          `json:"eta,omitempty"`
	PickedUpAt     *time.Time      `json:"pickedUpAt,omitempty"`
	DeliveredAt    *time.Time      `json:"deliveredAt,omitempty"`
	History        []TrackingEvent `json:"history,omitempty"`
	LastUpdate     time.Time       `json:"lastUpdate"`
}

// Order is the aggregate root. ID is the storage key; OrderNumber is the
// human-readable identifier exposed to customers and external systems.
type Order struct {
	ID            string
	OrderNumber   string
	UserID        string
	AddressID     string
	Status        Status
	PaymentStatus PaymentStatus
	PaymentOption PaymentOption
	AmountCents   int64
	Currency      string
	Items         []Item
	Payment       *PaymentInfo
	Refund        *RefundInfo
	Shipping      *ShippingInfo
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PrimaryVendorID returns the vendor of the first item. Multi-vendor orders
// ship from the first vendor's pickup location.
func (o *Order) PrimaryVendorID() string {
	if len(o.Items) == 0 {
		return ""
	}
	return o.Items[0].VendorID
}

// cancelBlockMessages gives a distinct customer-facing reason per blocking
// status. ready_to_ship is a hard cutoff: the package is already prepared.
var cancelBlockMessages = map[Status]string{
	StatusReadyToShip:    "order is ready to ship and can no longer be cancelled, please contact support",
	StatusShipped:        "order has already been shipped and cannot be cancelled",
	StatusOutForDelivery: "order is out for delivery and cannot be cancelled",
	StatusDelivered:      "order has been delivered and cannot be cancelled, please use returns",
	StatusCancelled:      "order is already cancelled",
	StatusReturned:       "order has been returned and cannot be cancelled",
}

// CancelBlockReason returns a non-empty message when the order's current
// status forbids customer cancellation.
func (o *Order) CancelBlockReason() (string, bool) {
	msg, blocked := cancelBlockMessages[o.Status]
	return msg, blocked
}

// Cancellable statuses: everything before the ready_to_ship cutoff.
func (o *Order) Cancellable() bool {
	_, blocked := o.CancelBlockReason()
	return !blocked
}

// RefundSucceeded reports whether a refund already went through for this
// order. Repeated cancellations must not refund twice.
func (o *Order) RefundSucceeded() bool {
	return o.Refund != nil && o.Refund.Status == RefundProcessed
}

// HasTrackingEvent reports whether an identical history entry was already
// recorded. Used to keep webhook replays from duplicating history.
func (o *Order) HasTrackingEvent(ev TrackingEvent) bool {
	if o.Shipping == nil {
		return false
	}
	for _, h := range o.Shipping.History {
		if h.Status == ev.Status && h.Date.Equal(ev.Date) {
			return true
		}
	}
	return false
}
