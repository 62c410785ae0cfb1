package usecase

import (
	"context"
	"errors"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrAddressNotFound = errors.New("address not found")
	ErrVendorNotFound  = errors.New("vendor not found")
	ErrConflict        = errors.New("concurrent update conflict")
)

type OrderRepo interface {
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	GetByCarrierOrderID(ctx context.Context, carrierOrderID string) (*domain.Order, error)
	GetByShipmentID(ctx context.Context, shipmentID string) (*domain.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error)

	// UpdateStatusIf performs a compare-and-set transition: the write only
	// lands if the currently-persisted status is one of from. Returns false
	// (no error) when nothing matched.
	UpdateStatusIf(ctx context.Context, orderNumber string, from []domain.Status, to domain.Status) (bool, error)

	SetPaymentVerified(ctx context.Context, orderNumber string, info domain.PaymentInfo) error
	SetPaymentStatus(ctx context.Context, orderNumber string, status domain.PaymentStatus) error
	SetRefundInfo(ctx context.Context, orderNumber string, info *domain.RefundInfo) error

	// SetShippingInfo is the one-time writer of the shipping block; it only
	// succeeds when no shipping block exists yet.
	SetShippingInfo(ctx context.Context, orderNumber string, info *domain.ShippingInfo) error
	// UpdateShipping replaces the shipping block; reserved for the
	// webhook-reconciliation and tracking paths.
	UpdateShipping(ctx context.Context, orderNumber string, info *domain.ShippingInfo) error
}

type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]domain.User, error)
}

type VendorRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Vendor, error)
	SetPickupLocation(ctx context.Context, vendorID, location string) error
}

// RefundResult is the gateway's answer to a refund request. Status is
// "processed" for synchronous settlement or "pending" when the gateway
// settles asynchronously.
type RefundResult struct {
	Success  bool
	Message  string
	RefundID string
	Status   string
}

type PaymentGateway interface {
	// CreateRefund issues a refund for the captured payment. receipt is a
	// deterministic idempotency key; the gateway deduplicates on it.
	CreateRefund(ctx context.Context, paymentID string, amountCents int64, receipt string, notes map[string]string) (RefundResult, error)
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// PickupLocationRequest registers a named physical address with the carrier.
type PickupLocationRequest struct {
	Name     string
	Contact  string
	Email    string
	Phone    string
	Address  string
	City     string
	State    string
	PinCode  string
	Country  string
}

type CarrierShipmentRequest struct {
	OrderNumber    string
	OrderDate      time.Time
	PickupLocation string
	BillingName    string
	BillingPhone   string
	BillingEmail   string
	Address        domain.Address
	Items          []domain.Item
	SubTotalCents  int64
}

type CarrierShipmentResult struct {
	Success        bool
	Message        string
	CarrierOrderID string
	ShipmentID     string
	AWBCode        string
	Courier        string
	RawStatus      string
}

// CarrierActivity is one tracking scan as reported by the carrier.
type CarrierActivity struct {
	Status   string
	Activity string
	Location string
	Date     time.Time
}

type CarrierTracking struct {
	RawStatus  string
	ETA        string
	Activities []CarrierActivity
}

type Carrier interface {
	CreateShipment(ctx context.Context, req CarrierShipmentRequest) (CarrierShipmentResult, error)
	CreatePickupLocation(ctx context.Context, req PickupLocationRequest) error
	Track(ctx context.Context, carrierOrderID string) (CarrierTracking, error)
	// OrderIDForShipment recovers the carrier order id linked to a shipment
	// id; the carrier's tracking endpoint is keyed by order id.
	OrderIDForShipment(ctx context.Context, shipmentID string) (string, error)
}

// NotificationQueue is the durable fan-out for transactional messages.
// Enqueue is fire-and-forget from the caller's perspective: errors are the
// caller's to log, never to propagate.
type NotificationQueue interface {
	Enqueue(ctx context.Context, ev NotificationEvent) error
}

// StatusPublisher broadcasts committed transitions to downstream services.
type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, msg StatusChangedMsg) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderNumber string, status string) error
	GetStatus(ctx context.Context, orderNumber string) (string, error)
}
