package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[string]*domain.Order{}}
	for _, o := range orders {
		r.orders[o.OrderNumber] = o
	}
	return r
}

func (r *fakeOrderRepo) GetByNumber(_ context.Context, n string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[n]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByCarrierOrderID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Shipping != nil && o.Shipping.CarrierOrderID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *fakeOrderRepo) GetByShipmentID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Shipping != nil && o.Shipping.ShipmentID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *fakeOrderRepo) GetByGatewayOrderID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Payment != nil && o.Payment.GatewayOrderID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *fakeOrderRepo) UpdateStatusIf(_ context.Context, n string, from []domain.Status, to domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[n]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if o.Status == f {
			o.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) SetPaymentVerified(_ context.Context, n string, info domain.PaymentInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[n]
	if !ok {
		return ErrOrderNotFound
	}
	o.Payment = &info
	o.PaymentStatus = domain.PaymentPaid
	return nil
}

func (r *fakeOrderRepo) SetPaymentStatus(_ context.Context, n string, s domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[n]
	if !ok {
		return ErrOrderNotFound
	}
	o.PaymentStatus = s
	return nil
}

func (r *fakeOrderRepo) SetRefundInfo(_ context.Context, n string, info *domain.RefundInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[n]
	if !ok {
		return ErrOrderNotFound
	}
	o.Refund = info
	return nil
}

func (r *fakeOrderRepo) SetShippingInfo(_ context.Context, n string, info *domain.ShippingInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[n]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Shipping != nil {
		return errors.New("shipping already set")
	}
	o.Shipping = info
	return nil
}

func (r *fakeOrderRepo) UpdateShipping(_ context.Context, n string, info *domain.ShippingInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[n]
	if !ok {
		return ErrOrderNotFound
	}
	o.Shipping = info
	return nil
}

func (r *fakeOrderRepo) get(n string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[n]
}

type fakeUserRepo struct{ users map[string]*domain.User }

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) ListInactiveSince(_ context.Context, cutoff time.Time) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.LastActiveAt.Before(cutoff) {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeVendorRepo struct {
	vendors map[string]*domain.Vendor
	cached  map[string]string
}

func (r *fakeVendorRepo) GetByID(_ context.Context, id string) (*domain.Vendor, error) {
	v, ok := r.vendors[id]
	if !ok {
		return nil, ErrVendorNotFound
	}
	return v, nil
}

func (r *fakeVendorRepo) SetPickupLocation(_ context.Context, id, loc string) error {
	if r.cached == nil {
		r.cached = map[string]string{}
	}
	r.cached[id] = loc
	if v, ok := r.vendors[id]; ok {
		v.PickupLocation = loc
		v.PickupLocationAdded = true
	}
	return nil
}

type fakeGateway struct {
	refundCalls int
	refundRes   RefundResult
	refundErr   error
	secret      string
}

func (g *fakeGateway) CreateRefund(_ context.Context, _ string, _ int64, _ string, _ map[string]string) (RefundResult, error) {
	g.refundCalls++
	return g.refundRes, g.refundErr
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, sig string) bool {
	return sig == "sig:"+orderID+"|"+paymentID
}

type fakeCarrier struct {
	pickupErr     error
	pickupCalls   []PickupLocationRequest
	shipmentRes   CarrierShipmentResult
	shipmentErr   error
	shipmentCalls []CarrierShipmentRequest
	tracking      CarrierTracking
	shipmentOrder map[string]string
}

func (c *fakeCarrier) CreateShipment(_ context.Context, req CarrierShipmentRequest) (CarrierShipmentResult, error) {
	c.shipmentCalls = append(c.shipmentCalls, req)
	return c.shipmentRes, c.shipmentErr
}

func (c *fakeCarrier) CreatePickupLocation(_ context.Context, req PickupLocationRequest) error {
	c.pickupCalls = append(c.pickupCalls, req)
	return c.pickupErr
}

func (c *fakeCarrier) Track(_ context.Context, _ string) (CarrierTracking, error) {
	return c.tracking, nil
}

func (c *fakeCarrier) OrderIDForShipment(_ context.Context, id string) (string, error) {
	if o, ok := c.shipmentOrder[id]; ok {
		return o, nil
	}
	return "", ErrOrderNotFound
}

type fakeQueue struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (q *fakeQueue) Enqueue(_ context.Context, ev NotificationEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
	return nil
}

func (q *fakeQueue) byName(name string) []NotificationEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []NotificationEvent
	for _, ev := range q.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

type fakePublisher struct{ msgs []StatusChangedMsg }

func (p *fakePublisher) PublishStatusChanged(_ context.Context, m StatusChangedMsg) error {
	p.msgs = append(p.msgs, m)
	return nil
}

type fakeCache struct{ statuses map[string]string }

func (c *fakeCache) SetStatus(_ context.Context, n, s string) error {
	if c.statuses == nil {
		c.statuses = map[string]string{}
	}
	c.statuses[n] = s
	return nil
}

func (c *fakeCache) GetStatus(_ context.Context, n string) (string, error) {
	return c.statuses[n], nil
}

type fakeIdem struct {
	mu    sync.Mutex
	locks map[string]bool
	vals  map[string]string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{locks: map[string]bool{}, vals: map[string]string{}}
}

func (s *fakeIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope + ":" + key
	if s.locks[k] {
		return false, nil
	}
	s.locks[k] = true
	return true, nil
}

func (s *fakeIdem) Remember(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[scope+":"+key] = value
	return nil
}

func (s *fakeIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vals[scope+":"+key]
	return v, ok, nil
}
