package usecase

import (
	"context"
	"strings"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
)

// CarrierEvent is the normalized shape of an inbound carrier webhook.
type CarrierEvent struct {
	CarrierOrderID string
	AWBCode        string
	CurrentStatus  string
	Activity       string
	Location       string
	// OccurredAt is zero when the payload carried no parseable timestamp.
	OccurredAt time.Time
	// Digest fingerprints the raw payload; redelivered bodies share it.
	Digest string
}

// carrierStatusMap folds the carrier's free-text vocabulary into the
// internal enum. Unknown strings deliberately map to nothing: log-only.
var carrierStatusMap = map[string]domain.Status{
	"PICKED_UP":        domain.StatusShipped,
	"PICKED UP":        domain.StatusShipped,
	"SHIPPED":          domain.StatusShipped,
	"IN_TRANSIT":       domain.StatusShipped,
	"IN TRANSIT":       domain.StatusShipped,
	"OUT_FOR_DELIVERY": domain.StatusOutForDelivery,
	"OUT FOR DELIVERY": domain.StatusOutForDelivery,
	"DELIVERED":        domain.StatusDelivered,
	"RTO_INITIATED":    domain.StatusReturned,
	"RTO INITIATED":    domain.StatusReturned,
	"RTO_DELIVERED":    domain.StatusReturned,
	"RTO DELIVERED":    domain.StatusReturned,
}

// MapCarrierStatus resolves a raw carrier status string to the internal
// status, reporting false for unknown vocabulary.
func MapCarrierStatus(raw string) (domain.Status, bool) {
	s, ok := carrierStatusMap[strings.ToUpper(strings.TrimSpace(raw))]
	return s, ok
}

// ReconcileCarrier folds carrier webhook events back into order state.
// Replays are no-ops: history entries are deduplicated and boundary
// notifications fire once per crossing.
type ReconcileCarrier struct {
	orders OrderRepo
	users  UserRepo
	queue  NotificationQueue
	status StatusPublisher
	cache  OrderCache
	idem   IdempotencyStore
}

func NewReconcileCarrier(orders OrderRepo, users UserRepo, queue NotificationQueue, status StatusPublisher, cache OrderCache, idem IdempotencyStore) *ReconcileCarrier {
	return &ReconcileCarrier{orders: orders, users: users, queue: queue, status: status, cache: cache, idem: idem}
}

func (uc *ReconcileCarrier) Execute(ctx context.Context, ev CarrierEvent) error {
	l := logging.FromCtx(ctx).With("carrier_order", ev.CarrierOrderID, "raw_status", ev.CurrentStatus)

	// Redelivered payloads are dropped on their body fingerprint before any
	// state is touched.
	if ev.Digest != "" && uc.idem != nil {
		fresh, err := uc.idem.TryLock(ctx, "carrier-event", ev.Digest)
		if err == nil && !fresh {
			l.Info("replayed carrier event, skipping")
			return nil
		}
	}

	order, err := uc.orders.GetByCarrierOrderID(ctx, ev.CarrierOrderID)
	if err != nil {
		return err
	}
	if order.Shipping == nil {
		l.Warn("carrier event for order without shipping block, ignoring")
		return nil
	}

	histEntry := domain.TrackingEvent{
		Status:   ev.CurrentStatus,
		Activity: ev.Activity,
		Location: ev.Location,
		Date:     ev.OccurredAt,
	}
	if !order.HasTrackingEvent(histEntry) {
		order.Shipping.History = append(order.Shipping.History, histEntry)
	}
	order.Shipping.RawStatus = ev.CurrentStatus
	if ev.AWBCode != "" {
		order.Shipping.AWBCode = ev.AWBCode
	}
	order.Shipping.LastUpdate = time.Now().UTC()

	mapped, known := MapCarrierStatus(ev.CurrentStatus)
	if !known {
		l.Info("unmapped carrier status, history only")
		if err := uc.orders.UpdateShipping(ctx, order.OrderNumber, order.Shipping); err != nil {
			return err
		}
		return nil
	}

	switch mapped {
	case domain.StatusShipped:
		if order.Shipping.PickedUpAt == nil {
			now := ev.OccurredAt
			order.Shipping.PickedUpAt = &now
		}
	case domain.StatusDelivered:
		if order.Shipping.DeliveredAt == nil {
			now := ev.OccurredAt
			order.Shipping.DeliveredAt = &now
		}
	}
	if err := uc.orders.UpdateShipping(ctx, order.OrderNumber, order.Shipping); err != nil {
		return err
	}

	moved := uc.applyStatus(ctx, order, mapped)
	if moved {
		uc.notifyBoundary(ctx, order, mapped)
	}
	return nil
}

// applyStatus moves the order to mapped through the guarded entry point.
// Forward moves CAS on the current status; the returned-goods side exit is
// accepted from any shipped-or-later state.
func (uc *ReconcileCarrier) applyStatus(ctx context.Context, order *domain.Order, mapped domain.Status) bool {
	l := logging.FromCtx(ctx).With("order", order.OrderNumber)

	if mapped == order.Status {
		return false
	}

	var from []domain.Status
	switch {
	case mapped == domain.StatusReturned:
		from = []domain.Status{domain.StatusShipped, domain.StatusOutForDelivery, domain.StatusDelivered}
	case domain.Forward(order.Status, mapped):
		from = []domain.Status{order.Status}
	default:
		// Stale or out-of-order event; the status stays where it is.
		l.Info("carrier status would move order backwards, ignoring", "mapped", string(mapped))
		return false
	}

	ok, err := uc.orders.UpdateStatusIf(ctx, order.OrderNumber, from, mapped)
	if err != nil {
		l.Error("guarded status update failed", "err", err)
		return false
	}
	if !ok {
		return false
	}

	prev := order.Status
	order.Status = mapped
	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, order.OrderNumber, string(mapped))
	}
	if uc.status != nil {
		_ = uc.status.PublishStatusChanged(ctx, StatusChangedMsg{
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			From:        string(prev),
			To:          string(mapped),
			At:          time.Now().UTC().Format(time.RFC3339),
		})
	}
	return true
}

// notifyBoundary enqueues the boundary notification at most once per
// order+status, guarded by the idempotency store.
func (uc *ReconcileCarrier) notifyBoundary(ctx context.Context, order *domain.Order, mapped domain.Status) {
	l := logging.FromCtx(ctx).With("order", order.OrderNumber)

	user, err := uc.users.GetByID(ctx, order.UserID)
	if err != nil {
		l.Warn("notification target lookup failed", "err", err)
		return
	}
	ev, ok := ShippingEvent(order.OrderNumber, user.Email, mapped, order.Shipping.AWBCode)
	if !ok {
		return
	}
	if uc.idem != nil {
		locked, err := uc.idem.TryLock(ctx, "notify:"+string(mapped), order.OrderNumber)
		if err == nil && !locked {
			return
		}
	}
	if err := uc.queue.Enqueue(ctx, ev); err != nil {
		l.Warn("enqueue shipping notification failed", "err", err)
	}
}
