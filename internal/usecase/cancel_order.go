package usecase

import (
	"context"
	"fmt"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
)

type CancelOrderInput struct {
	OrderNumber string
	ActorUserID string
	Reason      string
}

type CancelOrderOutput struct {
	OrderNumber string
	Status      domain.Status
	RefundInfo  *domain.RefundInfo
	Message     string
}

// CancelOrder validates and persists the cancellation, then runs the refund
// and notification side effects. The cancellation commits independently of
// the side effects: a failed refund never rolls the status back.
type CancelOrder struct {
	orders OrderRepo
	users  UserRepo
	refund *RefundEngine
	queue  NotificationQueue
	status StatusPublisher
	cache  OrderCache
}

func NewCancelOrder(orders OrderRepo, users UserRepo, refund *RefundEngine, queue NotificationQueue, status StatusPublisher, cache OrderCache) *CancelOrder {
	return &CancelOrder{orders: orders, users: users, refund: refund, queue: queue, status: status, cache: cache}
}

// cancellableFrom are the statuses the CAS write accepts as the previous
// value; everything past ready_to_ship is blocked before the write.
var cancellableFrom = []domain.Status{domain.StatusUnconfirmed, domain.StatusProcessing}

func (uc *CancelOrder) Execute(ctx context.Context, in CancelOrderInput) (CancelOrderOutput, error) {
	l := logging.FromCtx(ctx).With("order", in.OrderNumber)

	order, err := uc.orders.GetByNumber(ctx, in.OrderNumber)
	if err != nil {
		return CancelOrderOutput{}, err
	}
	if order.UserID != in.ActorUserID {
		return CancelOrderOutput{}, domain.ErrNotOwner
	}
	if msg, blocked := order.CancelBlockReason(); blocked {
		return CancelOrderOutput{}, fmt.Errorf("%w: %s", domain.ErrInvalidTransition, msg)
	}

	// Guarded transition: only lands if the persisted status is still
	// cancellable at write time. A concurrent webhook or second cancel that
	// moved the order first makes this a no-op.
	ok, err := uc.orders.UpdateStatusIf(ctx, in.OrderNumber, cancellableFrom, domain.StatusCancelled)
	if err != nil {
		return CancelOrderOutput{}, err
	}
	if !ok {
		// Re-read to produce a precise reason.
		cur, rerr := uc.orders.GetByNumber(ctx, in.OrderNumber)
		if rerr != nil {
			return CancelOrderOutput{}, rerr
		}
		if msg, blocked := cur.CancelBlockReason(); blocked {
			return CancelOrderOutput{}, fmt.Errorf("%w: %s", domain.ErrInvalidTransition, msg)
		}
		return CancelOrderOutput{}, ErrConflict
	}

	prev := order.Status
	order.Status = domain.StatusCancelled
	uc.afterCommit(ctx, order, prev)

	out := CancelOrderOutput{
		OrderNumber: in.OrderNumber,
		Status:      domain.StatusCancelled,
		Message:     "order cancelled",
	}

	// Refund outcome is merged into the response when available; a failure
	// is a warning here, never a reason to fail the cancellation.
	refundOut, rerr := uc.refund.ProcessOrderCancellationRefund(ctx, RefundInput{
		OrderNumber: in.OrderNumber,
		Reason:      in.Reason,
		UserID:      in.ActorUserID,
	})
	if rerr != nil {
		l.Warn("refund during cancellation failed", "err", rerr)
	}
	out.RefundInfo = refundOut.Info
	if refundOut.Message != "" {
		out.Message = out.Message + "; " + refundOut.Message
	}

	uc.notify(ctx, order, in.Reason, refundOut)
	return out, nil
}

// afterCommit runs the best-effort bookkeeping every committed transition
// shares: status cache and the downstream status-changed event.
func (uc *CancelOrder) afterCommit(ctx context.Context, order *domain.Order, prev domain.Status) {
	l := logging.FromCtx(ctx).With("order", order.OrderNumber)
	if uc.cache != nil {
		if err := uc.cache.SetStatus(ctx, order.OrderNumber, string(order.Status)); err != nil {
			l.Warn("status cache write failed", "err", err)
		}
	}
	if uc.status != nil {
		err := uc.status.PublishStatusChanged(ctx, StatusChangedMsg{
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			From:        string(prev),
			To:          string(order.Status),
			At:          time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			l.Warn("status event publish failed", "err", err)
		}
	}
}

func (uc *CancelOrder) notify(ctx context.Context, order *domain.Order, reason string, refundOut RefundOutput) {
	l := logging.FromCtx(ctx).With("order", order.OrderNumber)
	user, err := uc.users.GetByID(ctx, order.UserID)
	if err != nil {
		l.Warn("notification target lookup failed", "err", err)
		return
	}
	if err := uc.queue.Enqueue(ctx, CancelledEvent(order.OrderNumber, user.Email, reason)); err != nil {
		l.Warn("enqueue cancellation notification failed", "err", err)
	}
	if refundOut.Info != nil {
		if err := uc.queue.Enqueue(ctx, RefundEvent(order.OrderNumber, user.Email, refundOut.Info)); err != nil {
			l.Warn("enqueue refund notification failed", "err", err)
		}
	}
}
