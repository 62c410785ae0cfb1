package usecase

import (
	"context"
	"errors"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
)

var ErrBadSignature = errors.New("payment signature verification failed")

type VerifyPaymentInput struct {
	OrderNumber      string
	ActorUserID      string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

type VerifyPaymentOutput struct {
	OrderNumber string
	Status      domain.Status
	Message     string
}

// VerifyPayment authenticates the checkout callback, stamps the payment info
// and confirms the order (unconfirmed -> processing).
type VerifyPayment struct {
	orders  OrderRepo
	users   UserRepo
	gateway PaymentGateway
	queue   NotificationQueue
	status  StatusPublisher
	cache   OrderCache
}

func NewVerifyPayment(orders OrderRepo, users UserRepo, gateway PaymentGateway, queue NotificationQueue, status StatusPublisher, cache OrderCache) *VerifyPayment {
	return &VerifyPayment{orders: orders, users: users, gateway: gateway, queue: queue, status: status, cache: cache}
}

func (uc *VerifyPayment) Execute(ctx context.Context, in VerifyPaymentInput) (VerifyPaymentOutput, error) {
	l := logging.FromCtx(ctx).With("order", in.OrderNumber)

	order, err := uc.orders.GetByNumber(ctx, in.OrderNumber)
	if err != nil {
		return VerifyPaymentOutput{}, err
	}
	if order.UserID != in.ActorUserID {
		return VerifyPaymentOutput{}, domain.ErrNotOwner
	}
	if order.PaymentStatus == domain.PaymentPaid {
		// Replayed callback: already verified, nothing to redo.
		return VerifyPaymentOutput{OrderNumber: in.OrderNumber, Status: order.Status, Message: "payment already verified"}, nil
	}

	if !uc.gateway.VerifyPaymentSignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		return VerifyPaymentOutput{}, ErrBadSignature
	}

	info := domain.PaymentInfo{
		GatewayOrderID:   in.GatewayOrderID,
		GatewayPaymentID: in.GatewayPaymentID,
		VerifiedAt:       time.Now().UTC(),
	}
	if err := uc.orders.SetPaymentVerified(ctx, in.OrderNumber, info); err != nil {
		return VerifyPaymentOutput{}, err
	}

	moved, err := uc.orders.UpdateStatusIf(ctx, in.OrderNumber, []domain.Status{domain.StatusUnconfirmed}, domain.StatusProcessing)
	if err != nil {
		l.Error("confirm transition failed", "err", err)
	}
	newStatus := order.Status
	if moved {
		newStatus = domain.StatusProcessing
		if uc.cache != nil {
			_ = uc.cache.SetStatus(ctx, in.OrderNumber, string(newStatus))
		}
		if uc.status != nil {
			_ = uc.status.PublishStatusChanged(ctx, StatusChangedMsg{
				OrderNumber: in.OrderNumber,
				UserID:      order.UserID,
				From:        string(domain.StatusUnconfirmed),
				To:          string(domain.StatusProcessing),
				At:          time.Now().UTC().Format(time.RFC3339),
			})
		}
		if user, uerr := uc.users.GetByID(ctx, order.UserID); uerr == nil {
			if qerr := uc.queue.Enqueue(ctx, ConfirmedEvent(in.OrderNumber, user.Email)); qerr != nil {
				l.Warn("enqueue confirmation notification failed", "err", qerr)
			}
		}
	}

	return VerifyPaymentOutput{OrderNumber: in.OrderNumber, Status: newStatus, Message: "payment verified"}, nil
}

// MarkPaidFromGateway reconciles a gateway webhook (payment.captured or
// order.paid) for orders whose browser callback was lost. Keyed by the
// gateway order id carried in the webhook payload.
func (uc *VerifyPayment) MarkPaidFromGateway(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error {
	l := logging.FromCtx(ctx).With("gateway_order", gatewayOrderID)

	order, err := uc.orders.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			l.Info("gateway webhook for unknown order, ignoring")
			return nil
		}
		return err
	}
	if order.PaymentStatus == domain.PaymentPaid {
		return nil
	}
	info := domain.PaymentInfo{
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
		VerifiedAt:       time.Now().UTC(),
	}
	if err := uc.orders.SetPaymentVerified(ctx, order.OrderNumber, info); err != nil {
		return err
	}
	if moved, _ := uc.orders.UpdateStatusIf(ctx, order.OrderNumber, []domain.Status{domain.StatusUnconfirmed}, domain.StatusProcessing); moved {
		if uc.cache != nil {
			_ = uc.cache.SetStatus(ctx, order.OrderNumber, string(domain.StatusProcessing))
		}
		if uc.status != nil {
			_ = uc.status.PublishStatusChanged(ctx, StatusChangedMsg{
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				From:        string(domain.StatusUnconfirmed),
				To:          string(domain.StatusProcessing),
				At:          time.Now().UTC().Format(time.RFC3339),
			})
		}
		if user, uerr := uc.users.GetByID(ctx, order.UserID); uerr == nil {
			_ = uc.queue.Enqueue(ctx, ConfirmedEvent(order.OrderNumber, user.Email))
		}
	}
	return nil
}

// MarkFailedFromGateway records a failed capture reported by webhook.
func (uc *VerifyPayment) MarkFailedFromGateway(ctx context.Context, gatewayOrderID string) error {
	order, err := uc.orders.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil
		}
		return err
	}
	if order.PaymentStatus == domain.PaymentPaid {
		// Capture already verified; a late failure event is stale.
		return nil
	}
	return uc.orders.SetPaymentStatus(ctx, order.OrderNumber, domain.PaymentFailed)
}
