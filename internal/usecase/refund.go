package usecase

import (
	"context"
	"fmt"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
)

// RefundInput identifies the cancelled order to refund.
type RefundInput struct {
	OrderNumber string
	Reason      string
	UserID      string
}

type RefundOutput struct {
	Attempted bool
	Info      *domain.RefundInfo
	Message   string
}

// RefundEngine decides refund eligibility and drives the gateway to execute
// it. A refund is attempted at most once successfully per order.
type RefundEngine struct {
	orders  OrderRepo
	gateway PaymentGateway
	idem    IdempotencyStore
}

func NewRefundEngine(orders OrderRepo, gateway PaymentGateway, idem IdempotencyStore) *RefundEngine {
	return &RefundEngine{orders: orders, gateway: gateway, idem: idem}
}

// Receipt derives the gateway idempotency key from the order number, so a
// retried call is recognized as a duplicate by the gateway rather than
// double-refunding.
func Receipt(orderNumber string) string {
	return "rcpt_" + orderNumber
}

// ProcessOrderCancellationRefund runs the refund flow for a cancelled order.
// COD orders and already-processed refunds are success no-ops.
func (e *RefundEngine) ProcessOrderCancellationRefund(ctx context.Context, in RefundInput) (RefundOutput, error) {
	l := logging.FromCtx(ctx).With("order", in.OrderNumber)

	order, err := e.orders.GetByNumber(ctx, in.OrderNumber)
	if err != nil {
		return RefundOutput{}, err
	}

	if order.PaymentOption == domain.PayCashOnDelivery {
		return RefundOutput{Message: "cash on delivery order, no payment captured"}, nil
	}
	if order.RefundSucceeded() {
		return RefundOutput{Info: order.Refund, Message: "refund already processed"}, nil
	}
	if order.Payment == nil || order.Payment.GatewayPaymentID == "" || order.PaymentStatus != domain.PaymentPaid {
		return RefundOutput{Message: "no captured payment to refund"}, nil
	}

	// Local guard on top of the gateway receipt: a second concurrent
	// cancellation skips the gateway call entirely.
	locked, err := e.idem.TryLock(ctx, "refund", in.OrderNumber)
	if err != nil {
		l.Warn("refund idempotency lock unavailable, relying on gateway receipt", "err", err)
	} else if !locked {
		if order.Refund != nil {
			return RefundOutput{Info: order.Refund, Message: "refund already in progress"}, nil
		}
		return RefundOutput{Message: "refund already in progress"}, nil
	}

	info := &domain.RefundInfo{
		AmountCents: order.AmountCents,
		Reason:      in.Reason,
		Receipt:     Receipt(in.OrderNumber),
		InitiatedAt: time.Now().UTC(),
	}

	res, err := e.gateway.CreateRefund(ctx, order.Payment.GatewayPaymentID, order.AmountCents, info.Receipt, map[string]string{
		"order_number": in.OrderNumber,
		"reason":       in.Reason,
	})
	if err != nil || !res.Success {
		info.Status = domain.RefundFailed
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Error = res.Message
		}
		if perr := e.orders.SetRefundInfo(ctx, in.OrderNumber, info); perr != nil {
			l.Error("persist failed refund info", "err", perr)
		}
		return RefundOutput{Attempted: true, Info: info, Message: "refund failed: " + info.Error},
			fmt.Errorf("gateway refund: %s", info.Error)
	}

	info.RefundID = res.RefundID
	switch res.Status {
	case "processed":
		now := time.Now().UTC()
		info.Status = domain.RefundProcessed
		info.CompletedAt = &now
	case "pending":
		info.Status = domain.RefundPending
	default:
		// Gateway answered success with a vocabulary we don't know; park it
		// for an operator instead of guessing.
		l.Warn("unrecognized gateway refund status", "status", res.Status)
		info.Status = domain.RefundManualReview
	}

	if err := e.orders.SetRefundInfo(ctx, in.OrderNumber, info); err != nil {
		l.Error("persist refund info", "err", err, "refund_id", info.RefundID)
	}
	if info.Status == domain.RefundProcessed {
		if err := e.orders.SetPaymentStatus(ctx, in.OrderNumber, domain.PaymentRefunded); err != nil {
			l.Error("persist payment status", "err", err)
		}
	}

	return RefundOutput{Attempted: true, Info: info, Message: "refund " + string(info.Status)}, nil
}
