package usecase

import (
	"context"
	"testing"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
)

func refundFixture(o *domain.Order, res RefundResult) (*RefundEngine, *fakeOrderRepo, *fakeGateway) {
	repo := newFakeOrderRepo(o)
	gw := &fakeGateway{refundRes: res}
	return NewRefundEngine(repo, gw, newFakeIdem()), repo, gw
}

func TestRefund_AlreadyProcessedIsNoOp(t *testing.T) {
	o := paidOrder("ORD-2001")
	o.Refund = &domain.RefundInfo{RefundID: "rfnd_old", Status: domain.RefundProcessed}
	eng, _, gw := refundFixture(o, RefundResult{Success: true, RefundID: "rfnd_new", Status: "processed"})

	out, err := eng.ProcessOrderCancellationRefund(context.Background(), RefundInput{OrderNumber: "ORD-2001"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if out.Attempted {
		t.Fatal("refund attempted on already-processed order")
	}
	if gw.refundCalls != 0 {
		t.Fatalf("gateway calls = %d, want 0", gw.refundCalls)
	}
	if out.Info.RefundID != "rfnd_old" {
		t.Fatalf("refund id = %q, original must be kept", out.Info.RefundID)
	}
}

func TestRefund_PendingSettlement(t *testing.T) {
	eng, repo, _ := refundFixture(paidOrder("ORD-2002"), RefundResult{Success: true, RefundID: "rfnd_2", Status: "pending"})

	out, err := eng.ProcessOrderCancellationRefund(context.Background(), RefundInput{OrderNumber: "ORD-2002"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if out.Info.Status != domain.RefundPending {
		t.Fatalf("status = %s, want pending", out.Info.Status)
	}
	if out.Info.CompletedAt != nil {
		t.Fatal("pending refund must not have completion timestamp")
	}
	// Payment stays "paid" until the gateway confirms settlement.
	if got := repo.get("ORD-2002"); got.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("payment status = %s", got.PaymentStatus)
	}
}

func TestRefund_UnknownGatewayStatusGoesToManualReview(t *testing.T) {
	eng, _, _ := refundFixture(paidOrder("ORD-2003"), RefundResult{Success: true, RefundID: "rfnd_3", Status: "splendid"})

	out, err := eng.ProcessOrderCancellationRefund(context.Background(), RefundInput{OrderNumber: "ORD-2003"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if out.Info.Status != domain.RefundManualReview {
		t.Fatalf("status = %s, want manual_review", out.Info.Status)
	}
}

func TestRefund_ProcessedMarksPaymentRefunded(t *testing.T) {
	eng, repo, _ := refundFixture(paidOrder("ORD-2004"), RefundResult{Success: true, RefundID: "rfnd_4", Status: "processed"})

	if _, err := eng.ProcessOrderCancellationRefund(context.Background(), RefundInput{OrderNumber: "ORD-2004"}); err != nil {
		t.Fatalf("refund: %v", err)
	}
	got := repo.get("ORD-2004")
	if got.PaymentStatus != domain.PaymentRefunded {
		t.Fatalf("payment status = %s, want refunded", got.PaymentStatus)
	}
	if got.Refund.AmountCents != 249900 {
		t.Fatalf("refund amount = %d, want full total", got.Refund.AmountCents)
	}
}

func TestRefund_ConcurrentSecondCallSkipsGateway(t *testing.T) {
	o := paidOrder("ORD-2005")
	repo := newFakeOrderRepo(o)
	gw := &fakeGateway{refundRes: RefundResult{Success: true, RefundID: "rfnd_5", Status: "processed"}}
	idem := newFakeIdem()
	eng := NewRefundEngine(repo, gw, idem)

	// Simulate the lock already held by an in-flight refund.
	if ok, _ := idem.TryLock(context.Background(), "refund", "ORD-2005"); !ok {
		t.Fatal("setup lock failed")
	}
	out, err := eng.ProcessOrderCancellationRefund(context.Background(), RefundInput{OrderNumber: "ORD-2005"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if out.Attempted || gw.refundCalls != 0 {
		t.Fatalf("gateway called while refund in flight (calls=%d)", gw.refundCalls)
	}
}
