package usecase

import (
	"context"
	"errors"
	"testing"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
)

func verifyFixture(orders ...*domain.Order) (*VerifyPayment, *fakeOrderRepo, *fakeQueue) {
	repo := newFakeOrderRepo(orders...)
	users := &fakeUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Email: "asha@example.com"},
	}}
	queue := &fakeQueue{}
	uc := NewVerifyPayment(repo, users, &fakeGateway{}, queue, &fakePublisher{}, &fakeCache{})
	return uc, repo, queue
}

func unconfirmedOrder(number string) *domain.Order {
	o := paidOrder(number)
	o.Status = domain.StatusUnconfirmed
	o.PaymentStatus = domain.PaymentPending
	o.Payment = nil
	return o
}

func TestVerifyPayment_ConfirmsOrder(t *testing.T) {
	uc, repo, queue := verifyFixture(unconfirmedOrder("ORD-7001"))

	out, err := uc.Execute(context.Background(), VerifyPaymentInput{
		OrderNumber:      "ORD-7001",
		ActorUserID:      "user-1",
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_abc",
		Signature:        "sig:order_abc|pay_abc",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out.Status != domain.StatusProcessing {
		t.Fatalf("status = %s", out.Status)
	}
	got := repo.get("ORD-7001")
	if got.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("payment status = %s", got.PaymentStatus)
	}
	if got.Payment == nil || got.Payment.GatewayPaymentID != "pay_abc" || got.Payment.VerifiedAt.IsZero() {
		t.Fatalf("payment info = %+v", got.Payment)
	}
	if n := len(queue.byName(EventOrderConfirmed)); n != 1 {
		t.Fatalf("confirmation notifications = %d, want 1", n)
	}
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	uc, repo, _ := verifyFixture(unconfirmedOrder("ORD-7002"))

	_, err := uc.Execute(context.Background(), VerifyPaymentInput{
		OrderNumber:      "ORD-7002",
		ActorUserID:      "user-1",
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_abc",
		Signature:        "tampered",
	})
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
	got := repo.get("ORD-7002")
	if got.Payment != nil || got.PaymentStatus != domain.PaymentPending {
		t.Fatal("order mutated on bad signature")
	}
}

func TestVerifyPayment_ReplayedCallbackIsNoOp(t *testing.T) {
	o := unconfirmedOrder("ORD-7003")
	uc, _, queue := verifyFixture(o)
	in := VerifyPaymentInput{
		OrderNumber: "ORD-7003", ActorUserID: "user-1",
		GatewayOrderID: "order_abc", GatewayPaymentID: "pay_abc",
		Signature: "sig:order_abc|pay_abc",
	}

	for i := 0; i < 2; i++ {
		if _, err := uc.Execute(context.Background(), in); err != nil {
			t.Fatalf("verify %d: %v", i, err)
		}
	}
	if n := len(queue.byName(EventOrderConfirmed)); n != 1 {
		t.Fatalf("confirmation notifications = %d, want 1", n)
	}
}

func TestVerifyPayment_GatewayWebhookReconciliation(t *testing.T) {
	o := unconfirmedOrder("ORD-7004")
	o.Payment = &domain.PaymentInfo{GatewayOrderID: "order_w1"}
	uc, repo, _ := verifyFixture(o)

	if err := uc.MarkPaidFromGateway(context.Background(), "order_w1", "pay_w1"); err != nil {
		t.Fatalf("webhook reconcile: %v", err)
	}
	got := repo.get("ORD-7004")
	if got.PaymentStatus != domain.PaymentPaid || got.Status != domain.StatusProcessing {
		t.Fatalf("order = status %s payment %s", got.Status, got.PaymentStatus)
	}

	// Unknown gateway order ids are acknowledged, not errors.
	if err := uc.MarkPaidFromGateway(context.Background(), "order_unknown", "pay_x"); err != nil {
		t.Fatalf("unknown order: %v", err)
	}
}
