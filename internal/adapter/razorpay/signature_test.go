package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func testClient() *Client {
	return NewClient(Config{
		KeySecret:     "key-secret",
		WebhookSecret: "webhook-secret",
	})
}

func TestVerifyPaymentSignature(t *testing.T) {
	c := testClient()
	good := sign("key-secret", "order_abc|pay_xyz")

	if !c.VerifyPaymentSignature("order_abc", "pay_xyz", good) {
		t.Fatal("valid signature rejected")
	}

	// Any single-byte mutation must fail verification.
	for i := 0; i < len(good); i += 7 {
		mutated := []byte(good)
		if mutated[i] == 'a' {
			mutated[i] = 'b'
		} else {
			mutated[i] = 'a'
		}
		if c.VerifyPaymentSignature("order_abc", "pay_xyz", string(mutated)) {
			t.Fatalf("mutated signature at byte %d accepted", i)
		}
	}

	if c.VerifyPaymentSignature("order_abc", "pay_other", good) {
		t.Fatal("signature accepted for different payment id")
	}
	if c.VerifyPaymentSignature("order_abc", "pay_xyz", "") {
		t.Fatal("empty signature accepted")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	c := testClient()
	body := []byte(`{"event":"payment.captured"}`)
	good := sign("webhook-secret", string(body))

	if !c.VerifyWebhookSignature(body, good) {
		t.Fatal("valid webhook signature rejected")
	}
	if c.VerifyWebhookSignature([]byte(`{"event":"payment.captured" }`), good) {
		t.Fatal("mutated body accepted")
	}
	if c.VerifyWebhookSignature(body, sign("key-secret", string(body))) {
		t.Fatal("signature from the wrong secret accepted")
	}
}

func TestDispatch_RejectsBadSignatureBeforeRouting(t *testing.T) {
	c := testClient()
	routed := false
	d := NewDispatcher(c, WebhookHandlers{
		PaymentCaptured: func(context.Context, PaymentEntity) error {
			routed = true
			return nil
		},
	})

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`)
	err := d.Dispatch(context.Background(), body, "bogus")
	if err == nil {
		t.Fatal("bad signature accepted")
	}
	if routed {
		t.Fatal("handler invoked despite bad signature")
	}
}

func TestDispatch_RoutesAndAcksUnknown(t *testing.T) {
	c := testClient()
	var captured PaymentEntity
	d := NewDispatcher(c, WebhookHandlers{
		PaymentCaptured: func(_ context.Context, p PaymentEntity) error {
			captured = p
			return nil
		},
	})

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","amount":249900,"status":"captured"}}}}`)
	if err := d.Dispatch(context.Background(), body, sign("webhook-secret", string(body))); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if captured.ID != "pay_1" || captured.OrderID != "order_1" {
		t.Fatalf("captured entity = %+v", captured)
	}

	// Unrecognized event types are acknowledged without processing.
	body = []byte(`{"event":"settlement.created","payload":{}}`)
	if err := d.Dispatch(context.Background(), body, sign("webhook-secret", string(body))); err != nil {
		t.Fatalf("unknown event must be acked: %v", err)
	}
}
