package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature checks the checkout callback signature: an
// HMAC-SHA256 over "<gateway_order_id>|<gateway_payment_id>" with the key
// secret. Comparison is constant-time; a mismatch is a normal outcome, never
// an error.
func (c *Client) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return verifyHMAC([]byte(c.keySecret), []byte(gatewayOrderID+"|"+gatewayPaymentID), signature)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw webhook body using the separate webhook secret. Must pass before any
// event dispatch: this is the trust boundary.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	return verifyHMAC([]byte(c.webhookSecret), body, signature)
}

func verifyHMAC(secret, payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
