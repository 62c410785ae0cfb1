// Package razorpay wraps the payment gateway's REST API. Every outbound call
// is context-bounded and normalized into the internal result shape regardless
// of the gateway's native response.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

type Config struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Timeout       time.Duration
}

type Client struct {
	httpc         *http.Client
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		httpc:         &http.Client{Timeout: timeout},
		baseURL:       cfg.BaseURL,
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
	}
}

type gatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var ge gatewayError
		if jerr := json.Unmarshal(raw, &ge); jerr == nil && ge.Error.Description != "" {
			return fmt.Errorf("gateway %s: %s", ge.Error.Code, ge.Error.Description)
		}
		return fmt.Errorf("gateway status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}

// GatewayOrder is a gateway-side order created ahead of checkout.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func (c *Client) CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (GatewayOrder, error) {
	var out GatewayOrder
	err := c.do(ctx, http.MethodPost, "/orders", map[string]any{
		"amount":   amountCents,
		"currency": currency,
		"receipt":  receipt,
	}, &out)
	return out, err
}

type Payment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
	Method  string `json:"method"`
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (Payment, error) {
	var out Payment
	err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &out)
	return out, err
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (GatewayOrder, error) {
	var out GatewayOrder
	err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, &out)
	return out, err
}

type refundResponse struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"` // pending | processed | failed
}

// CreateRefund issues a full or partial refund against a captured payment.
// receipt is the idempotency key: the gateway recognizes a retried call with
// the same receipt as a duplicate instead of refunding twice.
func (c *Client) CreateRefund(ctx context.Context, paymentID string, amountCents int64, receipt string, notes map[string]string) (usecase.RefundResult, error) {
	payload := map[string]any{
		"amount":  amountCents,
		"receipt": receipt,
		"speed":   "normal",
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}
	var out refundResponse
	if err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/refund", payload, &out); err != nil {
		return usecase.RefundResult{Success: false, Message: err.Error()}, err
	}
	return usecase.RefundResult{
		Success:  true,
		RefundID: out.ID,
		Status:   out.Status,
	}, nil
}

var _ usecase.PaymentGateway = (*Client)(nil)
