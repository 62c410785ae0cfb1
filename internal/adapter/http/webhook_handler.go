package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/razorpay"
	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/shiprocket"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

var webhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "webhooks_received_total",
	Help: "Inbound webhooks, by source and outcome.",
}, []string{"source", "outcome"})

// WebhookHandler terminates the two inbound push channels. Both endpoints
// authenticate first and ack fast: a 2xx after authentication means
// "received", not "fully applied", so provider retries stay useful for
// transport failures but never replay already-applied events.
type WebhookHandler struct {
	payments *razorpay.Dispatcher
	carrier  *shiprocket.Client
	recon    *usecase.ReconcileCarrier
}

func NewWebhookHandler(payments *razorpay.Dispatcher, carrier *shiprocket.Client, recon *usecase.ReconcileCarrier) *WebhookHandler {
	return &WebhookHandler{payments: payments, carrier: carrier, recon: recon}
}

// Razorpay handles POST /webhook/razorpay. The signature covers the raw
// body, so it is read before any decoding.
func (h *WebhookHandler) Razorpay(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		webhooksTotal.WithLabelValues("razorpay", "bad_request").Inc()
		respond(c, http.StatusBadRequest, false, "unreadable body", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	err = h.payments.Dispatch(ctx, body, c.GetHeader("X-Razorpay-Signature"))
	switch {
	case err == nil:
		webhooksTotal.WithLabelValues("razorpay", "ok").Inc()
		respond(c, http.StatusOK, true, "ok", nil)
	case errors.Is(err, razorpay.ErrBadWebhookSignature):
		webhooksTotal.WithLabelValues("razorpay", "bad_signature").Inc()
		respond(c, http.StatusUnauthorized, false, "invalid signature", nil)
	default:
		// Non-2xx makes the provider redeliver; reconciliation is
		// idempotent so the retry is safe.
		webhooksTotal.WithLabelValues("razorpay", "error").Inc()
		logging.From(c).Error("razorpay webhook", "err", err)
		respond(c, http.StatusInternalServerError, false, "processing failed", nil)
	}
}

// Shiprocket handles POST /webhook/shiprocket, authenticated by the shared
// x-api-key header.
func (h *WebhookHandler) Shiprocket(c *gin.Context) {
	if !h.carrier.VerifyWebhookKey(c.GetHeader("x-api-key")) {
		webhooksTotal.WithLabelValues("shiprocket", "bad_key").Inc()
		respond(c, http.StatusUnauthorized, false, "invalid api key", nil)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		webhooksTotal.WithLabelValues("shiprocket", "bad_request").Inc()
		respond(c, http.StatusBadRequest, false, "unreadable body", nil)
		return
	}
	ev, err := shiprocket.ParseWebhook(body)
	if err != nil {
		webhooksTotal.WithLabelValues("shiprocket", "bad_request").Inc()
		respond(c, http.StatusBadRequest, false, "malformed payload", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	err = h.recon.Execute(ctx, ev)
	switch {
	case err == nil:
		webhooksTotal.WithLabelValues("shiprocket", "ok").Inc()
		respond(c, http.StatusOK, true, "ok", nil)
	case errors.Is(err, usecase.ErrOrderNotFound):
		// Events for orders this system never created (other channels on
		// the same carrier account) are acked so the carrier stops retrying.
		webhooksTotal.WithLabelValues("shiprocket", "unknown_order").Inc()
		logging.From(c).Warn("carrier event for unknown order", "carrier_order", ev.CarrierOrderID)
		respond(c, http.StatusOK, true, "ignored", nil)
	default:
		webhooksTotal.WithLabelValues("shiprocket", "error").Inc()
		logging.From(c).Error("shiprocket webhook", "err", err)
		respond(c, http.StatusInternalServerError, false, "processing failed", nil)
	}
}
